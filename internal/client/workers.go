// Package client holds the HTTP collaborators this service depends on: the
// worker registry that resolves a DNI, and the user service that creates the
// final account. Every call carries an explicit timeout so a hung upstream
// never leaves a request pending forever.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/tdpcorpsa/singup/internal/domain"
	"github.com/tdpcorpsa/singup/internal/metrics"
)

const defaultTimeout = 10 * time.Second

// WorkerRegistry resolves a DNI to an employment record.
type WorkerRegistry struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

func NewWorkerRegistry(baseURL string, timeout time.Duration) *WorkerRegistry {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &WorkerRegistry{
		baseURL: baseURL,
		client:  &http.Client{},
		timeout: timeout,
	}
}

type lookupRequest struct {
	DNI string `json:"dni"`
}

type lookupResponse struct {
	Data struct {
		Estado string `json:"ESTADO"`
		Nombre string `json:"NOMBRE"`
		Mail   string `json:"mail"`
	} `json:"data"`
}

// Lookup returns the raw registry record for a DNI. Interpreting the record
// (active, already registered) is the caller's concern.
func (c *WorkerRegistry) Lookup(ctx context.Context, dni string) (*domain.WorkerRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(lookupRequest{DNI: dni})
	if err != nil {
		return nil, fmt.Errorf("marshal lookup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/personal/consultar", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues("workers", "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("do lookup request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.UpstreamRequestDuration.WithLabelValues("workers", strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("worker registry returned %d", resp.StatusCode)
	}

	var lr lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}

	return &domain.WorkerRecord{
		Estado: lr.Data.Estado,
		Nombre: lr.Data.Nombre,
		Mail:   lr.Data.Mail,
	}, nil
}

// Ping is used by the health checker. The base URL has no route of its own,
// so any response short of a server error counts as reachable.
func (c *WorkerRegistry) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping worker registry: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("worker registry returned %d", resp.StatusCode)
	}
	return nil
}
