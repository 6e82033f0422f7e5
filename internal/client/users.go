package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tdpcorpsa/singup/internal/domain"
	"github.com/tdpcorpsa/singup/internal/metrics"
)

// UserCreator calls the external security service that owns user accounts.
type UserCreator struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

func NewUserCreator(baseURL string, timeout time.Duration) *UserCreator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &UserCreator{
		baseURL: baseURL,
		client:  &http.Client{},
		timeout: timeout,
	}
}

type createUserRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Nombres   string `json:"nombres"`
	Apellidos string `json:"apellidos"`
	Mail      string `json:"mail"`
}

type createUserResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Text   string `json:"text"`
}

// Create registers the pending user in the external system.
//
// The service answers with {status, error} JSON, but some deployments reply
// with a bare 200 and a non-JSON body on success, so an unparseable body is
// only an error when the HTTP status is not 200. A failure whose error text
// mentions "Usuario ya existe" is the benign already-exists branch.
func (c *UserCreator) Create(ctx context.Context, p *domain.Pending) (domain.VerifyOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(createUserRequest{
		Username:  p.Username,
		Password:  p.ClaveHash,
		Nombres:   p.Nombres,
		Apellidos: p.Apellidos,
		Mail:      p.Mail,
	})
	if err != nil {
		return "", fmt.Errorf("marshal create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/security/usuario/crear", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues("users", "error").Observe(time.Since(start).Seconds())
		return "", fmt.Errorf("do create request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.UpstreamRequestDuration.WithLabelValues("users", strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read create response: %w", err)
	}

	var cr createUserResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		if resp.StatusCode == http.StatusOK {
			return domain.OutcomeCreated, nil
		}
		return "", &domain.CreationError{
			Detail:    "respuesta no válida del servidor externo",
			Raw:       string(raw),
			Malformed: true,
		}
	}

	if cr.Status == "failure" && strings.Contains(cr.Error, "Usuario ya existe") {
		return domain.OutcomeAlreadyExists, nil
	}
	if cr.Status != "ok" {
		detail := cr.Error
		if detail == "" {
			detail = cr.Text
		}
		if detail == "" {
			detail = "respuesta inesperada"
		}
		return "", &domain.CreationError{Detail: detail, Raw: string(raw)}
	}

	return domain.OutcomeCreated, nil
}

// Ping is used by the health checker. The base URL has no route of its own,
// so any response short of a server error counts as reachable.
func (c *UserCreator) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping user service: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("user service returned %d", resp.StatusCode)
	}
	return nil
}
