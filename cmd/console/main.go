// console walks a registration through the live API from the terminal:
// DNI lookup, contact fields, and the verification-email request.
// Run: go run ./cmd/console [-base http://localhost:8080]
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/tdpcorpsa/singup/internal/domain"
	"github.com/tdpcorpsa/singup/internal/form"
	"github.com/tdpcorpsa/singup/internal/validation"
)

type apiClient struct {
	base   string
	client *http.Client
}

func (a *apiClient) Lookup(ctx context.Context, dni string) (*domain.WorkerRecord, error) {
	body, err := json.Marshal(map[string]string{"dni": dni})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+"/api/check-dni", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("check-dni returned %d", resp.StatusCode)
	}

	var out struct {
		Data struct {
			Estado string `json:"ESTADO"`
			Nombre string `json:"NOMBRE"`
			Mail   string `json:"mail"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &domain.WorkerRecord{Estado: out.Data.Estado, Nombre: out.Data.Nombre, Mail: out.Data.Mail}, nil
}

func (a *apiClient) RequestVerification(ctx context.Context, d domain.Draft) error {
	body, err := json.Marshal(map[string]string{
		"username":  d.Username,
		"nombres":   d.Nombres,
		"apellidos": d.Apellidos,
		"mail":      d.Mail,
		"clave":     d.Clave,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+"/api/send-verification-email", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var out struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || !out.Success {
		return fmt.Errorf("send-verification-email returned %d", resp.StatusCode)
	}
	return nil
}

func main() {
	base := flag.String("base", "http://localhost:8080", "registration service base URL")
	flag.Parse()

	api := &apiClient{base: *base, client: &http.Client{Timeout: 15 * time.Second}}
	ctrl := form.NewController(api, api)
	in := bufio.NewScanner(os.Stdin)
	ctx := context.Background()

	fmt.Println("Registro de Usuario")

	for !ctrl.IdentityConfirmed() {
		ctrl.SetUsername(prompt(in, "Identificación (DNI)"))
		if !ctrl.CanSearch() {
			fmt.Println("  La identificación debe tener al menos 8 caracteres.")
			continue
		}
		if err := ctrl.Search(ctx); err != nil {
			var rej *domain.LookupRejectedError
			if errors.As(err, &rej) {
				fmt.Printf("  %s\n", rej.Error())
				continue
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	d := ctrl.Draft()
	fmt.Printf("Apellidos: %s\nNombres:   %s\n", d.Apellidos, d.Nombres)

	for !ctrl.CanSubmit() {
		ctrl.SetMail(prompt(in, "Correo electrónico"))
		ctrl.SetClave(prompt(in, "Clave"))
		ctrl.SetConfirmarClave(prompt(in, "Confirmar clave"))

		if ctrl.CanSubmit() {
			break
		}
		res := ctrl.Validity()
		for _, f := range []validation.Field{validation.FieldMail, validation.FieldClave, validation.FieldConfirmarClave} {
			if msg, ok := res.Errors[f]; ok {
				fmt.Printf("  %s\n", msg)
			}
		}
	}

	if err := ctrl.Submit(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if ctrl.TakeEmailSent() {
		fmt.Println("Correo de verificación enviado. Revisa tu bandeja de entrada.")
	}
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Printf("%s: ", label)
	if !in.Scan() {
		fmt.Println()
		os.Exit(0)
	}
	// Passwords keep their whitespace; the validators trim where trimming
	// is part of the rule.
	return in.Text()
}
