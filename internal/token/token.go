// Package token issues and verifies the signed, time-limited tokens that
// carry a pending registration through the email-verification handshake.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tdpcorpsa/singup/internal/domain"
	"github.com/tdpcorpsa/singup/internal/validation"
)

// TTL is how long a verification link stays usable.
const TTL = 10 * time.Minute

// ErrDraftInvalid is returned by Issue for a draft that fails validation.
var ErrDraftInvalid = errors.New("draft failed validation")

type claims struct {
	Username  string `json:"username"`
	Nombres   string `json:"nombres"`
	Apellidos string `json:"apellidos"`
	Mail      string `json:"mail"`
	Clave     string `json:"clave"` // bcrypt hash, never the plaintext
	jwt.RegisteredClaims
}

// Issuer signs verification tokens with a process-wide secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret []byte) *Issuer {
	return &Issuer{secret: secret, ttl: TTL}
}

// Issue validates the draft, hashes the password, and signs a token
// embedding the pending registration. It refuses drafts that fail any
// field check.
func (i *Issuer) Issue(d domain.Draft) (string, error) {
	if res := validation.ValidateDraft(d); !res.IsValid {
		return "", ErrDraftInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(d.Clave), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash clave: %w", err)
	}

	now := time.Now()
	c := claims{
		Username:  d.Username,
		Nombres:   d.Nombres,
		Apellidos: d.Apellidos,
		Mail:      d.Mail,
		Clave:     string(hash),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verifier checks signature and expiry and extracts the pending registration.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// Verify returns the payload of a valid token. A missing token yields
// domain.ErrMissingToken; anything malformed, tampered with, or expired
// yields domain.ErrTokenInvalid.
func (v *Verifier) Verify(raw string) (*domain.Pending, error) {
	if raw == "" {
		return nil, domain.ErrMissingToken
	}

	var c claims
	tok, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, domain.ErrTokenInvalid
	}

	return &domain.Pending{
		Username:  c.Username,
		Nombres:   c.Nombres,
		Apellidos: c.Apellidos,
		Mail:      c.Mail,
		ClaveHash: c.Clave,
	}, nil
}
