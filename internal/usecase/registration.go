package usecase

import (
	"context"
	"fmt"

	"github.com/tdpcorpsa/singup/internal/domain"
	"github.com/tdpcorpsa/singup/internal/email"
	"github.com/tdpcorpsa/singup/internal/token"
)

// UserCreator is the slice of the external user service this usecase needs.
type UserCreator interface {
	Create(ctx context.Context, p *domain.Pending) (domain.VerifyOutcome, error)
}

type RegistrationUsecase struct {
	issuer   *token.Issuer
	verifier *token.Verifier
	users    UserCreator
	email    email.Sender
	linkBase string
}

func NewRegistrationUsecase(issuer *token.Issuer, verifier *token.Verifier, users UserCreator, emailSender email.Sender, linkBase string) *RegistrationUsecase {
	return &RegistrationUsecase{
		issuer:   issuer,
		verifier: verifier,
		users:    users,
		email:    emailSender,
		linkBase: linkBase,
	}
}

// RequestVerification signs a token for the validated draft and emails the
// verification link. The token embeds a hashed credential, never the
// plaintext password.
func (u *RegistrationUsecase) RequestVerification(ctx context.Context, d domain.Draft) error {
	signed, err := u.issuer.Issue(d)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	link := u.linkBase + "/api/verify-email?token=" + signed
	if err := u.email.Send(ctx, d.Mail, "Verifica tu correo", email.VerificationBody(link)); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

// VerifyEmail validates the token from an inbound link and creates the user
// in the external system. Token errors come back as domain.ErrMissingToken or
// domain.ErrTokenInvalid; a failed creation as *domain.CreationError.
func (u *RegistrationUsecase) VerifyEmail(ctx context.Context, rawToken string) (domain.VerifyOutcome, error) {
	pending, err := u.verifier.Verify(rawToken)
	if err != nil {
		return "", err
	}

	outcome, err := u.users.Create(ctx, pending)
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return outcome, nil
}
