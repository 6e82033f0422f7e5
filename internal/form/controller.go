// Package form implements the registration form's state machine without any
// UI attached: field mutation, pure validity re-derivation, and the guarded
// search and submit actions. A Controller is owned by a single session and
// must only be used from one goroutine.
package form

import (
	"context"
	"fmt"

	"github.com/tdpcorpsa/singup/internal/domain"
	"github.com/tdpcorpsa/singup/internal/validation"
)

// IdentityLookup resolves a DNI against the worker registry.
// Defined here (point of use) so tests can inject a fake.
type IdentityLookup interface {
	Lookup(ctx context.Context, dni string) (*domain.WorkerRecord, error)
}

// VerificationRequester triggers the verification email for a complete draft.
type VerificationRequester interface {
	RequestVerification(ctx context.Context, d domain.Draft) error
}

// Controller drives one registration session. isSearching and isSubmitting
// serialize the two outbound calls: a second trigger while one is
// outstanding fails the guard and is a no-op.
type Controller struct {
	lookup    IdentityLookup
	requester VerificationRequester

	draft    domain.Draft
	validity validation.Result

	isSearching       bool
	isSubmitting      bool
	identityConfirmed bool
	emailSent         bool
}

func NewController(lookup IdentityLookup, requester VerificationRequester) *Controller {
	c := &Controller{lookup: lookup, requester: requester}
	c.recompute()
	return c
}

// recompute re-derives validity from the draft. Called after every mutation
// so the guard state never goes stale.
func (c *Controller) recompute() {
	c.validity = validation.ValidateDraft(c.draft)
}

func (c *Controller) Draft() domain.Draft         { return c.draft }
func (c *Controller) Validity() validation.Result { return c.validity }
func (c *Controller) Searching() bool             { return c.isSearching }
func (c *Controller) Submitting() bool            { return c.isSubmitting }
func (c *Controller) IdentityConfirmed() bool     { return c.identityConfirmed }

// TakeEmailSent returns the one-shot success notification, clearing it.
func (c *Controller) TakeEmailSent() bool {
	sent := c.emailSent
	c.emailSent = false
	return sent
}

func (c *Controller) SetUsername(v string) {
	c.draft.Username = v
	// Editing the DNI invalidates a previously confirmed identity.
	c.identityConfirmed = false
	c.recompute()
}

func (c *Controller) SetNombres(v string)        { c.draft.Nombres = v; c.recompute() }
func (c *Controller) SetApellidos(v string)      { c.draft.Apellidos = v; c.recompute() }
func (c *Controller) SetMail(v string)           { c.draft.Mail = v; c.recompute() }
func (c *Controller) SetClave(v string)          { c.draft.Clave = v; c.recompute() }
func (c *Controller) SetConfirmarClave(v string) { c.draft.ConfirmarClave = v; c.recompute() }

// CanSearch guards the lookup: no search in flight and a plausible DNI.
func (c *Controller) CanSearch() bool {
	return !c.isSearching && validation.ValidateDNI(c.draft.Username, validation.MinDNILength)
}

// Search resolves the DNI and, on an active unclaimed record, fills the name
// fields from the registry. A rejected record comes back as
// *domain.LookupRejectedError with the reason; a failed guard is a no-op.
func (c *Controller) Search(ctx context.Context) error {
	if !c.CanSearch() {
		return nil
	}
	c.isSearching = true
	defer func() { c.isSearching = false }()

	rec, err := c.lookup.Lookup(ctx, c.draft.Username)
	if err != nil {
		return fmt.Errorf("buscar dni: %w", err)
	}

	if !rec.Active() {
		c.identityConfirmed = false
		return &domain.LookupRejectedError{Reason: domain.RejectNotActive}
	}
	if rec.Mail != "" {
		c.identityConfirmed = false
		return &domain.LookupRejectedError{Reason: domain.RejectAlreadyRegistered}
	}

	apellidos, nombres := domain.SplitFullName(rec.Nombre)
	c.draft.Apellidos = apellidos
	c.draft.Nombres = nombres
	c.identityConfirmed = true
	c.recompute()
	return nil
}

// CanSubmit is the submit guard: identity confirmed, both name fields
// non-empty, a valid email, a long-enough password, and a matching
// confirmation, with no submit in flight. Recomputed on demand from current
// state only.
func (c *Controller) CanSubmit() bool {
	return !c.isSubmitting &&
		c.identityConfirmed &&
		validation.ValidateRequired(c.draft.Nombres) &&
		validation.ValidateRequired(c.draft.Apellidos) &&
		validation.ValidateEmail(c.draft.Mail) &&
		validation.ValidateClave(c.draft.Clave, validation.MinClaveLength) &&
		validation.ValidateClaveMatch(c.draft.Clave, c.draft.ConfirmarClave)
}

// Submit requests the verification email. On acknowledgement the draft is
// cleared and the one-shot notification set; on failure the draft is kept so
// the user can retry. A failed guard is a no-op.
func (c *Controller) Submit(ctx context.Context) error {
	if !c.CanSubmit() {
		return nil
	}
	c.isSubmitting = true
	defer func() { c.isSubmitting = false }()

	if err := c.requester.RequestVerification(ctx, c.draft); err != nil {
		return fmt.Errorf("solicitar verificación: %w", err)
	}

	c.Reset()
	c.emailSent = true
	return nil
}

// Reset unconditionally clears the draft and all flags back to idle.
func (c *Controller) Reset() {
	c.draft = domain.Draft{}
	c.identityConfirmed = false
	c.emailSent = false
	c.recompute()
}
