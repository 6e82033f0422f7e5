package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingToken = errors.New("token no proporcionado")
	ErrTokenInvalid = errors.New("token inválido o expirado")
)

// Draft holds the registration form fields for one session. It is owned by
// the form controller and cleared on successful submit or reset.
type Draft struct {
	Username       string // DNI, the lookup key
	Nombres        string
	Apellidos      string
	Mail           string
	Clave          string
	ConfirmarClave string
}

// Pending is the payload carried inside a verification token: the draft
// snapshot with the credential already hashed. It is what the user-creation
// service ultimately receives.
type Pending struct {
	Username  string
	Nombres   string
	Apellidos string
	Mail      string
	ClaveHash string
}

// WorkerRecord is what the external worker registry returns for a DNI.
type WorkerRecord struct {
	Estado string
	Nombre string
	Mail   string
}

func (r WorkerRecord) Active() bool {
	return r.Estado == "ACTIVO"
}

// RejectReason distinguishes why an identity lookup was rejected, so the
// caller can show different messaging.
type RejectReason string

const (
	RejectNotActive         RejectReason = "not_active"
	RejectAlreadyRegistered RejectReason = "already_registered"
)

// LookupRejectedError is returned when the registry found the DNI but the
// record cannot be registered (inactive, or an email already on file).
type LookupRejectedError struct {
	Reason RejectReason
}

func (e *LookupRejectedError) Error() string {
	switch e.Reason {
	case RejectAlreadyRegistered:
		return "usuario ya registrado"
	default:
		return "usuario no encontrado o inactivo"
	}
}

// CreationError carries the diagnostic detail from a failed user-creation
// call. Distinct from the benign already-exists outcome. Malformed marks a
// response body that could not be parsed at all.
type CreationError struct {
	Detail    string
	Raw       string
	Malformed bool
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("error al crear usuario: %s", e.Detail)
}

// VerifyOutcome is the terminal result of a successful token verification.
type VerifyOutcome string

const (
	OutcomeCreated       VerifyOutcome = "created"
	OutcomeAlreadyExists VerifyOutcome = "already_exists"
)

// SplitFullName splits a registry full name into surnames and given names.
// The registry lists surnames first; the first two tokens are the surnames
// and whatever remains are the given names.
func SplitFullName(full string) (apellidos, nombres string) {
	tokens := strings.Fields(full)
	if len(tokens) <= 2 {
		return strings.Join(tokens, " "), ""
	}
	return strings.Join(tokens[:2], " "), strings.Join(tokens[2:], " ")
}
