// Package validation holds the pure field checks behind the registration
// form. Every predicate is total: bad input yields false, never a panic.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tdpcorpsa/singup/internal/domain"
)

const (
	MinDNILength   = 8
	MinClaveLength = 6
)

// Same shape the registration form has always enforced: something@something.tld,
// no whitespace anywhere.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateDNI reports whether the trimmed identification has at least
// minLength characters. Lengths count characters, not bytes.
func ValidateDNI(dni string, minLength int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(dni)) >= minLength
}

// ValidateEmail reports whether mail looks like a conventional address.
func ValidateEmail(mail string) bool {
	return emailRe.MatchString(strings.TrimSpace(mail))
}

// ValidateClave reports whether the password meets the minimum length in
// characters. The password is taken as-is; leading or trailing spaces count.
func ValidateClave(clave string, minLength int) bool {
	return utf8.RuneCountInString(clave) >= minLength
}

// ValidateClaveMatch reports whether both passwords are non-empty and equal.
func ValidateClaveMatch(clave, confirmar string) bool {
	return clave != "" && confirmar != "" && clave == confirmar
}

// ValidateRequired reports whether value has non-whitespace content.
func ValidateRequired(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Field names a draft field in a Result.
type Field string

const (
	FieldUsername       Field = "username"
	FieldNombres        Field = "nombres"
	FieldApellidos      Field = "apellidos"
	FieldMail           Field = "mail"
	FieldClave          Field = "clave"
	FieldConfirmarClave Field = "confirmarClave"
)

// Result aggregates per-field errors. A field absent from Errors is valid.
type Result struct {
	IsValid bool
	Errors  map[Field]string
}

// ValidateDraft runs every field check independently and aggregates the
// result, so the caller always sees the full current set of errors.
func ValidateDraft(d domain.Draft) Result {
	errs := make(map[Field]string)

	if !ValidateDNI(d.Username, MinDNILength) {
		errs[FieldUsername] = "La identificación debe tener al menos 8 caracteres."
	}
	if !ValidateRequired(d.Nombres) {
		errs[FieldNombres] = "Los nombres son requeridos."
	}
	if !ValidateRequired(d.Apellidos) {
		errs[FieldApellidos] = "Los apellidos son requeridos."
	}
	if !ValidateEmail(d.Mail) {
		errs[FieldMail] = "Ingresa un correo válido."
	}
	if !ValidateClave(d.Clave, MinClaveLength) {
		errs[FieldClave] = "Clave mínima de 6 caracteres."
	}
	if !ValidateClaveMatch(d.Clave, d.ConfirmarClave) {
		errs[FieldConfirmarClave] = "Las claves no coinciden."
	}

	return Result{IsValid: len(errs) == 0, Errors: errs}
}
