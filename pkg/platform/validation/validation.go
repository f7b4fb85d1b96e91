// Package validation holds the pure input checks applied before any guest or
// report touches storage. Every failure is a CodeValidation domain error whose
// message is safe to show to the guest.
package validation

import (
	"strings"

	dErrors "guestlist/pkg/domain-errors"
)

// ForbiddenNameChars lists every character rejected in a name or lastname:
// ASCII punctuation, digits, and a few diacritics typed by mistake.
const ForbiddenNameChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~" + "0123456789" + "¨´¿"

const (
	RoleLeader    = "leader"
	RoleCompanion = "companion"
)

// Menus accepted for the optional menu attribute.
var Menus = []string{"sin_condicion", "vegetariano", "vegano", "celiaco"}

const (
	MsgInvalidName     = "Nombre inválido"
	MsgInvalidLastname = "Apellido inválido"
	MsgInvalidRole     = "Rol inválido"
	MsgInvalidEmail    = "Email inválido"
	MsgInvalidMenu     = "Menú inválido"
)

// ValidateName returns the trimmed name or a validation error.
func ValidateName(s string) (string, error) {
	return validatePersonName(s, MsgInvalidName)
}

// ValidateLastname returns the trimmed lastname or a validation error.
func ValidateLastname(s string) (string, error) {
	return validatePersonName(s, MsgInvalidLastname)
}

func validatePersonName(s, msg string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, ForbiddenNameChars) {
		return "", dErrors.New(dErrors.CodeValidation, msg)
	}
	return s, nil
}

// ValidateRole accepts leader or companion, case-insensitively.
func ValidateRole(r string) (string, error) {
	r = strings.ToLower(strings.TrimSpace(r))
	if r != RoleLeader && r != RoleCompanion {
		return "", dErrors.New(dErrors.CodeValidation, MsgInvalidRole)
	}
	return r, nil
}

// ValidateEmail only rejects empty input. Format is not checked.
func ValidateEmail(e string) (string, error) {
	e = strings.TrimSpace(e)
	if e == "" {
		return "", dErrors.New(dErrors.CodeValidation, MsgInvalidEmail)
	}
	return e, nil
}

// ValidateMenu accepts an empty menu (unspecified) or one of Menus.
func ValidateMenu(m string) (string, error) {
	m = strings.ToLower(strings.TrimSpace(m))
	if m == "" {
		return "", nil
	}
	for _, known := range Menus {
		if m == known {
			return m, nil
		}
	}
	return "", dErrors.New(dErrors.CodeValidation, MsgInvalidMenu)
}
