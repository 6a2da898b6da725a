package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for the engine. Handlers match with errors.Is and map
// each one to a distinct HTTP status and machine code.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrConflict          = errors.New("conflict")
	ErrPriceMismatch     = errors.New("price mismatch")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrPersistence       = errors.New("persistence failure")

	// ErrSequenceExhausted means 9999 orders were created in one calendar
	// day. That is a configuration problem, not a retryable conflict.
	ErrSequenceExhausted = errors.New("daily order number sequence exhausted")
)

// FieldErrors reports validation failures per field so the caller can
// surface them next to the offending input.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) Unwrap() error {
	return ErrInvalidInput
}

// Fields extracts per-field details from err, if any.
func Fields(err error) map[string]string {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe
	}
	return nil
}
