package marketplace

import "errors"

// Error kinds surfaced by the core. Callers match them with errors.Is; the
// wrapped message carries the detail.
var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
)

// isKind reports whether err already carries one of the core error kinds.
func isKind(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrConflict)
}
