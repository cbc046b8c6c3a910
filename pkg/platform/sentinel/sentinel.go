package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: record does not exist in the store
//   - ErrConflict: a unique constraint rejected the write
//   - ErrUnavailable: backing service not configured or unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)

// ConflictError reports which unique column rejected a write.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return "conflict on " + e.Field
}

// Unwrap makes errors.Is(err, ErrConflict) hold for every ConflictError.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// Conflict builds a ConflictError for field.
func Conflict(field string) error {
	return &ConflictError{Field: field}
}

// ConflictField returns the violated field, or "" when err is not a ConflictError.
func ConflictField(err error) string {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Field
	}
	return ""
}
