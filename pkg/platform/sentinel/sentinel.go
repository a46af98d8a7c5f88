package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and the service layer translates them into coded domain errors:
//   - ErrNotFound: no record with the requested identifier
//   - ErrConflict: a record with the same identifier already exists
//   - ErrUnavailable: a downstream sink (audit stream) cannot accept writes
//
// Validation failures are never sentinels; they come from the contact models.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
