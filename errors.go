package refptr

import (
	"errors"

	"github.com/obinnaokechukwu/refptr/control"
)

// Common errors
var (
	// ErrExpired indicates a weak handle no longer observes a live pointee.
	ErrExpired = errors.New("refptr: weak handle expired")

	// ErrEmpty indicates an operation that needs a pointee was applied to an
	// empty handle. Deref panics with it.
	ErrEmpty = errors.New("refptr: empty handle")
)

// InvariantError is the panic value raised when reference counts are
// misused, for example a double release. It is never returned as an error.
type InvariantError = control.InvariantError

// IsInvariantViolation reports whether v, typically a recovered panic value,
// is an invariant violation.
func IsInvariantViolation(v any) bool {
	err, ok := v.(error)
	if !ok {
		return false
	}
	var inv *InvariantError
	return errors.As(err, &inv)
}
