package tracking

import "github.com/pkg/errors"

var (
	// ErrNotFound: no order matches the reference.
	ErrNotFound = errors.New("order not found")
	// ErrInternal: the persistent store failed (unreachable, timeout, bad row).
	ErrInternal = errors.New("internal error")
	// ErrAmbiguousReference: a lookup strategy matched more than one order.
	ErrAmbiguousReference = errors.New("ambiguous order reference")
	ErrEmptyReference     = errors.New("order reference is required")
)
