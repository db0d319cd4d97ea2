package store

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
)

var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied means the database rejected the write for lack of
	// privilege. Surfaced as-is so callers can give actionable feedback.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnavailable means the database could not be reached or is shedding
	// load. The operation may succeed on retry.
	ErrUnavailable = errors.New("store unavailable")

	// ErrUnknown covers everything else.
	ErrUnknown = errors.New("unknown store error")
)

// Classify maps a driver error onto the sink error taxonomy. The original
// classification is preserved in the wrapped message; callers branch on the
// sentinel with errors.Is.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "42501" { // insufficient_privilege
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		switch pqErr.Code.Class() {
		case "28": // invalid authorization
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		case "08", "53", "57": // connection failure, resources, shutdown
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		default:
			return fmt.Errorf("%w: %v", ErrUnknown, err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return fmt.Errorf("%w: %v", ErrUnknown, err)
}
