package rosid

import (
	"errors"
	"fmt"

	"github.com/acoburn/trellis-rosid/internal/lock"
)

// ErrLockTimeout is returned when a mutating operation could not acquire
// its resource lock within the configured timeout. Per the error-handling
// design this propagates to the caller unretried.
var ErrLockTimeout = lock.ErrTimeout

// ErrUnsupported marks an operation reserved but deliberately not
// implemented (compact).
var ErrUnsupported = errors.New("rosid: operation not supported")

// ErrNotFound is returned by Get/GetAt when the resource does not exist.
var ErrNotFound = errors.New("rosid: resource not found")

// ioError wraps an underlying I/O failure (filesystem, bbolt) for
// propagation, per the IoError error-kind in the error-handling design.
func ioError(op string, err error) error {
	return fmt.Errorf("rosid: %s: %w", op, err)
}
