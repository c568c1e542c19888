package repository

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
)

// ErrStorageUnavailable marks a lost connection to the backing database.
// Callers turn it into a "try again shortly" reply instead of crashing the
// request loop.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ValidationError reports input the store refuses to persist.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// wrap annotates a database error with the failed operation, collapsing
// connectivity failures into ErrStorageUnavailable.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w", op, ErrStorageUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}
