package oxidb

import (
	"errors"
	"fmt"
	"strings"
)

// Error is returned when the OxiDB server returns an error response.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("oxidb: %s", e.Msg)
}

// TransactionConflictError is returned on OCC version conflict during commit.
type TransactionConflictError struct {
	Msg string
}

func (e *TransactionConflictError) Error() string {
	return fmt.Sprintf("oxidb: transaction conflict: %s", e.Msg)
}

// IsNotFound reports whether the server rejected a request because the
// object, bucket or collection it names does not exist.
func IsNotFound(err error) bool {
	return serverSays(err, "not found")
}

// IsExists reports whether the server rejected a create because the target
// already exists.
func IsExists(err error) bool {
	return serverSays(err, "already exists")
}

func serverSays(err error, fragment string) bool {
	var e *Error
	return errors.As(err, &e) && strings.Contains(strings.ToLower(e.Msg), fragment)
}
