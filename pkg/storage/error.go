package storage

import (
	"errors"
	"strconv"
)

// NotFoundError is returned when a chat doesn't exist in the store.
type NotFoundError struct {
	ID int64
}

func (e NotFoundError) Error() string {
	if e.ID == 0 {
		return "chat not found"
	}

	return "chat not found: " + strconv.FormatInt(e.ID, 10)
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
