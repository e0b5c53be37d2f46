package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested event does not exist.
// Match it with errors.Is.
var ErrNotFound = errors.New("not found")

// DecodeError reports a stored value that cannot be reconstructed: an
// unknown enum tag, a malformed blob, a bad timestamp, or a negative duration.
type DecodeError struct {
	Table  string
	Column string
	RowID  string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s.%s (row %s): %v", e.Table, e.Column, e.RowID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failure of the underlying database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func decodeError(table, column, rowID string, err error) error {
	return &DecodeError{Table: table, Column: column, RowID: rowID, Err: err}
}
