package database

import (
	"errors"
	"fmt"
)

var (
	// ErrNoConnection matches every ConnectionError
	ErrNoConnection = errors.New("no database connection")
	// ErrInvalidTable matches every InvalidTableError
	ErrInvalidTable = errors.New("table is not on the allow-list")
)

// ConnectionError is returned when no live connection exists or one cannot be opened
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, ErrNoConnection, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, ErrNoConnection)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrNoConnection }

// InvalidTableError is returned before any database access for names outside the allow-list
type InvalidTableError struct {
	Table string
}

func (e *InvalidTableError) Error() string {
	return fmt.Sprintf("invalid table %q: %v", e.Table, ErrInvalidTable)
}

func (e *InvalidTableError) Is(target error) bool { return target == ErrInvalidTable }

// QueryError wraps a driver failure while reading a table
type QueryError struct {
	Table Table
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("failed to query table %s: %v", e.Table, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
