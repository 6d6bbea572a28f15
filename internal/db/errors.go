package db

import "errors"

// ErrKeyNotFound signals a missing key in the key-value tier.
var ErrKeyNotFound = errors.New("db: key not found")

// Op names for error context. Redis ops use the command name.
const (
	OpPing    = "PING"
	OpGet     = "GET"
	OpSet     = "SET"
	OpMigrate = "MIGRATE"
	OpInsert  = "INSERT"
	OpDelete  = "DELETE"
	OpSelect  = "SELECT"
	OpTx      = "TX"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
