package pinecone

import (
	"errors"
	"fmt"
)

// Sentinel errors for the operation surface. Callers match them with
// errors.Is; the gateway maps them onto HTTP status codes.
var (
	ErrNotFound          = errors.New("pinecone: not found")
	ErrAlreadyExists     = errors.New("pinecone: already exists")
	ErrInvalidArgument   = errors.New("pinecone: invalid argument")
	ErrDimensionMismatch = errors.New("pinecone: vector dimension mismatch")
	ErrIndexNotReady     = errors.New("pinecone: index not ready")
)

// Error wraps errors with operation context.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pinecone.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
