package services

import (
	"errors"
	"fmt"
)

// ErrInvalidAmount amount is not a positive decimal number
var ErrInvalidAmount = errors.New("invalid amount format")

// ValidationError client input rejected before any side effect
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}

// ChainError node RPC failure during op
type ChainError struct {
	Op  string
	Err error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("chain %s failed: %v", e.Op, e.Err)
}

func (e *ChainError) Unwrap() error {
	return e.Err
}

func chainErr(op string, err error) error {
	return &ChainError{Op: op, Err: err}
}

// IsValidationError reports whether err is a client input error
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsChainError reports whether err came from the chain node
func IsChainError(err error) bool {
	var target *ChainError
	return errors.As(err, &target)
}
