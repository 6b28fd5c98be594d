package common

import (
	"errors"
	"fmt"
)

// Validation errors are detected before any network call.
var (
	ErrKeyNotFound    = errors.New("key not found")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidHash    = errors.New("invalid transaction hash")
)

// Network errors.
var (
	ErrNetworkUnreachable = errors.New("network unreachable")
	ErrNodeError          = errors.New("node error")
	// ErrTimeout is a request that got no response within the bounded wait.
	ErrTimeout = errors.New("request timeout")
)

// Submission outcomes.
var (
	// ErrTimedOut means the confirmation budget ran out after broadcast.
	// The transaction may still be included later.
	ErrTimedOut = errors.New("confirmation timed out")
	ErrRejected = errors.New("transaction rejected")
	ErrReverted = errors.New("transaction reverted")
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrChainMismatch     = errors.New("chain id mismatch")
)

// NodeError is an application-level error reported by the remote endpoint:
// a JSON-RPC error object, an HTTP error status or an undecodable reply.
type NodeError struct {
	Method  string
	Code    int
	Message string
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node error on %s (code %d): %s", e.Method, e.Code, e.Message)
}

// Is makes errors.Is(err, ErrNodeError) match any *NodeError.
func (e *NodeError) Is(target error) bool {
	return target == ErrNodeError
}

// IsValidationError reports whether err was produced by local input validation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidAddress) ||
		errors.Is(err, ErrInvalidHash) ||
		errors.Is(err, ErrKeyNotFound)
}
