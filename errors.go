package dappbind

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for common failure conditions.
var (
	// ErrInvalidAddress indicates a value is not a well-formed account identifier.
	ErrInvalidAddress = errors.New("dappbind: invalid address")

	// ErrInvalidNumber indicates a value is not a non-negative integer that fits the declared width.
	ErrInvalidNumber = errors.New("dappbind: invalid number")

	// ErrInvalidEncoding indicates bytes that are not valid UTF-8 or do not fit a fixed-size type.
	ErrInvalidEncoding = errors.New("dappbind: invalid encoding")

	// ErrMalformedAbi indicates an ABI entry or signature could not be normalized.
	ErrMalformedAbi = errors.New("dappbind: malformed abi")

	// ErrConnectionRejected indicates an interactive connection could not be established.
	ErrConnectionRejected = errors.New("dappbind: connection rejected")

	// ErrRemoteCallFailed indicates the on-chain invocation itself failed.
	ErrRemoteCallFailed = errors.New("dappbind: remote call failed")

	// ErrNotPayable indicates value was attached to a method that cannot receive it.
	ErrNotPayable = errors.New("dappbind: method is not payable")

	// ErrSignerRequired indicates a mutating method was invoked through a read-only handle.
	ErrSignerRequired = errors.New("sending a transaction requires a signer")
)

// MethodNotFoundError indicates the binding has no method with the requested name.
type MethodNotFoundError struct {
	Contract common.Address
	Method   string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("dappbind: method %q not found in contract %s", e.Method, e.Contract.Hex())
}

// ArgumentError indicates an argument could not be encoded for its declared parameter.
type ArgumentError struct {
	Method string
	Index  int
	Type   string
	Err    error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("dappbind: argument %d (%s) for method %q: %v", e.Index, e.Type, e.Method, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// AbiError wraps normalization failures with the offending entry.
type AbiError struct {
	Entry int
	Input string
	Err   error
}

func (e *AbiError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("dappbind: abi entry %d (%s): %v", e.Entry, e.Input, e.Err)
	}
	return fmt.Sprintf("dappbind: abi entry %d: %v", e.Entry, e.Err)
}

// Unwrap exposes both ErrMalformedAbi and the underlying cause.
func (e *AbiError) Unwrap() []error {
	return []error{ErrMalformedAbi, e.Err}
}

// ConnectionError indicates establishing an interactive connection failed.
type ConnectionError struct {
	ChainID *big.Int
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("dappbind: connect to chain %v: %v", e.ChainID, e.Err)
}

// Unwrap exposes both ErrConnectionRejected and the underlying cause.
func (e *ConnectionError) Unwrap() []error {
	return []error{ErrConnectionRejected, e.Err}
}

// CallError records a failed remote invocation. It is never returned from a
// method call; it is carried in Result.Err next to the display reason.
type CallError struct {
	Contract common.Address
	Method   string
	Reason   string
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("dappbind: call %s.%s: %v", e.Contract.Hex(), e.Method, e.Err)
}

// Unwrap exposes both ErrRemoteCallFailed and the underlying cause.
func (e *CallError) Unwrap() []error {
	return []error{ErrRemoteCallFailed, e.Err}
}
