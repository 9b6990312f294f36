package errors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error type mapped to process exit codes.
type Code int

const (
	CodeSuccess     Code = 0
	CodeInternal    Code = 1
	CodeUsage       Code = 2
	CodeAuth        Code = 10
	CodeRateLimited Code = 11
	CodeUnavailable Code = 12
	CodeUnsupported Code = 13
	CodeStale       Code = 14

	// Trade resolution failures. None of these are transient.
	CodeCurrencyNotFound   Code = 20
	CodeEmptyOutputs       Code = 21
	CodeInvalidState       Code = 22
	CodeInvalidAmount      Code = 23
	CodeUnsupportedNetwork Code = 24
)

// Error is a typed SDK error that carries a stable error code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// NetworkError names the chain and the feature a per-chain table could not serve.
type NetworkError struct {
	ChainID int64
	Feature string
	// Configured is true when the chain is known but the feature is not available on it.
	Configured bool
}

func (e *NetworkError) Error() string {
	if e.Configured {
		return fmt.Sprintf("chain %d does not have %s", e.ChainID, e.Feature)
	}
	return fmt.Sprintf("%s not deployed on chain %d", e.Feature, e.ChainID)
}

// UnsupportedNetwork builds the error returned by per-chain tables.
func UnsupportedNetwork(chainID int64, feature string, configured bool) *Error {
	cause := &NetworkError{ChainID: chainID, Feature: feature, Configured: configured}
	return &Error{Code: CodeUnsupportedNetwork, Message: "unsupported network", Cause: cause}
}

// AsNetworkError extracts the network detail from an UnsupportedNetwork error.
func AsNetworkError(err error) (*NetworkError, bool) {
	var target *NetworkError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func ExitCode(err error) int {
	if err == nil {
		return int(CodeSuccess)
	}
	if sdkErr, ok := As(err); ok {
		return int(sdkErr.Code)
	}
	return int(CodeInternal)
}

// TypeName maps a code onto the error type string used in output envelopes.
func TypeName(code Code) string {
	switch code {
	case CodeUsage:
		return "usage_error"
	case CodeAuth:
		return "auth_error"
	case CodeRateLimited:
		return "rate_limited"
	case CodeUnavailable:
		return "provider_unavailable"
	case CodeUnsupported:
		return "unsupported"
	case CodeStale:
		return "stale_data"
	case CodeCurrencyNotFound:
		return "currency_not_found"
	case CodeEmptyOutputs:
		return "empty_outputs"
	case CodeInvalidState:
		return "invalid_state"
	case CodeInvalidAmount:
		return "invalid_amount"
	case CodeUnsupportedNetwork:
		return "unsupported_network"
	default:
		return "internal_error"
	}
}
