package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Specializations of ExchangeError, recognized from the exchange's own error
// text. Match with errors.Is.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidPair       = errors.New("invalid pair")
	ErrOrderNotFound     = errors.New("order not found")
)

// SigningError means the signing input was malformed (empty secret,
// unserializable body). Programmer error; never retried.
type SigningError struct {
	Reason string
}

func (e *SigningError) Error() string {
	return "signing: " + e.Reason
}

// TransportError covers network failures, timeouts and non-JSON responses.
// Eligible for a bounded retry with a fresh nonce.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExchangeError is a business-rule rejection from the exchange envelope.
// The message is kept verbatim for the user and is never retried.
type ExchangeError struct {
	Code    string
	Message string
}

func (e *ExchangeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("exchange rejected request (%s): %s", e.Code, e.Message)
	}
	return "exchange rejected request: " + e.Message
}

// Is classifies the exchange's message onto the sentinel specializations so
// callers can branch with errors.Is without parsing text themselves.
func (e *ExchangeError) Is(target error) bool {
	msg := strings.ToLower(e.Message)
	switch target {
	case ErrInsufficientFunds:
		return strings.Contains(msg, "insufficient balance") ||
			strings.Contains(msg, "insufficient fund")
	case ErrInvalidPair:
		return strings.Contains(msg, "invalid pair") ||
			strings.Contains(msg, "unknown pair") ||
			strings.Contains(msg, "pair is not listed")
	case ErrOrderNotFound:
		return strings.Contains(msg, "order not found") ||
			strings.Contains(msg, "invalid order")
	}
	return false
}

// ValidationError is a caller mistake caught before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
