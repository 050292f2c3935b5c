package llms

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
)

// ErrorKind classifies LLM failures for upstream handling. These propagate
// as errors out of the engines; they are never folded into tool results.
type ErrorKind string

const (
	ErrKindAuth       ErrorKind = "auth"
	ErrKindRateLimit  ErrorKind = "rate_limit"
	ErrKindTimeout    ErrorKind = "timeout"
	ErrKindConnection ErrorKind = "connection"
	ErrKindAPI        ErrorKind = "api"
	ErrKindUnknown    ErrorKind = "unknown"
)

// LLMError is the typed failure surface of the LLM client.
type LLMError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *LLMError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm %s error (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm %s error: %s", e.Kind, e.Message)
}

func (e *LLMError) Unwrap() error { return e.Err }

// KindOf returns the error's kind, ErrKindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return llmErr.Kind
	}
	return ErrKindUnknown
}

func classifyStatus(statusCode int, message string) *LLMError {
	kind := ErrKindAPI
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		kind = ErrKindAuth
	case statusCode == http.StatusTooManyRequests:
		kind = ErrKindRateLimit
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusGatewayTimeout:
		kind = ErrKindTimeout
	}
	return &LLMError{Kind: kind, StatusCode: statusCode, Message: message}
}

func classifyTransport(err error) *LLMError {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded):
		return &LLMError{Kind: ErrKindTimeout, Message: err.Error(), Err: err}
	case isNetError(err):
		return &LLMError{Kind: ErrKindConnection, Message: err.Error(), Err: err}
	default:
		return &LLMError{Kind: ErrKindUnknown, Message: err.Error(), Err: err}
	}
}

func isNetError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
