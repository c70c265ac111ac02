package models

import (
	"fmt"
	"net/http"
)

var (
	ErrNotFound = fmt.Errorf("record not found")
)

type ErrorKind string

const (
	InvalidRequest       ErrorKind = "InvalidRequest"
	UserNotFound         ErrorKind = "UserNotFound"
	SymbolNotFound       ErrorKind = "SymbolNotFound"
	PriceUnavailable     ErrorKind = "PriceUnavailable"
	InsufficientFunds    ErrorKind = "InsufficientFunds"
	InsufficientHoldings ErrorKind = "InsufficientHoldings"
	InternalError        ErrorKind = "InternalError"
)

// Sentinels for errors.Is. They match any TradeError of the same kind.
var (
	ErrInvalidRequest       = &TradeError{Kind: InvalidRequest}
	ErrUserNotFound         = &TradeError{Kind: UserNotFound}
	ErrSymbolNotFound       = &TradeError{Kind: SymbolNotFound}
	ErrPriceUnavailable     = &TradeError{Kind: PriceUnavailable}
	ErrInsufficientFunds    = &TradeError{Kind: InsufficientFunds}
	ErrInsufficientHoldings = &TradeError{Kind: InsufficientHoldings}
	ErrInternal             = &TradeError{Kind: InternalError}
)

type TradeError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *TradeError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *TradeError) Unwrap() error {
	return e.Cause
}

func (e *TradeError) Is(target error) bool {
	t, ok := target.(*TradeError)
	if !ok {
		return false
	}

	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func (e *TradeError) StatusCode() int {
	switch e.Kind {
	case InvalidRequest:
		return http.StatusBadRequest
	case UserNotFound, SymbolNotFound:
		return http.StatusNotFound
	case PriceUnavailable:
		return http.StatusServiceUnavailable
	case InsufficientFunds, InsufficientHoldings:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func NewTradeError(kind ErrorKind, format string, args ...interface{}) *TradeError {
	return &TradeError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewInternalError hides the cause from the message; callers log it.
func NewInternalError(cause error) *TradeError {
	return &TradeError{
		Kind:    InternalError,
		Message: "internal error",
		Cause:   cause,
	}
}
