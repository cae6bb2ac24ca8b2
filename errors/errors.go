package errors

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = fmt.Errorf("unauthenticated")
	ErrUnauthorized    = fmt.Errorf("unauthorized")
	ErrNotFound        = fmt.Errorf("not found")
	ErrValidation      = fmt.Errorf("validation failed")
	ErrConflict        = fmt.Errorf("conflict")

	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)

// Code is a transport-agnostic error category, aligned with gRPC status codes
// so a transport adapter can map errors without inspecting messages.
type Code int

const (
	CodeUnknown          Code = 2
	CodeInvalidArgument  Code = 3
	CodeNotFound         Code = 5
	CodeAlreadyExists    Code = 6
	CodePermissionDenied Code = 7
	CodeAborted          Code = 10
	CodeUnauthenticated  Code = 16
)

// CodeOf resolves the taxonomy code of any error produced by this module,
// walking the wrap chain.
func CodeOf(err error) Code {
	switch {
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials):
		return CodeUnauthenticated
	case errors.Is(err, ErrUnauthorized):
		return CodePermissionDenied
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidPassword):
		return CodeInvalidArgument
	case errors.Is(err, ErrUserAlreadyExists):
		return CodeAlreadyExists
	case errors.Is(err, ErrConflict):
		return CodeAborted
	default:
		return CodeUnknown
	}
}
