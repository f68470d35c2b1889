package services

import (
	"errors"
	"fmt"
)

var (
	ErrCredentialsMissing = errors.New("credentials missing")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
	ErrLookupEmpty        = errors.New("email or cpf must be provided")
)

// FieldError is a validation failure bound to one input field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, fields ...FieldError) error {
	return &ValidationError{Err: err, Fields: fields}
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return ErrValidation.Error()
	}
	return err.Err.Error()
}

func (err *ValidationError) Unwrap() error {
	return err.Err
}

// ConflictError reports a registration rejected because Field is already taken.
type ConflictError struct {
	Field string
}

func (err *ConflictError) Error() string {
	return fmt.Sprintf("%s already registered", err.Field)
}
