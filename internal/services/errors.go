package services

import (
	"errors"

	"github.com/paperlords/admin-service/internal/validator"
)

var (
	ErrPaperNotFound      = errors.New("paper not found")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrConflict           = errors.New("admin with this email or username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("access denied")
	ErrInvalidImportFile  = errors.New("invalid import file")
)

// Field-level validation failures share the validator's types
type ValidationError = validator.ValidationError
type ValidationErrors = validator.ValidationErrors

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// IsValidationError reports whether err describes invalid input
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}
