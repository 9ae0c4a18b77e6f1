package auth

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Field string
	Msg   string
}

func (v ValidationError) Error() string { return v.Msg }

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks required fields and returns a ValidationError on failure.
func (d LoginDTO) Validate() error {
	d.Email = strings.TrimSpace(d.Email)
	return toValidationError(validate.Struct(d))
}

// Validate for refresh token DTO
func (d RefreshTokenDTO) Validate() error {
	return toValidationError(validate.Struct(d))
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return ValidationError{Msg: err.Error()}
	}

	fe := fieldErrs[0]
	field := jsonName(fe.Field())
	switch fe.Tag() {
	case "required":
		return ValidationError{Field: field, Msg: field + " is required"}
	case "email":
		return ValidationError{Field: field, Msg: field + " must be a valid email address"}
	default:
		return ValidationError{Field: field, Msg: field + " is invalid"}
	}
}

func jsonName(field string) string {
	switch field {
	case "RefreshToken":
		return "refresh_token"
	default:
		return strings.ToLower(field)
	}
}
