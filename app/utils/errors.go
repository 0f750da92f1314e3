package utils

import (
	"database/sql"
	"encoding/json"

	"campus-management/app/database"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnauthorized = fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
	ErrForbidden    = fiber.NewError(fiber.StatusForbidden, "You do not have permission to perform this action")
	ErrInvalidBody  = fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a rule violation detected by handler code rather than struct tags.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid builds a single-field ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Message: "Validation failed", Fields: []FieldError{{Field: field, Error: message}}}
}

func BadRequest(message string) error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}

func NotFound(message string) error {
	return fiber.NewError(fiber.StatusNotFound, message)
}

func Conflict(message string) error {
	return fiber.NewError(fiber.StatusConflict, message)
}

// NewErrorHandler maps handler errors onto the response envelope.
func NewErrorHandler(development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			code    = fiber.StatusInternalServerError
			message = "Internal server error"
			fields  interface{}
		)

		cause := errors.Cause(err)
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError

		switch e := cause.(type) {
		case validator.ValidationErrors:
			code = fiber.StatusBadRequest
			message = "Validation failed"
			fields = translateFieldErrors(e)
		case *ValidationError:
			code = fiber.StatusBadRequest
			message = e.Message
			if len(e.Fields) > 0 {
				m := make(map[string]string, len(e.Fields))
				for _, f := range e.Fields {
					m[f.Field] = f.Error
				}
				fields = m
			}
		case *fiber.Error:
			code = e.Code
			message = e.Message
		default:
			switch {
			case errors.As(cause, &syntaxErr), errors.As(cause, &typeErr):
				code = fiber.StatusBadRequest
				message = "Invalid request body"
			case cause == sql.ErrNoRows:
				code = fiber.StatusNotFound
				message = "Record not found"
			case database.IsUniqueViolation(cause):
				code = fiber.StatusBadRequest
				message = "A record with the same details already exists"
			case database.IsInvalidInput(cause):
				code = fiber.StatusBadRequest
				message = "Invalid value in request"
			case database.IsForeignKeyViolation(cause):
				code = fiber.StatusBadRequest
				message = "Referenced record does not exist or is still in use"
			}
		}

		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Interface("request_id", c.Locals("requestid")).
				Msg("request failed")
			if development {
				fields = err.Error()
			}
		}

		return Failure(c, code, message, fields)
	}
}

func translateFieldErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fieldPath(fe)] = fe.Translate(Translator)
	}
	return out
}

// fieldPath drops the root struct name from the namespace: CreateRequest.items[0].amount -> items[0].amount.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	for i := 0; i < len(ns); i++ {
		if ns[i] == '.' {
			return ns[i+1:]
		}
	}
	return fe.Field()
}
