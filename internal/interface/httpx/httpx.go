// Package httpx holds the response and binding helpers shared by the local
// app API handlers.
package httpx

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/prasad-ordering/internal/apiclient"
	"github.com/wichananm65/prasad-ordering/internal/session"
	"github.com/wichananm65/prasad-ordering/internal/tasks"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidationError carries per-field messages for a rejected payload.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, m := range e.Fields {
		parts = append(parts, f+": "+m)
	}
	return "invalid payload: " + strings.Join(parts, ", ")
}

// Bind parses the JSON body into v and validates its struct tags.
func Bind(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return &ValidationError{Fields: map[string]string{"body": err.Error()}}
	}
	return Validate(v)
}

func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	fields := make(map[string]string, len(ves))
	for _, fe := range ves {
		fields[fe.Field()] = describe(fe)
	}
	return &ValidationError{Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}

// Message writes {"message": msg} with the given status.
func Message(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg})
}

// Fail maps errors that every handler can meet to a response. Handlers map
// their own sentinels first and fall through to Fail.
func Fail(c *fiber.Ctx, err error) error {
	var ve *ValidationError
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload", "errors": ve.Fields})
	case errors.Is(err, session.ErrMissingSession):
		return Message(c, fiber.StatusUnauthorized, "unauthorized")
	case errors.Is(err, tasks.ErrSuperseded), errors.Is(err, context.Canceled):
		return Message(c, fiber.StatusConflict, "superseded by a newer request")
	case errors.As(err, &apiErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": apiclient.UserMessage(err, "Something went wrong. Please try again."),
			"code":    apiErr.Code,
			"error":   apiErr.Err,
		})
	default:
		return Message(c, fiber.StatusInternalServerError, err.Error())
	}
}
