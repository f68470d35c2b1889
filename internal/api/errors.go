package api

import (
	"errors"
	"strings"

	"github.com/fipacademy/cronograma/internal/logging"
	"github.com/fipacademy/cronograma/internal/services"
	"github.com/gofiber/fiber/v2"
)

const (
	msgInvalidInput       = "invalid input"
	msgCredentialsMissing = "credentials missing"
	msgInvalidCredentials = "invalid credentials"
	msgValidation         = "validation failed"
	msgTooManyAttempts    = "too many login attempts"
	msgTooManyRequests    = "too many requests"
	msgInternal           = "internal server error"
)

var errorKeys = map[string]string{
	msgInvalidInput:            "auth.error.invalid_input",
	msgCredentialsMissing:      "auth.error.credentials_missing",
	msgInvalidCredentials:      "auth.error.invalid_credentials",
	msgValidation:              "auth.error.validation",
	msgTooManyAttempts:         "auth.error.too_many_login_attempts",
	msgTooManyRequests:         "auth.error.too_many_requests",
	msgInternal:                "auth.error.generic",
	"email already registered": "auth.error.email_exists",
	"cpf already registered":   "auth.error.cpf_exists",
}

func errorTranslationKey(message string) string {
	return errorKeys[strings.ToLower(strings.TrimSpace(message))]
}

func translateMessage(messages map[string]string, key string) string {
	if value := strings.TrimSpace(messages[key]); value != "" {
		return value
	}
	return key
}

// serviceErrorResponse maps a service error onto the status and JSON body sent to API clients.
// Unknown errors are logged here and reported generically.
func (handler *Handler) serviceErrorResponse(c *fiber.Ctx, err error) (int, fiber.Map) {
	var validationErr *services.ValidationError
	var conflictErr *services.ConflictError

	switch {
	case errors.As(err, &validationErr):
		fields := make(map[string]string, len(validationErr.Fields))
		for _, field := range validationErr.Fields {
			fields[field.Field] = field.Error
		}
		return fiber.StatusBadRequest, fiber.Map{"error": msgValidation, "fields": fields}
	case errors.As(err, &conflictErr):
		return fiber.StatusBadRequest, fiber.Map{"error": conflictErr.Error(), "field": conflictErr.Field}
	case errors.Is(err, services.ErrLookupEmpty):
		return fiber.StatusBadRequest, fiber.Map{"error": err.Error()}
	case errors.Is(err, services.ErrCredentialsMissing):
		return fiber.StatusBadRequest, fiber.Map{"error": msgCredentialsMissing}
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, fiber.Map{"error": msgInvalidCredentials}
	default:
		handler.logger.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", requestID(c),
			logging.Err(err),
		)
		return fiber.StatusInternalServerError, fiber.Map{"error": msgInternal}
	}
}

func (handler *Handler) respondServiceError(c *fiber.Ctx, err error) error {
	status, body := handler.serviceErrorResponse(c, err)
	return c.Status(status).JSON(body)
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
