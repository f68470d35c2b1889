package api

import (
	"errors"

	"github.com/fipacademy/cronograma/internal/metrics"
	"github.com/fipacademy/cronograma/internal/services"
	"github.com/gofiber/fiber/v2"
)

// Register creates an enrollment. API clients get 201 with the public record;
// form posts are signed in and sent to the schedule.
func (handler *Handler) Register(c *fiber.Ctx) error {
	var input services.RegistrationInput
	if err := c.BodyParser(&input); err != nil {
		handler.metrics.Registration(metrics.OutcomeInvalid)
		if wantsJSON(c) {
			return apiError(c, fiber.StatusBadRequest, msgInvalidInput)
		}
		return handler.redirectRegistrationError(c, input, fiber.Map{"error": msgInvalidInput})
	}

	enrollment, err := handler.enrollments.Register(c.UserContext(), input)
	if err != nil {
		handler.metrics.Registration(registrationOutcome(err))
		status, body := handler.serviceErrorResponse(c, err)
		if wantsJSON(c) {
			return c.Status(status).JSON(body)
		}
		return handler.redirectRegistrationError(c, input, body)
	}

	handler.metrics.Registration(metrics.OutcomeSuccess)
	handler.logger.Info("enrollment registered", "enrollment_id", enrollment.ID, "request_id", requestID(c))

	if wantsJSON(c) {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":  true,
			"customer": enrollment.Public(handler.exposeCPF()),
		})
	}
	if err := handler.setAuthCookie(c, &enrollment, true); err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Redirect("/cronograma", fiber.StatusSeeOther)
}

func (handler *Handler) redirectRegistrationError(c *fiber.Ctx, input services.RegistrationInput, body fiber.Map) error {
	flash := FlashPayload{
		RegisterForm: map[string]string{
			"name":           input.Name,
			"email":          input.Email,
			"whatsapp":       input.Whatsapp,
			"instagram":      input.Instagram,
			"enrollmentDate": input.EnrollmentDate,
		},
	}
	if message, ok := body["error"].(string); ok {
		flash.AuthError = message
	}
	if fields, ok := body["fields"].(map[string]string); ok {
		flash.FieldErrors = fields
	}
	handler.setFlashCookie(c, flash)
	return c.Redirect("/cronograma/registro", fiber.StatusSeeOther)
}

// CheckExists answers whether an email or cpf is already registered, naming the matching field.
func (handler *Handler) CheckExists(c *fiber.Ctx) error {
	result, err := handler.enrollments.Exists(c.UserContext(), c.Query("email"), c.Query("cpf"))
	if err != nil {
		return handler.respondServiceError(c, err)
	}

	var field any
	if result.Exists {
		field = result.Field
	}
	return c.JSON(fiber.Map{"exists": result.Exists, "field": field})
}

func registrationOutcome(err error) string {
	var validationErr *services.ValidationError
	var conflictErr *services.ConflictError
	switch {
	case errors.As(err, &validationErr):
		return metrics.OutcomeInvalid
	case errors.As(err, &conflictErr):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}
