package api

import (
	"errors"
	"strings"

	"github.com/fipacademy/cronograma/internal/metrics"
	"github.com/fipacademy/cronograma/internal/models"
	"github.com/fipacademy/cronograma/internal/services"
	"github.com/gofiber/fiber/v2"
)

var errTooManyAttempts = errors.New(msgTooManyAttempts)

type credentialsInput struct {
	Email      string `json:"email" form:"email"`
	CPF        string `json:"cpf" form:"cpf"`
	Password   string `json:"password" form:"password"`
	RememberMe bool   `json:"remember_me" form:"remember_me"`
}

func (handler *Handler) secretFrom(input credentialsInput) string {
	if handler.scheme == services.SchemeCPF {
		return input.CPF
	}
	return input.Password
}

// checkCredentials runs the verifier behind the per-client failure limiter.
func (handler *Handler) checkCredentials(c *fiber.Ctx, input credentialsInput) (models.Enrollment, error) {
	key := requestLimiterKey(c)
	if handler.loginLimiter.blocked(key, handler.now()) {
		handler.metrics.Login(metrics.OutcomeThrottled)
		return models.Enrollment{}, errTooManyAttempts
	}

	enrollment, err := handler.verifier.Verify(c.UserContext(), input.Email, handler.secretFrom(input))
	switch {
	case err == nil:
		handler.loginLimiter.reset(key)
		handler.metrics.Login(metrics.OutcomeSuccess)
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrCredentialsMissing):
		handler.loginLimiter.recordFailure(key, handler.now())
		handler.metrics.Login(metrics.OutcomeInvalid)
	default:
		handler.metrics.Login(metrics.OutcomeError)
	}
	return enrollment, err
}

// VerifyCredentials checks credentials without opening a session.
func (handler *Handler) VerifyCredentials(c *fiber.Ctx) error {
	var input credentialsInput
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, msgInvalidInput)
	}

	enrollment, err := handler.checkCredentials(c, input)
	if errors.Is(err, errTooManyAttempts) {
		return apiError(c, fiber.StatusTooManyRequests, msgTooManyAttempts)
	}
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": enrollment.Public(handler.exposeCPF())})
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	var input credentialsInput
	if err := c.BodyParser(&input); err != nil {
		return handler.respondAuthError(c, fiber.StatusBadRequest, msgInvalidInput)
	}

	enrollment, err := handler.checkCredentials(c, input)
	if errors.Is(err, errTooManyAttempts) {
		return handler.respondAuthError(c, fiber.StatusTooManyRequests, msgTooManyAttempts)
	}
	if err != nil {
		status, body := handler.serviceErrorResponse(c, err)
		message, _ := body["error"].(string)
		return handler.respondAuthError(c, status, message)
	}

	if err := handler.setAuthCookie(c, &enrollment, input.RememberMe); err != nil {
		return handler.respondServiceError(c, err)
	}
	return redirectOrJSON(c, "/cronograma")
}

func (handler *Handler) Logout(c *fiber.Ctx) error {
	handler.clearAuthCookie(c)
	return redirectOrJSON(c, "/cronograma")
}

// respondAuthError sends form posts back to the sign-in page with a flash message.
func (handler *Handler) respondAuthError(c *fiber.Ctx, status int, message string) error {
	if wantsJSON(c) || isHTMX(c) {
		return apiError(c, status, message)
	}
	handler.setFlashCookie(c, FlashPayload{
		AuthError:  message,
		LoginEmail: strings.TrimSpace(c.FormValue("email")),
	})
	return c.Redirect("/cronograma", fiber.StatusSeeOther)
}
