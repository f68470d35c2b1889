package api

import (
	"strings"

	"github.com/fipacademy/cronograma/internal/logging"
	"github.com/fipacademy/cronograma/internal/models"
	"github.com/gofiber/fiber/v2"
)

const dateLayoutBR = "02/01/2006"

func (handler *Handler) RedirectHome(c *fiber.Ctx) error {
	return c.Redirect("/cronograma", fiber.StatusSeeOther)
}

// ShowCronograma serves the schedule to signed-in users and the sign-in form to everyone else.
func (handler *Handler) ShowCronograma(c *fiber.Ctx) error {
	enrollment := handler.optionalAuthenticatedEnrollment(c)
	if enrollment == nil {
		return handler.renderLogin(c)
	}
	return handler.renderSchedule(c, enrollment)
}

func (handler *Handler) ShowDashboard(c *fiber.Ctx) error {
	enrollment, ok := currentEnrollment(c)
	if !ok {
		return c.Redirect("/cronograma", fiber.StatusSeeOther)
	}
	return handler.renderSchedule(c, enrollment)
}

func (handler *Handler) ShowRegister(c *fiber.Ctx) error {
	if handler.optionalAuthenticatedEnrollment(c) != nil {
		return c.Redirect("/cronograma", fiber.StatusSeeOther)
	}

	flash := handler.popFlashCookie(c)
	form := flash.RegisterForm
	if form == nil {
		form = map[string]string{}
	}
	if form["enrollmentDate"] == "" {
		form["enrollmentDate"] = handler.now().In(handler.location).Format("2006-01-02")
	}

	messages := currentMessages(c)
	return handler.render(c, "register", fiber.Map{
		"Title":       translateMessage(messages, "meta.title.register"),
		"ErrorKey":    errorTranslationKey(flash.AuthError),
		"FieldErrors": flash.FieldErrors,
		"Form":        form,
	})
}

func (handler *Handler) renderLogin(c *fiber.Ctx) error {
	flash := handler.popFlashCookie(c)
	messages := currentMessages(c)
	return handler.render(c, "login", fiber.Map{
		"Title":      translateMessage(messages, "meta.title.login"),
		"ErrorKey":   errorTranslationKey(flash.AuthError),
		"LoginEmail": flash.LoginEmail,
	})
}

func (handler *Handler) renderSchedule(c *fiber.Ctx, enrollment *models.Enrollment) error {
	messages := currentMessages(c)
	return handler.render(c, "cronograma", fiber.Map{
		"Title":          translateMessage(messages, "meta.title.cronograma"),
		"CurrentUser":    enrollment,
		"EnrollmentDate": enrollment.EnrollmentDate.In(handler.location).Format(dateLayoutBR),
		"Items":          handler.scheduleItems(enrollment, handler.now()),
	})
}

func (handler *Handler) SetLanguage(c *fiber.Ctx) error {
	handler.setLanguageCookie(c, c.Params("lang"))

	next := sanitizeRedirectPath(c.Query("next"), "/cronograma")
	if isHTMX(c) {
		c.Set("HX-Redirect", next)
		return c.SendStatus(fiber.StatusOK)
	}
	return c.Redirect(next, fiber.StatusSeeOther)
}

func (handler *Handler) Health(c *fiber.Ctx) error {
	sqlDB, err := handler.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		handler.logger.Warn("health check failed", logging.Err(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (handler *Handler) NotFound(c *fiber.Ctx) error {
	if strings.HasPrefix(c.Path(), "/api/") || wantsJSON(c) {
		return apiError(c, fiber.StatusNotFound, "not found")
	}

	messages := currentMessages(c)
	c.Status(fiber.StatusNotFound)
	return handler.render(c, "not_found", fiber.Map{
		"Title":       translateMessage(messages, "meta.title.not_found"),
		"CurrentUser": handler.optionalAuthenticatedEnrollment(c),
	})
}

func sendNoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}
