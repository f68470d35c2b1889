package api

import (
	"github.com/fipacademy/cronograma/internal/models"
	"github.com/gofiber/fiber/v2"
)

const (
	authCookieName     = "cronograma_auth"
	languageCookieName = "cronograma_lang"
	flashCookieName    = "cronograma_flash"
	contextUserKey     = "current_enrollment"
	contextLanguageKey = "current_language"
	contextMessagesKey = "current_messages"
)

func currentEnrollment(c *fiber.Ctx) (*models.Enrollment, bool) {
	enrollment, ok := c.Locals(contextUserKey).(*models.Enrollment)
	return enrollment, ok && enrollment != nil
}
