package api

import (
	"github.com/gofiber/fiber/v2"
)

// LanguageMiddleware resolves the page language from ?lang, then the cookie, then Accept-Language.
func (handler *Handler) LanguageMiddleware(c *fiber.Ctx) error {
	stored := c.Cookies(languageCookieName)

	var language string
	switch {
	case c.Query("lang") != "":
		language = handler.i18n.NormalizeLanguage(c.Query("lang"))
	case stored != "":
		language = handler.i18n.NormalizeLanguage(stored)
	default:
		language = handler.i18n.DetectFromAcceptLanguage(c.Get("Accept-Language"))
	}
	if stored != language {
		handler.setLanguageCookie(c, language)
	}

	c.Locals(contextLanguageKey, language)
	c.Locals(contextMessagesKey, handler.i18n.Messages(language))
	return c.Next()
}

func (handler *Handler) setLanguageCookie(c *fiber.Ctx, language string) {
	c.Cookie(&fiber.Cookie{
		Name:     languageCookieName,
		Value:    handler.i18n.NormalizeLanguage(language),
		Path:     "/",
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  handler.now().AddDate(1, 0, 0),
	})
}

func currentLanguage(c *fiber.Ctx) string {
	language, _ := c.Locals(contextLanguageKey).(string)
	return language
}

func currentMessages(c *fiber.Ctx) map[string]string {
	messages, ok := c.Locals(contextMessagesKey).(map[string]string)
	if !ok || messages == nil {
		return map[string]string{}
	}
	return messages
}
