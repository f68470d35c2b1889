package api

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// FlashPayload survives exactly one redirect so a form page can show what went wrong.
type FlashPayload struct {
	AuthError    string            `json:"auth_error,omitempty"`
	LoginEmail   string            `json:"login_email,omitempty"`
	FieldErrors  map[string]string `json:"field_errors,omitempty"`
	RegisterForm map[string]string `json:"register_form,omitempty"`
}

func (payload FlashPayload) empty() bool {
	return payload.AuthError == "" && payload.LoginEmail == "" &&
		len(payload.FieldErrors) == 0 && len(payload.RegisterForm) == 0
}

func (handler *Handler) setFlashCookie(c *fiber.Ctx, payload FlashPayload) {
	payload.AuthError = strings.TrimSpace(payload.AuthError)
	payload.LoginEmail = strings.ToLower(strings.TrimSpace(payload.LoginEmail))
	if payload.empty() {
		handler.clearFlashCookie(c)
		return
	}

	serialized, err := json.Marshal(payload)
	if err != nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(serialized),
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  handler.now().Add(5 * time.Minute),
	})
}

func (handler *Handler) popFlashCookie(c *fiber.Ctx) FlashPayload {
	raw := strings.TrimSpace(c.Cookies(flashCookieName))
	if raw == "" {
		return FlashPayload{}
	}
	handler.clearFlashCookie(c)

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return FlashPayload{}
	}
	var payload FlashPayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return FlashPayload{}
	}
	return payload
}

func (handler *Handler) clearFlashCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  handler.now().Add(-time.Hour),
	})
}
