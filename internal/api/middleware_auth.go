package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fipacademy/cronograma/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const authCookiePurpose = "auth"

var errUnauthenticated = errors.New("unauthenticated")

// authClaims is the session payload: who is signed in and when they enrolled.
type authClaims struct {
	EnrollmentID   uint   `json:"uid"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	EnrollmentDate int64  `json:"enrollment"`
	jwt.RegisteredClaims
}

func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	enrollment, err := handler.authenticateRequest(c)
	if err != nil {
		if strings.HasPrefix(c.Path(), "/api/") {
			return apiError(c, fiber.StatusUnauthorized, "unauthorized")
		}
		return c.Redirect("/cronograma", fiber.StatusSeeOther)
	}

	c.Locals(contextUserKey, enrollment)
	return c.Next()
}

func (handler *Handler) optionalAuthenticatedEnrollment(c *fiber.Ctx) *models.Enrollment {
	if enrollment, ok := currentEnrollment(c); ok {
		return enrollment
	}
	enrollment, err := handler.authenticateRequest(c)
	if err != nil {
		return nil
	}
	c.Locals(contextUserKey, enrollment)
	return enrollment
}

func (handler *Handler) authenticateRequest(c *fiber.Ctx) (*models.Enrollment, error) {
	sealed := strings.TrimSpace(c.Cookies(authCookieName))
	if sealed == "" {
		return nil, errUnauthenticated
	}
	rawToken, err := handler.cookies.open(authCookiePurpose, sealed)
	if err != nil {
		return nil, errUnauthenticated
	}

	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(string(rawToken), claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return handler.secretKey, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, errUnauthenticated
	}

	enrollment, err := handler.enrollments.FindByID(c.UserContext(), claims.EnrollmentID)
	if err != nil {
		return nil, errUnauthenticated
	}
	return &enrollment, nil
}

func (handler *Handler) setAuthCookie(c *fiber.Ctx, enrollment *models.Enrollment, rememberMe bool) error {
	ttl := defaultAuthTokenTTL
	if rememberMe {
		ttl = rememberAuthTokenTTL
	}

	token, err := handler.buildToken(enrollment, ttl)
	if err != nil {
		return err
	}
	sealed, err := handler.cookies.seal(authCookiePurpose, []byte(token))
	if err != nil {
		return err
	}

	cookie := &fiber.Cookie{
		Name:     authCookieName,
		Value:    sealed,
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
	}
	if rememberMe {
		cookie.Expires = handler.now().Add(ttl)
	}
	c.Cookie(cookie)
	return nil
}

func (handler *Handler) clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  handler.now().Add(-time.Hour),
	})
}

func (handler *Handler) buildToken(enrollment *models.Enrollment, ttl time.Duration) (string, error) {
	now := handler.now()
	claims := authClaims{
		EnrollmentID:   enrollment.ID,
		Name:           enrollment.Name,
		Email:          enrollment.Email,
		EnrollmentDate: enrollment.EnrollmentDate.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(enrollment.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(handler.secretKey)
}
