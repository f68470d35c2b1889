package api

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/fipacademy/cronograma/internal/services"
)

func TestVerifyCredentialsPasswordScheme(t *testing.T) {
	app, _ := newTestApp(t, services.SchemePassword)
	registerTestEnrollment(t, app, validRegistrationPayload())

	tests := []struct {
		name    string
		payload map[string]string
		status  int
		message string
	}{
		{name: "valid", payload: map[string]string{"email": "MARIA@example.com ", "password": "Segura123"}, status: http.StatusOK},
		{name: "wrong password", payload: map[string]string{"email": "maria@example.com", "password": "Errada123"}, status: http.StatusUnauthorized, message: msgInvalidCredentials},
		{name: "unknown email", payload: map[string]string{"email": "ghost@example.com", "password": "Segura123"}, status: http.StatusUnauthorized, message: msgInvalidCredentials},
		{name: "missing password", payload: map[string]string{"email": "maria@example.com"}, status: http.StatusBadRequest, message: msgCredentialsMissing},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			response := doJSON(t, app, http.MethodPost, "/api/cronograma/auth", tc.payload, "")
			if response.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, response.StatusCode)
			}
			body := decodeJSONBody(t, response)
			if tc.message != "" {
				if body["error"] != tc.message {
					t.Fatalf("expected error %q, got %#v", tc.message, body)
				}
				return
			}
			user, ok := body["user"].(map[string]any)
			if !ok {
				t.Fatalf("expected user in body, got %#v", body)
			}
			if user["email"] != "maria@example.com" {
				t.Fatalf("unexpected user email %v", user["email"])
			}
		})
	}
}

func TestVerifyCredentialsCPFScheme(t *testing.T) {
	app, _ := newTestApp(t, services.SchemeCPF)
	payload := validRegistrationPayload()
	delete(payload, "password")
	registerTestEnrollment(t, app, payload)

	response := doJSON(t, app, http.MethodPost, "/api/cronograma/auth", map[string]string{
		"email": "maria@example.com",
		"cpf":   "12345678901",
	}, "")
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.StatusCode)
	}
	user := decodeJSONBody(t, response)["user"].(map[string]any)
	if _, ok := user["cpf"]; ok {
		t.Fatal("cpf must not be echoed when it is the login secret")
	}

	response = doJSON(t, app, http.MethodPost, "/api/cronograma/auth", map[string]string{
		"email": "maria@example.com",
		"cpf":   "123.456.78",
	}, "")
	defer response.Body.Close()
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a short cpf, got %d", response.StatusCode)
	}
}

func TestVerifyCredentialsThrottlesRepeatedFailures(t *testing.T) {
	app, _ := newTestApp(t, services.SchemePassword)
	registerTestEnrollment(t, app, validRegistrationPayload())

	wrong := map[string]string{"email": "maria@example.com", "password": "Errada123"}
	for attempt := 0; attempt < loginAttemptLimit; attempt++ {
		response := doJSON(t, app, http.MethodPost, "/api/cronograma/auth", wrong, "")
		response.Body.Close()
		if response.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", attempt+1, response.StatusCode)
		}
	}

	right := map[string]string{"email": "maria@example.com", "password": "Segura123"}
	response := doJSON(t, app, http.MethodPost, "/api/cronograma/auth", right, "")
	body := decodeJSONBody(t, response)
	if response.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the limit is reached, got %d", response.StatusCode)
	}
	if body["error"] != msgTooManyAttempts {
		t.Fatalf("unexpected throttle message %#v", body["error"])
	}
}

func TestLoginSetsSessionAndRendersSchedule(t *testing.T) {
	app, _ := newTestApp(t, services.SchemePassword)
	registerTestEnrollment(t, app, validRegistrationPayload())

	authCookie := loginAndExtractAuthCookie(t, app, services.SchemePassword, "maria@example.com", "Segura123")

	response := doGet(t, app, "/cronograma", authCookie)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.StatusCode)
	}
	rendered := readBody(t, response)
	for _, fragment := range []string{"CRONOGRAMA FIP", "01/01/2024", `data-key="black-book"`, "Liberado em"} {
		if !strings.Contains(rendered, fragment) {
			t.Fatalf("expected schedule page to contain %q", fragment)
		}
	}
	if !strings.Contains(rendered, `action="/api/auth/logout"`) {
		t.Fatal("expected logout form on the schedule page")
	}
}

func TestLoginJSONReturnsOK(t *testing.T) {
	app, _ := newTestApp(t, services.SchemePassword)
	registerTestEnrollment(t, app, validRegistrationPayload())

	response := doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "maria@example.com",
		"password": "Segura123",
	}, "")
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.StatusCode)
	}
	if cookie := responseCookie(response.Cookies(), authCookieName); cookie == nil {
		t.Fatal("expected auth cookie")
	}
	if body := decodeJSONBody(t, response); body["ok"] != true {
		t.Fatalf("expected ok=true, got %#v", body)
	}
}

func TestLoginFormFailureRedirectsWithFlash(t *testing.T) {
	app, _ := newTestApp(t, services.SchemePassword)
	registerTestEnrollment(t, app, validRegistrationPayload())

	response := doForm(t, app, "/api/auth/login", url.Values{
		"email":    {"Maria@Example.com"},
		"password": {"Errada123"},
	}, "")
	defer response.Body.Close()

	if response.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", response.StatusCode)
	}
	flashCookie := responseCookie(response.Cookies(), flashCookieName)
	if flashCookie == nil {
		t.Fatal("expected flash cookie")
	}

	page := doGet(t, app, "/cronograma", flashCookieName+"="+flashCookie.Value)
	rendered := readBody(t, page)
	if !strings.Contains(rendered, "Email ou credencial inválidos") {
		t.Fatal("expected translated credential error on the sign-in page")
	}
	if !strings.Contains(rendered, `value="maria@example.com"`) {
		t.Fatal("expected email to be kept in the sign-in form")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	app, _ := newTestApp(t, services.SchemePassword)
	registerTestEnrollment(t, app, validRegistrationPayload())
	authCookie := loginAndExtractAuthCookie(t, app, services.SchemePassword, "maria@example.com", "Segura123")

	response := doJSON(t, app, http.MethodPost, "/api/auth/logout", nil, authCookie)
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.StatusCode)
	}
	cleared := responseCookie(response.Cookies(), authCookieName)
	if cleared == nil || cleared.Value != "" {
		t.Fatalf("expected auth cookie to be cleared, got %#v", cleared)
	}

	anonymous := doJSON(t, app, http.MethodPost, "/api/auth/logout", nil, "")
	defer anonymous.Body.Close()
	if anonymous.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", anonymous.StatusCode)
	}
}

func TestTamperedAuthCookieIsRejected(t *testing.T) {
	app, _ := newTestApp(t, services.SchemePassword)
	registerTestEnrollment(t, app, validRegistrationPayload())
	authCookie := loginAndExtractAuthCookie(t, app, services.SchemePassword, "maria@example.com", "Segura123")

	tampered := authCookie[:len(authCookie)-2] + "xx"
	response := doJSON(t, app, http.MethodGet, "/api/cronograma/protected/schedule", nil, tampered)
	defer response.Body.Close()
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a tampered cookie, got %d", response.StatusCode)
	}
}
