package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/fipacademy/cronograma/internal/db"
	"github.com/fipacademy/cronograma/internal/i18n"
	"github.com/fipacademy/cronograma/internal/services"
	"github.com/gofiber/fiber/v2"
)

const testSecretKey = "0123456789abcdef0123456789abcdef"

func newTestApp(t *testing.T, scheme string) (*fiber.App, *Handler) {
	t.Helper()

	_, testFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("resolve current test file path")
	}

	apiDir := filepath.Dir(testFile)
	internalDir := filepath.Dir(apiDir)
	templatesDir := filepath.Join(internalDir, "templates")
	localesDir := filepath.Join(internalDir, "i18n", "locales")
	databasePath := filepath.Join(t.TempDir(), "cronograma-test.db")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	database, err := db.OpenSQLite(databasePath, logger)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	i18nManager, err := i18n.NewManager(i18n.LangPT, localesDir)
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	handler, err := NewHandler(Options{
		Database:         database,
		SecretKey:        testSecretKey,
		TemplatesDir:     templatesDir,
		Location:         time.UTC,
		I18n:             i18nManager,
		CredentialScheme: scheme,
		Logger:           logger,
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}
	handler.streamInterval = 10 * time.Millisecond

	app := fiber.New()
	app.Use(handler.LanguageMiddleware)
	RegisterRoutes(app, handler)
	app.Use(handler.NotFound)
	return app, handler
}

func validRegistrationPayload() map[string]string {
	return map[string]string{
		"name":           "Maria Silva",
		"email":          " Maria@Example.com ",
		"password":       "Segura123",
		"cpf":            "123.456.789-01",
		"whatsapp":       "(11) 98765-4321",
		"instagram":      "maria.trader",
		"enrollmentDate": "2024-01-01",
	}
}

func doJSON(t *testing.T, app *fiber.App, method string, path string, payload any, cookie string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		serialized, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = strings.NewReader(string(serialized))
	}

	request := httptest.NewRequest(method, path, body)
	request.Header.Set("Accept", fiber.MIMEApplicationJSON)
	if payload != nil {
		request.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	if cookie != "" {
		request.Header.Set("Cookie", cookie)
	}

	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return response
}

func doForm(t *testing.T, app *fiber.App, path string, values url.Values, cookie string) *http.Response {
	t.Helper()

	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	request.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	if cookie != "" {
		request.Header.Set("Cookie", cookie)
	}

	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return response
}

func doGet(t *testing.T, app *fiber.App, path string, cookie string) *http.Response {
	t.Helper()

	request := httptest.NewRequest(http.MethodGet, path, nil)
	request.Header.Set("Accept-Language", "pt-BR")
	if cookie != "" {
		request.Header.Set("Cookie", cookie)
	}

	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	return response
}

func decodeJSONBody(t *testing.T, response *http.Response) map[string]any {
	t.Helper()
	defer response.Body.Close()

	payload := map[string]any{}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		t.Fatalf("decode json body: %v", err)
	}
	return payload
}

func readBody(t *testing.T, response *http.Response) string {
	t.Helper()
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func registerTestEnrollment(t *testing.T, app *fiber.App, payload map[string]string) map[string]any {
	t.Helper()

	response := doJSON(t, app, http.MethodPost, "/api/cronograma", payload, "")
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 on registration, got %d: %s", response.StatusCode, readBody(t, response))
	}
	body := decodeJSONBody(t, response)
	customer, ok := body["customer"].(map[string]any)
	if !ok {
		t.Fatalf("expected customer object, got %#v", body)
	}
	return customer
}

// loginAndExtractAuthCookie signs in through the form endpoint and returns a Cookie header value.
func loginAndExtractAuthCookie(t *testing.T, app *fiber.App, scheme string, email string, secret string) string {
	t.Helper()

	values := url.Values{"email": {email}, "remember_me": {"true"}}
	if scheme == services.SchemeCPF {
		values.Set("cpf", secret)
	} else {
		values.Set("password", secret)
	}

	response := doForm(t, app, "/api/auth/login", values, "")
	defer response.Body.Close()
	if response.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected login redirect, got %d", response.StatusCode)
	}

	cookie := responseCookie(response.Cookies(), authCookieName)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected auth cookie after login")
	}
	return authCookieName + "=" + cookie.Value
}

func responseCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie != nil && cookie.Name == name {
			return cookie
		}
	}
	return nil
}
