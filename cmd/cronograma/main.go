package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fipacademy/cronograma/internal/api"
	"github.com/fipacademy/cronograma/internal/cli"
	"github.com/fipacademy/cronograma/internal/config"
	"github.com/fipacademy/cronograma/internal/db"
	"github.com/fipacademy/cronograma/internal/i18n"
	"github.com/fipacademy/cronograma/internal/logging"
	"github.com/fipacademy/cronograma/internal/metrics"
	"github.com/fipacademy/cronograma/internal/security"
	"github.com/fipacademy/cronograma/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	shutdownTimeout = 10 * time.Second
	accessLogFormat = "${time} | ${locals:requestid} | ${status} | ${latency} | ${method} ${path}\n"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 && args[0] == "gen-secret" {
		secret, err := security.NewSecretKey()
		if err != nil {
			return fmt.Errorf("generate secret: %w", err)
		}
		fmt.Println(secret)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	location, err := cfg.Location()
	if err != nil {
		logger.Warn("falling back to UTC", logging.Err(err))
	}

	database, err := db.OpenSQLite(cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	defer closeDatabase(database, logger)

	if len(args) == 0 || args[0] == "serve" {
		return serve(cfg, database, location, logger)
	}
	switch args[0] {
	case "reset-password":
		return runResetPassword(args[1:], cfg, database, location)
	default:
		return fmt.Errorf("unknown command %q (expected serve, reset-password or gen-secret)", args[0])
	}
}

func runResetPassword(args []string, cfg *config.Config, database *gorm.DB, location *time.Location) error {
	flags := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	generate := flags.Bool("generate", false, "generate a temporary password instead of prompting")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("usage: cronograma reset-password [--generate] <email>")
	}

	repositories := db.NewRepositories(database)
	enrollments := services.NewEnrollmentService(repositories.Enrollments, cfg.CredentialScheme, location)
	return cli.RunResetPasswordCommand(context.Background(), enrollments, cli.ResetOptions{
		Email:    flags.Arg(0),
		Scheme:   cfg.CredentialScheme,
		Generate: *generate,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
	})
}

func serve(cfg *config.Config, database *gorm.DB, location *time.Location, logger *slog.Logger) error {
	i18nManager, err := i18n.NewManager(cfg.DefaultLanguage, cfg.LocalesDir)
	if err != nil {
		return fmt.Errorf("i18n init failed: %w", err)
	}

	handler, err := api.NewHandler(api.Options{
		Database:         database,
		SecretKey:        cfg.SecretKey,
		TemplatesDir:     cfg.TemplatesDir,
		Location:         location,
		I18n:             i18nManager,
		CookieSecure:     cfg.CookieSecure,
		CredentialScheme: cfg.CredentialScheme,
		Logger:           logger,
		Metrics:          metrics.New(),
	})
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}

	app := newApp(handler, cfg, os.Stdout)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", logging.Err(err))
		}
	}()

	logger.Info("cronograma listening",
		"port", cfg.Port,
		"db", cfg.DBPath,
		"tz", location.String(),
		"credential_scheme", cfg.CredentialScheme,
	)
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	logger.Info("cronograma stopped")
	return nil
}

func newApp(handler *api.Handler, cfg *config.Config, accessLog io.Writer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Cronograma",
		DisableStartupMessage: true,
		IdleTimeout:           time.Minute,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(fiberlogger.New(fiberlogger.Config{Format: accessLogFormat, Output: accessLog}))
	app.Use(compress.New(compress.Config{Next: skipCompression}))
	app.Use(handler.LanguageMiddleware)
	app.Use(csrf.New(csrfMiddlewareConfig(cfg.CookieSecure)))

	app.Static("/static", cfg.StaticDir)
	api.RegisterRoutes(app, handler)
	app.Use(handler.NotFound)
	return app
}

// skipCompression keeps the event stream unbuffered.
func skipCompression(c *fiber.Ctx) bool {
	return strings.HasSuffix(c.Path(), "/countdown")
}

func csrfMiddlewareConfig(cookieSecure bool) csrf.Config {
	return csrf.Config{
		Next:           skipCSRF,
		KeyLookup:      "form:csrf_token",
		CookieName:     "cronograma_csrf",
		CookieSameSite: "Lax",
		CookieHTTPOnly: true,
		CookieSecure:   cookieSecure,
		ContextKey:     "csrf",
	}
}

// skipCSRF exempts JSON API calls. Browsers cannot send application/json cross-site without a CORS preflight.
func skipCSRF(c *fiber.Ctx) bool {
	contentType := strings.ToLower(c.Get(fiber.HeaderContentType))
	return strings.HasPrefix(contentType, fiber.MIMEApplicationJSON)
}

func closeDatabase(database *gorm.DB, logger *slog.Logger) {
	sqlDB, err := database.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("close database", logging.Err(err))
	}
}
