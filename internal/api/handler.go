package api

import (
	"errors"
	"html/template"
	"log/slog"
	"time"

	"github.com/fipacademy/cronograma/internal/db"
	"github.com/fipacademy/cronograma/internal/i18n"
	"github.com/fipacademy/cronograma/internal/metrics"
	"github.com/fipacademy/cronograma/internal/services"
	"gorm.io/gorm"
)

const (
	defaultAuthTokenTTL  = 7 * 24 * time.Hour
	rememberAuthTokenTTL = 30 * 24 * time.Hour

	loginAttemptLimit  = 8
	loginAttemptWindow = 15 * time.Minute

	maxStreamDuration = time.Hour
)

type Handler struct {
	db                  *gorm.DB
	enrollments         *services.EnrollmentService
	verifier            *services.CredentialVerifier
	scheme              string
	secretKey           []byte
	cookies             *secureCookieCodec
	location            *time.Location
	cookieSecure        bool
	i18n                *i18n.Manager
	templates           map[string]*template.Template
	loginLimiter        *attemptLimiter
	registrationLimiter *clientRateLimiter
	logger              *slog.Logger
	metrics             *metrics.Metrics
	streamInterval      time.Duration
	now                 func() time.Time
}

type Options struct {
	Database         *gorm.DB
	SecretKey        string
	TemplatesDir     string
	Location         *time.Location
	I18n             *i18n.Manager
	CookieSecure     bool
	CredentialScheme string
	Logger           *slog.Logger
	Metrics          *metrics.Metrics
}

func NewHandler(options Options) (*Handler, error) {
	if options.Database == nil {
		return nil, errors.New("database is required")
	}
	if options.I18n == nil {
		return nil, errors.New("i18n manager is required")
	}
	location := options.Location
	if location == nil {
		location = time.UTC
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cookies, err := newSecureCookieCodec([]byte(options.SecretKey))
	if err != nil {
		return nil, err
	}
	templates, err := parsePageTemplates(options.TemplatesDir, newTemplateFuncMap(), pageTemplates)
	if err != nil {
		return nil, err
	}

	repositories := db.NewRepositories(options.Database)
	enrollments := services.NewEnrollmentService(repositories.Enrollments, options.CredentialScheme, location)
	verifier := services.NewCredentialVerifier(repositories.Enrollments, options.CredentialScheme)

	return &Handler{
		db:                  options.Database,
		enrollments:         enrollments,
		verifier:            verifier,
		scheme:              verifier.Scheme(),
		secretKey:           []byte(options.SecretKey),
		cookies:             cookies,
		location:            location,
		cookieSecure:        options.CookieSecure,
		i18n:                options.I18n,
		templates:           templates,
		loginLimiter:        newAttemptLimiter(),
		registrationLimiter: newClientRateLimiter(registrationRate, registrationBurst),
		logger:              logger,
		metrics:             options.Metrics,
		streamInterval:      time.Second,
		now:                 time.Now,
	}, nil
}

// exposeCPF reports whether public projections may carry the CPF.
// Under the cpf scheme the CPF is the login secret.
func (handler *Handler) exposeCPF() bool {
	return handler.scheme != services.SchemeCPF
}
