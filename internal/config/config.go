// Package config loads runtime settings from the environment and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	SchemePassword = "password"
	SchemeCPF      = "cpf"

	minSecretKeyLength = 32
)

var insecureSecretKeys = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
}

type Config struct {
	Port             string `yaml:"port" env:"PORT" env-default:"8080"`
	DBPath           string `yaml:"db_path" env:"DB_PATH" env-default:"data/cronograma.db"`
	SecretKey        string `yaml:"secret_key" env:"SECRET_KEY"`
	Timezone         string `yaml:"timezone" env:"TZ" env-default:"America/Sao_Paulo"`
	DefaultLanguage  string `yaml:"default_language" env:"DEFAULT_LANGUAGE" env-default:"pt"`
	CookieSecure     bool   `yaml:"cookie_secure" env:"COOKIE_SECURE" env-default:"false"`
	CredentialScheme string `yaml:"credential_scheme" env:"CREDENTIAL_SCHEME" env-default:"password"`
	LogLevel         string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat        string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`
	TemplatesDir     string `yaml:"templates_dir" env:"TEMPLATES_DIR" env-default:"internal/templates"`
	LocalesDir       string `yaml:"locales_dir" env:"LOCALES_DIR" env-default:"internal/i18n/locales"`
	StaticDir        string `yaml:"static_dir" env:"STATIC_DIR" env-default:"web/static"`
}

// Load reads CONFIG_PATH when it is set and then overlays environment variables.
func Load() (*Config, error) {
	var cfg Config

	if configPath := strings.TrimSpace(os.Getenv("CONFIG_PATH")); configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) Validate() error {
	secret := strings.TrimSpace(cfg.SecretKey)
	if secret == "" {
		return errors.New("SECRET_KEY is required")
	}
	if _, insecure := insecureSecretKeys[strings.ToLower(secret)]; insecure {
		return errors.New("SECRET_KEY uses an insecure placeholder value")
	}
	if len(secret) < minSecretKeyLength {
		return fmt.Errorf("SECRET_KEY must be at least %d characters", minSecretKeyLength)
	}
	cfg.SecretKey = secret

	port, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid PORT %q", cfg.Port)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.CredentialScheme)) {
	case SchemePassword:
		cfg.CredentialScheme = SchemePassword
	case SchemeCPF:
		cfg.CredentialScheme = SchemeCPF
	default:
		return fmt.Errorf("invalid CREDENTIAL_SCHEME %q", cfg.CredentialScheme)
	}

	return nil
}

// Location falls back to UTC for unknown zones.
func (cfg *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(cfg.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, fmt.Errorf("invalid TZ %q: %w", name, err)
	}
	return location, nil
}
