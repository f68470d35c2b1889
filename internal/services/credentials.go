package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/fipacademy/cronograma/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	SchemePassword = "password"
	SchemeCPF      = "cpf"

	cpfLength = 11
)

// NormalizeEmail lower-cases and trims raw. It returns "" when the result is not an address.
func NormalizeEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ""
	}
	return email
}

func digitsOnly(raw string) string {
	var builder strings.Builder
	builder.Grow(len(raw))
	for _, char := range raw {
		if char >= '0' && char <= '9' {
			builder.WriteRune(char)
		}
	}
	return builder.String()
}

// NormalizeCPF strips every non-digit. Applying it twice gives the same result.
func NormalizeCPF(raw string) string {
	return digitsOnly(raw)
}

func ValidCPF(normalized string) bool {
	return len(normalized) == cpfLength && digitsOnly(normalized) == normalized
}

func NormalizeWhatsapp(raw string) string {
	return digitsOnly(raw)
}

// NormalizeInstagram returns nil for an empty handle and otherwise prefixes a single "@".
func NormalizeInstagram(raw string) *string {
	handle := strings.TrimLeft(strings.TrimSpace(raw), "@")
	if handle == "" {
		return nil
	}
	handle = "@" + handle
	return &handle
}

type CredentialRepository interface {
	FindByEmail(ctx context.Context, email string) (models.Enrollment, error)
	FindByEmailAndCPF(ctx context.Context, email string, cpf string) (models.Enrollment, error)
}

// CredentialVerifier checks an email plus the secondary factor of the configured scheme.
type CredentialVerifier struct {
	enrollments CredentialRepository
	scheme      string
}

func NewCredentialVerifier(enrollments CredentialRepository, scheme string) *CredentialVerifier {
	if scheme != SchemeCPF {
		scheme = SchemePassword
	}
	return &CredentialVerifier{enrollments: enrollments, scheme: scheme}
}

func (verifier *CredentialVerifier) Scheme() string {
	return verifier.scheme
}

// Verify never tells the caller which of the two fields did not match.
func (verifier *CredentialVerifier) Verify(ctx context.Context, emailRaw string, secret string) (models.Enrollment, error) {
	if strings.TrimSpace(emailRaw) == "" || strings.TrimSpace(secret) == "" {
		return models.Enrollment{}, ErrCredentialsMissing
	}
	email := NormalizeEmail(emailRaw)
	if email == "" {
		return models.Enrollment{}, ErrInvalidCredentials
	}

	if verifier.scheme == SchemeCPF {
		return verifier.verifyCPF(ctx, email, secret)
	}
	return verifier.verifyPassword(ctx, email, secret)
}

func (verifier *CredentialVerifier) verifyCPF(ctx context.Context, email string, rawCPF string) (models.Enrollment, error) {
	cpf := NormalizeCPF(rawCPF)
	if !ValidCPF(cpf) {
		return models.Enrollment{}, ErrInvalidCredentials
	}

	enrollment, err := verifier.enrollments.FindByEmailAndCPF(ctx, email, cpf)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Enrollment{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Enrollment{}, fmt.Errorf("find enrollment by email and cpf: %w", err)
	}
	return enrollment, nil
}

func (verifier *CredentialVerifier) verifyPassword(ctx context.Context, email string, password string) (models.Enrollment, error) {
	enrollment, err := verifier.enrollments.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Enrollment{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Enrollment{}, fmt.Errorf("find enrollment by email: %w", err)
	}

	if strings.TrimSpace(enrollment.PasswordHash) == "" {
		return models.Enrollment{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(enrollment.PasswordHash), []byte(password)) != nil {
		return models.Enrollment{}, ErrInvalidCredentials
	}
	return enrollment, nil
}
