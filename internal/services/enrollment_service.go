package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fipacademy/cronograma/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type EnrollmentRepository interface {
	CredentialRepository
	FindByID(ctx context.Context, id uint) (models.Enrollment, error)
	FindFirstByEmailOrCPF(ctx context.Context, email string, cpf string) (models.Enrollment, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByCPF(ctx context.Context, cpf string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdatePasswordHash(ctx context.Context, id uint, passwordHash string) error
}

// ExistenceResult names the field that matched; Field is empty when nothing did.
type ExistenceResult struct {
	Exists bool
	Field  string
}

type EnrollmentService struct {
	enrollments EnrollmentRepository
	validator   *registrationValidator
	scheme      string
	location    *time.Location
}

func NewEnrollmentService(enrollments EnrollmentRepository, scheme string, location *time.Location) *EnrollmentService {
	if scheme != SchemeCPF {
		scheme = SchemePassword
	}
	if location == nil {
		location = time.UTC
	}
	return &EnrollmentService{
		enrollments: enrollments,
		validator:   newRegistrationValidator(scheme),
		scheme:      scheme,
		location:    location,
	}
}

// NormalizeRegistration applies the storage formats before validation.
func NormalizeRegistration(input RegistrationInput) RegistrationInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.CPF = NormalizeCPF(input.CPF)
	input.Whatsapp = NormalizeWhatsapp(input.Whatsapp)
	if instagram := NormalizeInstagram(input.Instagram); instagram != nil {
		input.Instagram = *instagram
	} else {
		input.Instagram = ""
	}
	input.EnrollmentDate = strings.TrimSpace(input.EnrollmentDate)
	return input
}

// Register validates, rejects duplicates (email first, then cpf) and stores a new enrollment.
func (service *EnrollmentService) Register(ctx context.Context, raw RegistrationInput) (models.Enrollment, error) {
	input := NormalizeRegistration(raw)
	if err := service.validator.Check(input); err != nil {
		return models.Enrollment{}, err
	}

	enrollmentDate, err := ParseEnrollmentDate(input.EnrollmentDate, service.location)
	if err != nil {
		return models.Enrollment{}, NewValidationError(ErrValidation, FieldError{Field: "enrollmentDate", Error: "enrollmentDate is invalid"})
	}

	emailTaken, err := service.enrollments.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return models.Enrollment{}, fmt.Errorf("check email: %w", err)
	}
	if emailTaken {
		return models.Enrollment{}, &ConflictError{Field: "email"}
	}
	cpfTaken, err := service.enrollments.ExistsByCPF(ctx, input.CPF)
	if err != nil {
		return models.Enrollment{}, fmt.Errorf("check cpf: %w", err)
	}
	if cpfTaken {
		return models.Enrollment{}, &ConflictError{Field: "cpf"}
	}

	enrollment := models.Enrollment{
		Name:           input.Name,
		Email:          input.Email,
		CPF:            input.CPF,
		Whatsapp:       input.Whatsapp,
		Instagram:      NormalizeInstagram(input.Instagram),
		EnrollmentDate: enrollmentDate,
	}
	if service.scheme == SchemePassword {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.Enrollment{}, fmt.Errorf("hash password: %w", err)
		}
		enrollment.PasswordHash = string(hash)
	}

	if err := service.enrollments.Create(ctx, &enrollment); err != nil {
		var unique interface{ ConflictColumn() string }
		if errors.As(err, &unique) {
			field := unique.ConflictColumn()
			if field == "" {
				field = "email"
			}
			return models.Enrollment{}, &ConflictError{Field: field}
		}
		return models.Enrollment{}, fmt.Errorf("create enrollment: %w", err)
	}
	return enrollment, nil
}

// Exists looks up by email and/or cpf. At least one must be non-empty after normalization.
func (service *EnrollmentService) Exists(ctx context.Context, emailRaw string, cpfRaw string) (ExistenceResult, error) {
	email := strings.ToLower(strings.TrimSpace(emailRaw))
	cpf := NormalizeCPF(cpfRaw)
	if email == "" && cpf == "" {
		return ExistenceResult{}, ErrLookupEmpty
	}

	found, err := service.enrollments.FindFirstByEmailOrCPF(ctx, email, cpf)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ExistenceResult{}, nil
	}
	if err != nil {
		return ExistenceResult{}, fmt.Errorf("find enrollment by email or cpf: %w", err)
	}

	field := "cpf"
	if email != "" && found.Email == email {
		field = "email"
	}
	return ExistenceResult{Exists: true, Field: field}, nil
}

func (service *EnrollmentService) FindByID(ctx context.Context, id uint) (models.Enrollment, error) {
	return service.enrollments.FindByID(ctx, id)
}

// ResetPassword stores a bcrypt hash of password for the enrollment registered under email.
func (service *EnrollmentService) ResetPassword(ctx context.Context, emailRaw string, password string) error {
	email := NormalizeEmail(emailRaw)
	if email == "" {
		return fmt.Errorf("invalid email %q", emailRaw)
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return err
	}

	enrollment, err := service.enrollments.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("find enrollment: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return service.enrollments.UpdatePasswordHash(ctx, enrollment.ID, string(hash))
}
