package db

import (
	"context"
	"errors"
	"strings"

	"github.com/fipacademy/cronograma/internal/models"
	"gorm.io/gorm"
)

// ErrUniqueViolation carries the column whose unique index rejected a write.
type ErrUniqueViolation struct {
	Column string
	Err    error
}

func (err *ErrUniqueViolation) Error() string {
	return "unique constraint violated on " + err.Column
}

// ConflictColumn lets callers outside this package match the error through an interface.
func (err *ErrUniqueViolation) ConflictColumn() string {
	return err.Column
}

func (err *ErrUniqueViolation) Unwrap() error {
	return err.Err
}

type EnrollmentRepository struct {
	database *gorm.DB
}

func NewEnrollmentRepository(database *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{database: database}
}

func (repo *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if err := repo.database.WithContext(ctx).Create(enrollment).Error; err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

func (repo *EnrollmentRepository) FindByID(ctx context.Context, id uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := repo.database.WithContext(ctx).First(&enrollment, id).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

// FindByEmail expects an already normalized (trimmed, lower-cased) address.
func (repo *EnrollmentRepository) FindByEmail(ctx context.Context, email string) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := repo.database.WithContext(ctx).Where("email = ?", email).First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (repo *EnrollmentRepository) FindByEmailAndCPF(ctx context.Context, email string, cpf string) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := repo.database.WithContext(ctx).
		Where("email = ? AND cpf = ?", email, cpf).
		First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

// FindFirstByEmailOrCPF ignores empty arguments; with both empty it reports gorm.ErrRecordNotFound.
func (repo *EnrollmentRepository) FindFirstByEmailOrCPF(ctx context.Context, email string, cpf string) (models.Enrollment, error) {
	query := repo.database.WithContext(ctx).Model(&models.Enrollment{})
	switch {
	case email != "" && cpf != "":
		query = query.Where("email = ? OR cpf = ?", email, cpf)
	case email != "":
		query = query.Where("email = ?", email)
	case cpf != "":
		query = query.Where("cpf = ?", cpf)
	default:
		return models.Enrollment{}, gorm.ErrRecordNotFound
	}

	var enrollment models.Enrollment
	if err := query.Order("id ASC").First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (repo *EnrollmentRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return repo.exists(ctx, "email = ?", email)
}

func (repo *EnrollmentRepository) ExistsByCPF(ctx context.Context, cpf string) (bool, error) {
	return repo.exists(ctx, "cpf = ?", cpf)
}

func (repo *EnrollmentRepository) UpdatePasswordHash(ctx context.Context, id uint, passwordHash string) error {
	result := repo.database.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (repo *EnrollmentRepository) exists(ctx context.Context, condition string, value string) (bool, error) {
	var matched int64
	if err := repo.database.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where(condition, value).
		Count(&matched).Error; err != nil {
		return false, err
	}
	return matched > 0, nil
}

func translateUniqueViolation(err error) error {
	message := strings.ToLower(err.Error())
	if !errors.Is(err, gorm.ErrDuplicatedKey) && !strings.Contains(message, "unique constraint failed") {
		return err
	}

	switch {
	case strings.Contains(message, "enrollments.email") || strings.Contains(message, "idx_enrollments_email"):
		return &ErrUniqueViolation{Column: "email", Err: err}
	case strings.Contains(message, "enrollments.cpf") || strings.Contains(message, "idx_enrollments_cpf"):
		return &ErrUniqueViolation{Column: "cpf", Err: err}
	default:
		return &ErrUniqueViolation{Err: err}
	}
}
