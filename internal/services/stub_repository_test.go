package services

import (
	"context"
	"errors"

	"github.com/fipacademy/cronograma/internal/models"
	"gorm.io/gorm"
)

type uniqueViolation struct{ column string }

func (err uniqueViolation) Error() string          { return "UNIQUE constraint failed: enrollments." + err.column }
func (err uniqueViolation) ConflictColumn() string { return err.column }

type stubEnrollmentRepo struct {
	records   []models.Enrollment
	createErr error
	lookupErr error
}

func (stub *stubEnrollmentRepo) FindByID(_ context.Context, id uint) (models.Enrollment, error) {
	for _, record := range stub.records {
		if record.ID == id {
			return record, nil
		}
	}
	return models.Enrollment{}, gorm.ErrRecordNotFound
}

func (stub *stubEnrollmentRepo) FindByEmail(_ context.Context, email string) (models.Enrollment, error) {
	if stub.lookupErr != nil {
		return models.Enrollment{}, stub.lookupErr
	}
	for _, record := range stub.records {
		if record.Email == email {
			return record, nil
		}
	}
	return models.Enrollment{}, gorm.ErrRecordNotFound
}

func (stub *stubEnrollmentRepo) FindByEmailAndCPF(_ context.Context, email string, cpf string) (models.Enrollment, error) {
	if stub.lookupErr != nil {
		return models.Enrollment{}, stub.lookupErr
	}
	for _, record := range stub.records {
		if record.Email == email && record.CPF == cpf {
			return record, nil
		}
	}
	return models.Enrollment{}, gorm.ErrRecordNotFound
}

func (stub *stubEnrollmentRepo) FindFirstByEmailOrCPF(_ context.Context, email string, cpf string) (models.Enrollment, error) {
	if stub.lookupErr != nil {
		return models.Enrollment{}, stub.lookupErr
	}
	for _, record := range stub.records {
		if (email != "" && record.Email == email) || (cpf != "" && record.CPF == cpf) {
			return record, nil
		}
	}
	return models.Enrollment{}, gorm.ErrRecordNotFound
}

func (stub *stubEnrollmentRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := stub.FindFirstByEmailOrCPF(ctx, email, "")
	return existsResult(err)
}

func (stub *stubEnrollmentRepo) ExistsByCPF(ctx context.Context, cpf string) (bool, error) {
	_, err := stub.FindFirstByEmailOrCPF(ctx, "", cpf)
	return existsResult(err)
}

func existsResult(err error) (bool, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (stub *stubEnrollmentRepo) Create(_ context.Context, enrollment *models.Enrollment) error {
	if stub.createErr != nil {
		return stub.createErr
	}
	enrollment.ID = uint(len(stub.records) + 1)
	stub.records = append(stub.records, *enrollment)
	return nil
}

func (stub *stubEnrollmentRepo) UpdatePasswordHash(_ context.Context, id uint, passwordHash string) error {
	for index := range stub.records {
		if stub.records[index].ID == id {
			stub.records[index].PasswordHash = passwordHash
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}
