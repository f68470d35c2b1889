package models

import "time"

type Enrollment struct {
	ID             uint      `gorm:"primaryKey"`
	Name           string    `gorm:"not null"`
	Email          string    `gorm:"uniqueIndex;not null"`
	CPF            string    `gorm:"column:cpf;uniqueIndex;not null"`
	PasswordHash   string    `gorm:"not null;default:''"`
	Whatsapp       string    `gorm:"not null"`
	Instagram      *string   `gorm:"default:null"`
	EnrollmentDate time.Time `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// PublicEnrollment is the projection returned to clients; it never carries the password hash.
type PublicEnrollment struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	CPF            string    `json:"cpf,omitempty"`
	Whatsapp       string    `json:"whatsapp"`
	Instagram      *string   `json:"instagram"`
	EnrollmentDate time.Time `json:"enrollmentDate"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Public strips secrets. includeCPF is false when the CPF doubles as the login secret.
func (enrollment Enrollment) Public(includeCPF bool) PublicEnrollment {
	public := PublicEnrollment{
		ID:             enrollment.ID,
		Name:           enrollment.Name,
		Email:          enrollment.Email,
		Whatsapp:       enrollment.Whatsapp,
		Instagram:      enrollment.Instagram,
		EnrollmentDate: enrollment.EnrollmentDate,
		CreatedAt:      enrollment.CreatedAt,
		UpdatedAt:      enrollment.UpdatedAt,
	}
	if includeCPF {
		public.CPF = enrollment.CPF
	}
	return public
}
