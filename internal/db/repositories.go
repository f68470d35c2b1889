package db

import "gorm.io/gorm"

type Repositories struct {
	Enrollments *EnrollmentRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Enrollments: NewEnrollmentRepository(database),
	}
}
