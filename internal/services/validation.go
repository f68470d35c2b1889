package services

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	notBlankTag       = "notblank"
	cpfTag            = "cpf"
	enrollmentDateTag = "enrollment_date"
	strongPasswordTag = "strong_password"

	dateOnlyLayout = "2006-01-02"
)

var customMessages = map[string]string{
	notBlankTag:       "{0} cannot be blank",
	cpfTag:            "{0} must contain exactly 11 digits",
	enrollmentDateTag: "{0} must be a date (YYYY-MM-DD) or an RFC 3339 timestamp",
	strongPasswordTag: "{0} must have at least 8 characters mixing letters and digits",
}

// RegistrationInput is the raw registration payload. Normalize it before validating.
type RegistrationInput struct {
	Name           string `json:"name" form:"name" validate:"notblank,max=120"`
	Email          string `json:"email" form:"email" validate:"required,email,max=254"`
	Password       string `json:"password" form:"password"`
	CPF            string `json:"cpf" form:"cpf" validate:"required,cpf"`
	Whatsapp       string `json:"whatsapp" form:"whatsapp" validate:"required,min=10,max=13"`
	Instagram      string `json:"instagram" form:"instagram" validate:"omitempty,max=31"`
	EnrollmentDate string `json:"enrollmentDate" form:"enrollmentDate" validate:"required,enrollment_date"`
}

type registrationValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func newRegistrationValidator(scheme string) *registrationValidator {
	validate := validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON names so field errors line up with the payload keys.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation(cpfTag, func(fl validator.FieldLevel) bool {
		return ValidCPF(fl.Field().String())
	})
	_ = validate.RegisterValidation(enrollmentDateTag, func(fl validator.FieldLevel) bool {
		_, err := ParseEnrollmentDate(fl.Field().String(), time.UTC)
		return err == nil
	})

	if scheme == SchemePassword {
		validate.RegisterStructValidation(func(sl validator.StructLevel) {
			input, ok := sl.Current().Interface().(RegistrationInput)
			if !ok {
				return
			}
			switch {
			case strings.TrimSpace(input.Password) == "":
				sl.ReportError(input.Password, "password", "Password", "required", "")
			case ValidatePasswordStrength(input.Password) != nil:
				sl.ReportError(input.Password, "password", "Password", strongPasswordTag, "")
			}
		}, RegistrationInput{})
	}

	for tag, message := range customMessages {
		registerTranslation(validate, translator, tag, message)
	}

	return &registrationValidator{validate: validate, translator: translator}
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag string, message string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, message, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			translated, _ := t.T(tag, fe.Field())
			return translated
		},
	)
}

// Check returns nil or a *ValidationError listing every failing field.
func (rv *registrationValidator) Check(input RegistrationInput) error {
	err := rv.validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fields := make([]FieldError, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		fields = append(fields, FieldError{Field: fieldErr.Field(), Error: fieldErr.Translate(rv.translator)})
	}
	return NewValidationError(ErrValidation, fields...)
}

// ParseEnrollmentDate accepts YYYY-MM-DD (midnight in location) or RFC 3339.
func ParseEnrollmentDate(raw string, location *time.Location) (time.Time, error) {
	if location == nil {
		location = time.UTC
	}
	value := strings.TrimSpace(raw)
	if parsed, err := time.ParseInLocation(dateOnlyLayout, value, location); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed, nil
}
