package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Leganyst/clinic-booking/internal/apperror"
	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/model"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("consultation_type", validateConsultationType); err != nil {
		panic("register consultation_type validation: " + err.Error())
	}
}

func validateConsultationType(fl validator.FieldLevel) bool {
	switch normalizeConsultationType(fl.Field().String()) {
	case model.ConsultationTypeOnline, model.ConsultationTypeOffline:
		return true
	default:
		return false
	}
}

var validationMessages = map[string]string{
	"required":          "is required",
	"consultation_type": "must be ONLINE or OFFLINE",
}

// validateInput проверяет теги validate и возвращает первую ошибку как Validation.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Validation("invalid input")
	}
	first := verrs[0]
	msg, ok := validationMessages[first.Tag()]
	if !ok {
		msg = "is invalid"
	}
	return apperror.Validation("%s %s", toSnake(first.Field()), msg)
}

// validateWindow требует, чтобы конец приёма был строго позже начала.
func validateWindow(w calendar.Window, err error) (calendar.Window, error) {
	if err != nil {
		return calendar.Window{}, apperror.Validation("end time must be after start time")
	}
	return w, nil
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
