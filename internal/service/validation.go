package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-timetable-sync/internal/models"
)

// NewValidator returns a validator with the timetable-specific tags registered.
func NewValidator() *validator.Validate {
	return registerValidations(validator.New())
}

func registerValidations(v *validator.Validate) *validator.Validate {
	if v == nil {
		v = validator.New()
	}
	_ = v.RegisterValidation("personnelcode", func(fl validator.FieldLevel) bool {
		return models.ValidPersonnelCode(fl.Field().String())
	})
	return v
}
