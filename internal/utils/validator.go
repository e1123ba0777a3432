package utils

import (
	"reflect"
	"strings"

	"github.com/appsarion/training-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Custom validation functions

func ValidateEvaluationStatus(fl validator.FieldLevel) bool {
	validStatuses := []models.EvaluationStatus{
		models.EvaluationPending,
		models.EvaluationCompleted,
		models.EvaluationFailed,
	}

	value := fl.Field().String()
	for _, validStatus := range validStatuses {
		if string(validStatus) == value {
			return true
		}
	}
	return false
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("evaluation_status", ValidateEvaluationStatus)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// NewValidator creates a validator with the service's custom rules registered.
func NewValidator() *validator.Validate {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return validate
}
