package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// ============================================================
// Request Validation
// ============================================================

// Validator проверяет входные структуры по тегам validate и чистит строки от HTML.
type Validator struct {
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
}

func New() *Validator {
	return &Validator{
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Struct валидирует структуру и возвращает первую понятную ошибку.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return errors.New(formatSingleError(ve[0]))
	}
	return fmt.Errorf("validation failed: %w", err)
}

// Sanitize удаляет любую разметку из пользовательского текста.
func (v *Validator) Sanitize(s string) string {
	return v.sanitizer.Sanitize(s)
}

func formatSingleError(err validator.FieldError) string {
	field := err.Field()
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("'%s' is required", field)
	case "min", "max":
		return fmt.Sprintf("'%s' value out of allowed range", field)
	case "email":
		return fmt.Sprintf("'%s' must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("'%s' must be one of: %s", field, err.Param())
	default:
		return fmt.Sprintf("'%s' is invalid", field)
	}
}
