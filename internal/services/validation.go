package services

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/BradenHooton/accounts/internal/models"
	"github.com/go-playground/validator/v10"
)

// Global validator instance; field names come from json tags
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var fieldLabels = map[string]string{
	"firstName": "First name",
	"lastName":  "Last name",
	"email":     "Email",
	"password":  "Password",
}

// validateStruct returns a ValidationError listing every failing field as "field: message"
func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return models.NewValidationError(err.Error())
	}

	messages := make([]string, 0, len(ve))
	for _, fe := range ve {
		messages = append(messages, fe.Field()+": "+formatValidationError(fe))
	}
	return models.NewValidationError(strings.Join(messages, ", "))
}

func formatValidationError(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return label + " can not be blank"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s cannot be longer than %s characters", label, fe.Param())
	case "email":
		return label + " is not a valid email address"
	default:
		return fmt.Sprintf("%s failed validation: %s", label, fe.Tag())
	}
}
