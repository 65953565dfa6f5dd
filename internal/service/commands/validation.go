package commands

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError rejects a malformed command record. Field is the label of
// the offending field, empty when the problem spans the whole record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + " " + e.Reason
}

func validationError(reason string) error {
	return &ValidationError{Reason: reason}
}

func fieldError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// newValidator reports fields by their label tag so messages read like
// "subject is required".
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return strings.ToLower(fld.Name)
	})
	return v
}

func validateRecord(v *validator.Validate, cmd Command) error {
	err := v.Struct(cmd)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return validationError(err.Error())
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required", "required_with":
		return fieldError(fe.Field(), "is required")
	case "oneof":
		return fieldError(fe.Field(), "must be one of: "+strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fieldError(fe.Field(), "is invalid")
	}
}
