package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	errors "github.com/frahmantamala/rogue-contacts/internal"
	"github.com/go-playground/validator/v10"
)

var (
	structValidator *validator.Validate
	validatorOnce   sync.Once
)

// Validator returns the shared go-playground validator with the domain
// rules registered: "name" and "password".
func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("name", func(fl validator.FieldLevel) bool {
			return NamePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return PasswordPattern.MatchString(fl.Field().String())
		})
		structValidator = v
	})
	return structValidator
}

// Struct validates s against its `validate` tags and folds every failure
// into one aggregated validation error.
func Struct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).WithCause(err)
	}

	out := make([]errors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, toValidationError(fe))
	}
	return errors.NewAggregateValidationError(out)
}

// IsEmail reports whether s is a syntactically valid email address.
func IsEmail(s string) bool {
	return Validator().Var(s, "required,email") == nil
}

func toValidationError(fe validator.FieldError) errors.ValidationError {
	field := fe.Field()
	ve := errors.ValidationError{Field: field, Code: string(errors.ErrCodeValidationFailed)}

	switch fe.Tag() {
	case "required":
		ve.Message = fmt.Sprintf("%s is required", field)
	case "max":
		ve.Message = fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
	case "min":
		ve.Message = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "email":
		ve.Message = fmt.Sprintf("%s must be a valid email address", field)
		ve.Code = string(errors.ErrCodeInvalidEmail)
	case "name":
		ve.Message = nameMessage(field)
		ve.Code = string(errors.ErrCodeInvalidName)
	case "password":
		ve.Message = fmt.Sprintf("%s may only contain printable ASCII characters without spaces", field)
		ve.Code = string(errors.ErrCodeInvalidPassword)
	default:
		ve.Message = fmt.Sprintf("%s is invalid", field)
	}
	return ve
}
