package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	errors "github.com/frahmantamala/rogue-contacts/internal"
)

const (
	MaxUsernameLength     = 40
	MaxDisplayNameLength  = 64
	MaxBusinessNameLength = 40
	MaxRoleNameLength     = 32
	MinPasswordLength     = 8
	MaxPasswordLength     = 256
)

// NamePattern is shared by usernames and business names: alphanumeric runs
// joined by single '-', '_' or '.' characters.
var NamePattern = regexp.MustCompile(`^[A-Za-z0-9]+(?:[-_.][A-Za-z0-9]+)*$`)

// PasswordPattern allows printable ASCII without whitespace.
var PasswordPattern = regexp.MustCompile(`^[!-~]*$`)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]FieldValidator, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return &v.fields[len(v.fields)-1]
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case string:
			if v == "" {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		case int64:
			if v == 0 {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		case *string:
			if v == nil || *v == "" {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

// MaxLength counts characters, not bytes.
func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := stringValue(value); ok && utf8.RuneCountInString(v) > max {
			message := fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max)
			return errors.NewValidationFieldError(fv.FieldName, message, errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinLength(min int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := stringValue(value); ok && utf8.RuneCountInString(v) < min {
			message := fmt.Sprintf("%s must be at least %d characters", fv.FieldName, min)
			return errors.NewValidationFieldError(fv.FieldName, message, errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

// Matches checks non-empty values against re.
func (fv *FieldValidator) Matches(re *regexp.Regexp, message string, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := stringValue(value); ok && v != "" && !re.MatchString(v) {
			return errors.NewValidationFieldError(fv.FieldName, message, code)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

// Validate runs every validator of every field and aggregates all failures.
// It returns a plain error so a nil result compares equal to nil.
func (v *ValidationBuilder) Validate() error {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			appErr := validator(field.Value)
			if appErr == nil {
				continue
			}
			if details := appErr.FieldErrors(); len(details) > 0 {
				validationErrors = append(validationErrors, details...)
				continue
			}
			validationErrors = append(validationErrors, errors.ValidationError{
				Field:   field.FieldName,
				Message: appErr.Message,
				Code:    string(appErr.Code),
			})
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewAggregateValidationError(validationErrors)
	}

	return nil
}

// RoleName applies the role name rules to field.
func RoleName(v *ValidationBuilder, field string, name *string) {
	v.Field(field, name).
		Required().
		MaxLength(MaxRoleNameLength)
}

// BusinessName applies the business name rules to field.
func BusinessName(v *ValidationBuilder, field, name string) {
	v.Field(field, name).
		Required().
		MaxLength(MaxBusinessNameLength).
		Matches(NamePattern, nameMessage(field), errors.ErrCodeInvalidName)
}

// PartyName applies the username rules to field. Organization names share
// the username namespace and rules.
func PartyName(v *ValidationBuilder, field, name string) {
	v.Field(field, name).
		Required().
		MaxLength(MaxUsernameLength).
		Matches(NamePattern, nameMessage(field), errors.ErrCodeInvalidUsername)
}

// BusinessPath validates the owner and business segments of a
// /businesses/{owner}/{business} path.
func BusinessPath(v *ValidationBuilder, owner, business string) {
	PartyName(v, "owner", owner)
	BusinessName(v, "business", business)
}

func nameMessage(field string) string {
	return fmt.Sprintf("%s must be letters and digits, optionally joined by single '-', '_' or '.' characters", field)
}

func stringValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	}
	return "", false
}
