package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var personNamePattern = regexp.MustCompile(`^[\p{L}' -]+$`)

var disposableDomains = map[string]struct{}{
	"10minutemail.com":  {},
	"dispostable.com":   {},
	"getnada.com":       {},
	"guerrillamail.com": {},
	"maildrop.cc":       {},
	"mailinator.com":    {},
	"sharklasers.com":   {},
	"temp-mail.org":     {},
	"tempmail.com":      {},
	"throwawaymail.com": {},
	"trashmail.com":     {},
	"yopmail.com":       {},
}

// NewValidator returns a validator that reports JSON field names and knows
// the personname and notdisposable tags.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	_ = validate.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("notdisposable", func(fl validator.FieldLevel) bool {
		return !IsDisposableEmail(fl.Field().String())
	})

	return validate
}

// IsDisposableEmail reports whether the address belongs to a known throwaway domain.
func IsDisposableEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	_, found := disposableDomains[strings.ToLower(strings.TrimSpace(email[at+1:]))]
	return found
}

// IsValidationError reports whether err came from the validator.
func IsValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// ValidationMessages renders validator errors as one readable message per field.
func ValidationMessages(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fieldMessage(fieldErr))
	}
	return messages
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(strings.Fields(fe.Param()), ", "))
	case "personname":
		return fmt.Sprintf("%s may only contain letters, spaces, hyphens and apostrophes", field)
	case "notdisposable":
		return fmt.Sprintf("%s must not use a disposable email domain", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
