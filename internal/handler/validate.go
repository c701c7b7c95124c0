package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AadeshhhGavhane/c3/internal/service"
)

var (
	personNamePattern = regexp.MustCompile(`^[a-zA-Z ]+$`)
	otpPattern        = regexp.MustCompile(`^\d{4}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "otp", func(fl validator.FieldLevel) bool {
		return otpPattern.MatchString(fl.Field().String())
	})

	return v
}

// mustRegister panics if a custom rule cannot be registered, so a bad rule
// fails at startup instead of silently skipping validation.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

// validateRequest checks req against its validate tags and returns a
// validation error listing every failed field as "field: message".
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &service.Error{Kind: service.KindValidation, Message: "Validation error", Err: err}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+": "+fieldMessage(fe))
	}
	return &service.Error{Kind: service.KindValidation, Message: strings.Join(msgs, ", ")}
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabel(fe.Field())

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "email":
		return "Please provide a valid email address"
	case "personname":
		return "Name can only contain letters and spaces"
	case "otp":
		return "OTP must be exactly 4 digits"
	case "eqfield":
		return "Passwords don't match"
	default:
		return "is invalid"
	}
}

func fieldLabel(field string) string {
	switch field {
	case "name":
		return "Name"
	case "email":
		return "Email"
	case "otp":
		return "OTP"
	case "password", "newPassword":
		return "Password"
	case "confirmPassword":
		return "Password confirmation"
	default:
		return field
	}
}
