package app

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"experiences/internal/domain"
)

var usernameRE = regexp.MustCompile(`^[\w.@+-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so messages line up with what the client sent
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRE.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("passwordbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= domain.MaxPasswordBytes
	})
	return v
}

// checkStruct runs tag validation on s and folds failures into ve.
func checkStruct(ve *domain.ValidationError, s any) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		ve.Add("__all__", err.Error())
		return
	}
	for _, fe := range fes {
		ve.Add(fe.Field(), message(fe))
	}
}

func message(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		if isString {
			return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min":
		if isString {
			return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "lt":
		return fmt.Sprintf("Ensure this value is less than %s.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "eqfield":
		return "The two password fields didn't match."
	case "datetime":
		return "Enter a valid date (YYYY-MM-DD)."
	case "passwordbytes":
		return fmt.Sprintf("Ensure this value has at most %d bytes.", domain.MaxPasswordBytes)
	case "username":
		return "Enter a valid username. Letters, digits and @/./+/-/_ only."
	}
	return fmt.Sprintf("Failed the %q check.", fe.Tag())
}

func validateExperience(in domain.ExperienceInput) *domain.ValidationError {
	ve := &domain.ValidationError{}
	checkStruct(ve, in)
	switch {
	case in.Price == nil:
		ve.Add("price", "This field is required.")
	case in.Price.IsNegative():
		ve.Add("price", "Ensure this value is greater than or equal to 0.")
	case in.Price.GreaterThan(domain.MaxPrice):
		ve.Add("price", fmt.Sprintf("Ensure this value is less than or equal to %s.", domain.MaxPrice.StringFixed(2)))
	case !in.Price.Equal(in.Price.Round(2)):
		ve.Add("price", "Ensure that there are no more than 2 decimal places.")
	}
	if in.Hours == 0 && in.Minutes == 0 {
		ve.Add("duration", "Duration must be greater than zero.")
	}
	return ve
}
