package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"

	"github.com/go-playground/validator/v10"

	"intake/internal/intake/models"
)

var (
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
)

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if label := field.Tag.Get("label"); label != "" {
			return label
		}
		return field.Name
	})

	for tag, options := range map[string][]string{
		"gender":   models.Genders,
		"topic":    models.InternshipTopics,
		"course":   models.Courses,
		"college":  models.Colleges,
		"honours":  models.HonoursSubjects,
		"semester": models.Semesters,
	} {
		mustRegister(v, tag, oneOf(options))
	}
	mustRegister(v, "phone10", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "strict_email", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) <= 254 && emailPattern.MatchString(s)
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func oneOf(options []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(options, fl.Field().String())
	}
}

// firstFieldMessage turns the first validator failure into a single sentence.
func firstFieldMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid submission"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return "Invalid " + fe.Field()
	}
}
