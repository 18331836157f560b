package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Card grades as stored in photo_cards.grade
var Grades = []string{"common", "rare", "epic", "legendary"}

// Card genres accepted on create and update
var Genres = []string{"앨범", "특전", "팬싸", "시즌그리팅", "팬미팅", "콘서트", "MD", "콜라보", "팬클럽", "기타"}

// Listing statuses
var ListingStatuses = []string{"ACTIVE", "SOLD_OUT", "CANCELED"}

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	_ = validate.RegisterValidation("grade", oneOf(Grades))
	_ = validate.RegisterValidation("genre", oneOf(Genres))
	_ = validate.RegisterValidation("listing_status", oneOf(ListingStatuses))

	// Rejects values that are only whitespace
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

func oneOf(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return contains(allowed, fl.Field().String())
	}
}

func contains(allowed []string, v string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}

// IsGrade reports whether v is a known card grade
func IsGrade(v string) bool { return contains(Grades, v) }

// IsGenre reports whether v is a known card genre
func IsGenre(v string) bool { return contains(Genres, v) }

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": "Invalid request"}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short (min: " + fe.Param() + ")"
	case "max":
		return "Value is too long (max: " + fe.Param() + ")"
	case "gte":
		return "Value must be at least " + fe.Param()
	case "lte":
		return "Value must be at most " + fe.Param()
	case "grade":
		return "Invalid grade. Must be one of: " + strings.Join(Grades, ", ")
	case "genre":
		return "Invalid genre. Must be one of: " + strings.Join(Genres, ", ")
	case "listing_status":
		return "Invalid status. Must be one of: " + strings.Join(ListingStatuses, ", ")
	default:
		return "Invalid value"
	}
}
