package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/coffee-match/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	register("match_type", func(fl validator.FieldLevel) bool {
		return models.MatchType(fl.Field().String()).Valid()
	})
	register("communication_style", func(fl validator.FieldLevel) bool {
		return models.CommunicationStyle(fl.Field().String()).Valid()
	})
	register("meeting_preference", func(fl validator.FieldLevel) bool {
		return models.MeetingPreference(fl.Field().String()).Valid()
	})
	register("experience_level", func(fl validator.FieldLevel) bool {
		return models.ExperienceLevel(fl.Field().String()).Valid()
	})
	register("interaction_type", func(fl validator.FieldLevel) bool {
		return models.InteractionType(fl.Field().String()).Valid()
	})
}

func register(tag string, fn validator.Func) {
	if err := Validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register %s validator: %v", tag, err))
	}
}

// FieldError is the first failing field of a struct validation
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Struct validates s and reduces validator errors to the first failing field
func Struct(s any) *FieldError {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return &FieldError{Field: "input", Reason: err.Error()}
	}
	fe := verrs[0]
	return &FieldError{Field: toSnake(fe.Field()), Reason: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "nefield":
		return "must differ from " + toSnake(fe.Param())
	default:
		return fmt.Sprintf("invalid value (%s)", fe.Tag())
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SanitizeText trims whitespace and removes control characters except newline and tab
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
