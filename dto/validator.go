package dto

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/lac-hong-legacy/librarium_api/model"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("strong_password", validateStrongPassword)
	validate.RegisterValidation("email_or_username", ValidateEmailOrUsername)
	validate.RegisterValidation("habit_category", validateEnum(func(s string) bool { return model.Category(s).IsValid() }))
	validate.RegisterValidation("habit_frequency", validateEnum(func(s string) bool { return model.Frequency(s).IsValid() }))
	validate.RegisterValidation("habit_difficulty", validateEnum(func(s string) bool { return model.Difficulty(s).IsValid() }))
	validate.RegisterValidation("completion_status", validateEnum(func(s string) bool { return model.CompletionStatus(s).IsValid() }))
	validate.RegisterValidation("condition_kind", validateEnum(func(s string) bool { return model.ConditionKind(s).IsValid() }))
	validate.RegisterValidation("condition_window", validateEnum(func(s string) bool { return model.Window(s).IsValid() }))
	validate.RegisterValidation("rarity", validateEnum(func(s string) bool { return model.Rarity(s).IsValid() }))
	validate.RegisterValidation("metric_type", validateEnum(func(s string) bool { return model.MetricType(s).IsValid() }))
	validate.RegisterValidation("criterion_kind", validateEnum(func(s string) bool { return model.CriterionKind(s).IsValid() }))
}

func GetValidator() *validator.Validate {
	return validate
}

// validateEnum accepts empty values; pair it with required when needed.
func validateEnum(valid func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == "" || valid(value)
	}
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	return hasUpper && hasLower && hasNumber && hasSpecial
}

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
)

func ValidateEmailOrUsername(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return emailRegex.MatchString(value) || usernameRegex.MatchString(value)
}

func FormatValidationErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			var message string

			switch fieldError.Tag() {
			case "required":
				message = fieldError.Field() + " is required"
			case "email":
				message = "Invalid email format"
			case "min":
				message = fieldError.Field() + " must be at least " + fieldError.Param()
			case "max":
				message = fieldError.Field() + " must be at most " + fieldError.Param()
			case "gt":
				message = fieldError.Field() + " must be greater than " + fieldError.Param()
			case "alphanum":
				message = fieldError.Field() + " must contain only letters and numbers"
			case "strong_password":
				message = "Password must contain at least 8 characters with uppercase, lowercase, number, and special character"
			case "email_or_username":
				message = fieldError.Field() + " must be an email or a username"
			case "oneof":
				message = fieldError.Field() + " must be one of: " + fieldError.Param()
			case "habit_category":
				message = fieldError.Field() + " must be one of: health, study, work, personal, social, creative"
			case "habit_frequency":
				message = fieldError.Field() + " must be one of: daily, weekly, monthly"
			case "habit_difficulty":
				message = fieldError.Field() + " must be one of: easy, medium, hard, legendary"
			case "completion_status":
				message = fieldError.Field() + " must be one of: done, missed, partial"
			case "condition_kind":
				message = fieldError.Field() + " is not a known condition kind"
			case "condition_window":
				message = fieldError.Field() + " must be one of: daily, weekly, monthly, total"
			case "rarity":
				message = fieldError.Field() + " must be one of: common, rare, epic, legendary"
			case "metric_type":
				message = fieldError.Field() + " must be one of: streak7, streak30, habitsPerWeek, dailyXp, rapidLevel, custom"
			case "criterion_kind":
				message = fieldError.Field() + " must be one of: streak, count, sum, average"
			case "dive":
				message = fieldError.Field() + " contains invalid items"
			default:
				message = fieldError.Field() + " is invalid"
			}

			errors = append(errors, ValidationError{
				Field:   fieldError.Field(),
				Message: message,
			})
		}
	}

	return errors
}

type Validator interface {
	Validate() error
}

type ValidationError struct {
	Field   string `json:"field" example:"email"`
	Message string `json:"message" example:"invalid email format"`
}

type ValidationErrorResponse struct {
	Code    int               `json:"code" example:"400"`
	Message string            `json:"message" example:"Validation failed"`
	Errors  []ValidationError `json:"errors"`
}

func CreateValidationErrorResponse(err error) ValidationErrorResponse {
	return ValidationErrorResponse{
		Code:    400,
		Message: "Validation failed",
		Errors:  FormatValidationErrors(err),
	}
}
