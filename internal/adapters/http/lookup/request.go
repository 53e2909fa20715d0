package lookup

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// MaxPhoneLength bounds the raw phone input accepted by the check endpoint.
const MaxPhoneLength = 20

// ruPhonePattern accepts a Russian number with optional +7/7/8 prefix and the
// usual separators, e.g. "+7 (999) 123-45-67".
var ruPhonePattern = regexp.MustCompile(`^(\+7|7|8)?[\s\-]?\(?[0-9]{3}\)?[\s\-]?[0-9]{3}[\s\-]?[0-9]{2}[\s\-]?[0-9]{2}$`)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("ru_phone", validateRuPhone)
}

func validateRuPhone(fl validator.FieldLevel) bool {
	return ruPhonePattern.MatchString(fl.Field().String())
}

// CheckRequest is the body of POST /api/v1/phones/check, as JSON or form data.
type CheckRequest struct {
	Phone string `json:"phone" validate:"required,max=20,ru_phone"`
}

// Validate checks the request and returns one message per failed rule.
func (r CheckRequest) Validate() []string {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			messages = append(messages, "phone is required")
		case "max":
			messages = append(messages, fmt.Sprintf("phone must be at most %d characters", MaxPhoneLength))
		case "ru_phone":
			messages = append(messages, "phone must look like +7 (999) 123-45-67")
		default:
			messages = append(messages, fmt.Sprintf("phone failed %s validation", fe.Tag()))
		}
	}
	return messages
}
