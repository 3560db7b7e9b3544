package services

import (
	chaterrors "chat-hub/errors"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// NameRequest validates user and room names.
// The pipe is reserved by private scope keys.
type NameRequest struct {
	Name string `validate:"required,max=64,excludesall=0x7C"`
}

func ValidateName(name string) error {
	if err := validate.Struct(NameRequest{Name: strings.TrimSpace(name)}); err != nil {
		return toInputError(err)
	}
	return nil
}

// ValidateBody only bounds the length, emptiness is the message store policy.
func ValidateBody(body string, maxContentLength int) error {
	if maxContentLength <= 0 {
		return nil
	}
	if err := validate.Var(body, fmt.Sprintf("max=%d", maxContentLength)); err != nil {
		return toInputError(err)
	}
	return nil
}

func toInputError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 && validationErrors[0].Tag() == "required" {
		return fmt.Errorf("%w: %v", chaterrors.ErrEmptyInput, err)
	}
	return fmt.Errorf("%w: %v", chaterrors.ErrInvalidInput, err)
}
