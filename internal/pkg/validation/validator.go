// Package validation wraps go-playground/validator with lazy, thread-safe
// initialization and a flattened error format suitable for logging.
package validation

import (
	"errors"
	"fmt"
	"sync"

	gvalidator "github.com/go-playground/validator/v10"
)

var (
	validator         *gvalidator.Validate
	initValidatorOnce sync.Once
)

// ErrValidation heads the error chain whenever one or more rules fail.
var ErrValidation = errors.New("validation error")

const errStringFormat = "'%s': value '%v' does not meet the requirements for the '%s' validation"

// Init prepares the singleton validator. Safe to call more than once.
func Init() {
	initValidatorOnce.Do(func() {
		validator = gvalidator.New(gvalidator.WithRequiredStructEnabled())
	})
}

func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidation}
	for _, validationErr := range validationErrors {
		errs = append(errs, fmt.Errorf(errStringFormat,
			validationErr.Field(), validationErr.Value(), validationErr.Tag()))
	}

	return errors.Join(errs...)
}

// Validate checks v against its struct tags. Init must have been called.
func Validate(v any) error {
	if err := validator.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}
