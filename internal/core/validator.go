package core

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"expopush/internal/types"
)

// Validator wraps go-playground/validator for request DTO validation.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

func NewValidator(logger *slog.Logger) *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// ValidateStruct validates a request DTO against its struct tags. Tag
// violations are returned as a validation_invalid_argument AppError whose
// details map field names to the failed rule.
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: the caller passed a non-struct.
		return types.NewAppError(types.ErrCodeInternalUnexpected, "could not validate request", err)
	}

	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		details[strings.ToLower(fe.Field())] = rule
	}

	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationInvalidArgument,
		"request validation failed",
		err,
		details,
	)
}
