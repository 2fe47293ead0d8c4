package core

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expopush/internal/types"
)

type validatedDTO struct {
	Title    string   `validate:"max=10"`
	To       []string `validate:"required,min=1"`
	Priority string   `validate:"omitempty,oneof=default normal high"`
}

func TestValidator_ValidStruct(t *testing.T) {
	v := NewValidator(slog.Default())

	err := v.ValidateStruct(validatedDTO{
		Title:    "hello",
		To:       []string{"a"},
		Priority: "high",
	})
	assert.NoError(t, err)
}

func TestValidator_ViolationsReportFields(t *testing.T) {
	v := NewValidator(slog.Default())

	err := v.ValidateStruct(validatedDTO{
		Title:    "this title is too long",
		Priority: "urgent",
	})
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationInvalidArgument, appErr.Code)
	assert.Equal(t, "max=10", appErr.Details["title"])
	assert.Equal(t, "required", appErr.Details["to"])
	assert.Equal(t, "oneof=default normal high", appErr.Details["priority"])
}

func TestValidator_NonStructInput(t *testing.T) {
	v := NewValidator(slog.Default())

	err := v.ValidateStruct(42)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeInternalUnexpected, appErr.Code)
}
