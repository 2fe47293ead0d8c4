package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"expopush/internal/types"
)

func TestResult_OK(t *testing.T) {
	result := OK()

	assert.True(t, result.IsOK())
	assert.False(t, result.IsFailure())
	assert.False(t, result.IsFatal())
	assert.Empty(t, result.Errors())
	assert.Empty(t, result.Message())
}

func TestResult_Failed(t *testing.T) {
	errs := []types.DeliveryError{
		types.NewDeliveryError(types.ErrorDeviceNotRegistered, tokenA, "gone"),
	}
	result := Failed(errs)

	assert.False(t, result.IsOK())
	assert.True(t, result.IsFailure())
	assert.False(t, result.IsFatal())
	assert.Len(t, result.Errors(), 1)
	assert.Empty(t, result.Message(), "the wrong variant's accessor returns its zero value")
}

func TestResult_Fatal(t *testing.T) {
	result := Fatal("ran out of juice")

	assert.False(t, result.IsOK())
	assert.False(t, result.IsFailure())
	assert.True(t, result.IsFatal())
	assert.Empty(t, result.Errors())
	assert.Equal(t, "ran out of juice", result.Message())
}

func TestResult_ZeroValueReportsNoVariant(t *testing.T) {
	var result Result

	assert.False(t, result.IsOK())
	assert.False(t, result.IsFailure())
	assert.False(t, result.IsFatal())
}

func TestResult_FailedCopiesErrors(t *testing.T) {
	errs := []types.DeliveryError{
		types.NewDeliveryError(types.ErrorDeviceNotRegistered, tokenA, "gone"),
	}
	result := Failed(errs)

	errs[0] = types.NewDeliveryError(types.ErrorMessageTooBig, tokenB, "big")
	assert.Equal(t, types.ErrorDeviceNotRegistered, result.Errors()[0].Type)
}
