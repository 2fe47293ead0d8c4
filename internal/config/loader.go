package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrorType categorizes configuration loading failures for diagnostics.
type ErrorType string

const (
	// ErrorTypeEnv covers envconfig processing failures (unparseable values).
	ErrorTypeEnv ErrorType = "env"
	// ErrorTypeValidation covers struct validation failures (out-of-range,
	// malformed URLs).
	ErrorTypeValidation ErrorType = "validation"
)

// Error is the diagnostic error type returned by Load.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Load builds the Config:
//  1. Load a .env file if present (non-fatal when absent; real deployments
//     configure through the environment).
//  2. Process envconfig struct tags.
//  3. Validate the populated struct.
func Load() (*Config, error) {
	// Best effort: local development convenience only.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &Error{
			Type:    ErrorTypeEnv,
			Message: "processing environment variables",
			Err:     err,
		}
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, &Error{
			Type:    ErrorTypeValidation,
			Message: "invalid configuration",
			Err:     err,
		}
	}

	return &cfg, nil
}
