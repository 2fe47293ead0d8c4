// Package types contains the domain value objects and shared contracts for
// the push delivery platform: push tokens, messages, the relay error
// taxonomy, and the typed application error model.
package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// TokenMinLength is the minimum acceptable length of a push token.
const TokenMinLength = 16

// Accepted token prefixes. Expo issues both historical and current forms.
const (
	tokenPrefixExponent = "ExponentPushToken["
	tokenPrefixExpo     = "ExpoPushToken["
	tokenSuffix         = "]"
)

// PushToken is the validated identity of a single recipient device.
//
// A PushToken can only be obtained through ParsePushToken (or the decoding
// hooks, which delegate to it), so an invalid token is never representable.
// The zero value is not a valid token; IsZero reports that state.
type PushToken struct {
	value string
}

// ParsePushToken validates raw and returns it as a PushToken.
// A valid token is at least 16 characters long, starts with
// "ExponentPushToken[" or "ExpoPushToken[", and ends with "]".
func ParsePushToken(raw string) (PushToken, error) {
	if len(raw) < TokenMinLength {
		return PushToken{}, invalidToken(raw)
	}
	if !strings.HasPrefix(raw, tokenPrefixExponent) && !strings.HasPrefix(raw, tokenPrefixExpo) {
		return PushToken{}, invalidToken(raw)
	}
	if !strings.HasSuffix(raw, tokenSuffix) {
		return PushToken{}, invalidToken(raw)
	}
	return PushToken{value: raw}, nil
}

// MustParsePushToken is a ParsePushToken that panics on invalid input.
// Intended for tests and compile-time-known constants.
func MustParsePushToken(raw string) PushToken {
	token, err := ParsePushToken(raw)
	if err != nil {
		panic(err)
	}
	return token
}

func invalidToken(raw string) error {
	return NewAppError(
		ErrCodeValidationInvalidToken,
		fmt.Sprintf("%s is not a valid push token", raw),
		nil,
	)
}

// String returns the raw token string.
func (t PushToken) String() string {
	return t.value
}

// IsZero reports whether the token is the unusable zero value.
func (t PushToken) IsZero() bool {
	return t.value == ""
}

// Equals compares the token against another PushToken or a raw string.
// Comparison is by underlying string value in both cases.
func (t PushToken) Equals(other any) bool {
	switch o := other.(type) {
	case PushToken:
		return t.value == o.value
	case string:
		return t.value == o
	default:
		return false
	}
}

// MarshalJSON encodes the token as its bare string value.
func (t PushToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.value)
}

// UnmarshalJSON decodes and validates a token from a JSON string.
// Decoding an invalid token fails, so unmarshalled structs can never carry
// a malformed recipient.
func (t *PushToken) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParsePushToken(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UnmarshalText validates a token from its text form. This covers decoders
// (envconfig, encoding/xml, flag parsing) that go through encoding.TextUnmarshaler.
func (t *PushToken) UnmarshalText(text []byte) error {
	parsed, err := ParsePushToken(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer so a PushToken can be bound directly as a
// query argument.
func (t PushToken) Value() (driver.Value, error) {
	return t.value, nil
}

// Scan implements sql.Scanner, validating the stored representation on read.
// A row holding a malformed token surfaces as a scan error rather than as a
// silently invalid value object.
func (t *PushToken) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into PushToken", src)
	}
	parsed, err := ParsePushToken(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
