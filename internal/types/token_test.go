package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validToken = "ExponentPushToken[FtT1dBIc5Wp92HEGuJUhL4]"

func TestParsePushToken_Valid(t *testing.T) {
	valid := []string{
		"ExponentPushToken[FtT1dBIc5Wp92HEGuJUhL4]",
		"ExpoPushToken[FtT1dBIc5Wp92HEGuJUhL4]",
		"ExpoPushToken[xx]",
	}

	for _, raw := range valid {
		token, err := ParsePushToken(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, raw, token.String(), "round-trip must preserve the raw value")
		assert.False(t, token.IsZero())
	}
}

func TestParsePushToken_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"no prefix", "FtT1dBIc5Wp92HEGuJUhL4"},
		{"too short", "ExpoPushToken[]"},
		{"missing closing bracket", "ExponentPushToken[FtT1dBIc5Wp92HEGuJUhL4"},
		{"wrong prefix", "ExpoToken[FtT1dBIc5Wp92HEGuJUhL4]"},
		{"prefix not at start", "xExpoPushToken[FtT1dBIc5Wp92HEGuJUhL4]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePushToken(tc.raw)
			require.Error(t, err)

			var appErr *AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, ErrCodeValidationInvalidToken, appErr.Code)
		})
	}
}

func TestPushToken_Equals(t *testing.T) {
	token := MustParsePushToken(validToken)

	assert.True(t, token.Equals(validToken))
	assert.True(t, token.Equals(MustParsePushToken(validToken)))
	assert.False(t, token.Equals("ExpoPushToken[Wi54gvIrap4SDW4Dsh6b0h]"))
	assert.False(t, token.Equals(42), "unsupported operand types never compare equal")
}

func TestPushToken_JSONRoundTrip(t *testing.T) {
	token := MustParsePushToken(validToken)

	encoded, err := json.Marshal(token)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+validToken+`"`, string(encoded))

	var decoded PushToken
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.True(t, token.Equals(decoded))
}

func TestPushToken_UnmarshalJSON_RejectsInvalid(t *testing.T) {
	var decoded PushToken
	err := json.Unmarshal([]byte(`"not-a-token"`), &decoded)
	require.Error(t, err)
	assert.True(t, decoded.IsZero())
}

func TestPushToken_UnmarshalText(t *testing.T) {
	var token PushToken
	require.NoError(t, token.UnmarshalText([]byte(validToken)))
	assert.Equal(t, validToken, token.String())

	require.Error(t, token.UnmarshalText([]byte("junk")))
}

func TestPushToken_ScanAndValue(t *testing.T) {
	var token PushToken
	require.NoError(t, token.Scan(validToken))
	assert.Equal(t, validToken, token.String())

	var fromBytes PushToken
	require.NoError(t, fromBytes.Scan([]byte(validToken)))
	assert.True(t, token.Equals(fromBytes))

	value, err := token.Value()
	require.NoError(t, err)
	assert.Equal(t, validToken, value)

	var bad PushToken
	require.Error(t, bad.Scan("corrupt-row"), "a malformed stored token must fail the scan")
	require.Error(t, bad.Scan(3.14))
}
