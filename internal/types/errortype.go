package types

import "fmt"

// ErrorType is the closed enumeration of per-recipient failure reasons
// defined by Expo's push service. The string values are exactly what the
// relay returns in a ticket's details.error field.
type ErrorType string

const (
	// ErrorDeviceNotRegistered: the device cannot receive push notifications
	// anymore. Stop sending messages to the corresponding token.
	ErrorDeviceNotRegistered ErrorType = "DeviceNotRegistered"

	// ErrorMessageTooBig: the total notification payload exceeded 4096 bytes.
	ErrorMessageTooBig ErrorType = "MessageTooBig"

	// ErrorMessageRateExceeded: messages are being sent too frequently to the
	// given device. Back off before retrying.
	ErrorMessageRateExceeded ErrorType = "MessageRateExceeded"

	// ErrorMismatchSenderId: the FCM server key and google-services.json are
	// not associated with the same sender ID.
	ErrorMismatchSenderId ErrorType = "MismatchSenderId"

	// ErrorInvalidCredentials: the push credentials for the standalone app are
	// invalid, e.g. a revoked APN key.
	ErrorInvalidCredentials ErrorType = "InvalidCredentials"
)

// ParseErrorType decodes a relay-supplied error string into an ErrorType.
// Unrecognized values are a decode failure: the taxonomy is closed and an
// unknown reason must not be coerced into a known one.
func ParseErrorType(raw string) (ErrorType, error) {
	switch t := ErrorType(raw); t {
	case ErrorDeviceNotRegistered,
		ErrorMessageTooBig,
		ErrorMessageRateExceeded,
		ErrorMismatchSenderId,
		ErrorInvalidCredentials:
		return t, nil
	default:
		return "", fmt.Errorf("unknown push error type %q", raw)
	}
}

// IsDeviceNotRegistered reports whether the error type is DeviceNotRegistered.
func (t ErrorType) IsDeviceNotRegistered() bool { return t == ErrorDeviceNotRegistered }

// IsMessageTooBig reports whether the error type is MessageTooBig.
func (t ErrorType) IsMessageTooBig() bool { return t == ErrorMessageTooBig }

// IsMessageRateExceeded reports whether the error type is MessageRateExceeded.
func (t ErrorType) IsMessageRateExceeded() bool { return t == ErrorMessageRateExceeded }

// IsMismatchSenderId reports whether the error type is MismatchSenderId.
func (t ErrorType) IsMismatchSenderId() bool { return t == ErrorMismatchSenderId }

// IsInvalidCredentials reports whether the error type is InvalidCredentials.
func (t ErrorType) IsInvalidCredentials() bool { return t == ErrorInvalidCredentials }

// DeliveryError is one recipient's failure as reported by the relay:
// the taxonomy entry, the recipient it is bound to, and the relay's
// human-readable message. It is a routine outcome, not a Go error; a batch
// with nine successes and one DeliveryError is still a completed send.
type DeliveryError struct {
	Type    ErrorType
	Token   PushToken
	Message string
}

// NewDeliveryError creates a DeliveryError binding a failure reason to the
// recipient it affected.
func NewDeliveryError(errType ErrorType, token PushToken, message string) DeliveryError {
	return DeliveryError{Type: errType, Token: token, Message: message}
}
