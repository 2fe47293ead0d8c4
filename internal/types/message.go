package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Message priorities accepted by the relay.
const (
	PriorityDefault = "default"
	PriorityNormal  = "normal"
	PriorityHigh    = "high"
)

// Message is the notification content for one envelope, following Expo's
// message request format.
//
// It is a fluent builder: setters validate eagerly and return the receiver
// for chaining. The first violated constraint is latched and reported by
// Err; once a message carries an error it is refused at envelope
// construction. Serialization emits only fields that have been set --
// absent optionals are omitted rather than sent as null.
//
// See https://docs.expo.dev/push-notifications/sending-notifications/#message-request-format
type Message struct {
	title          string
	body           string
	data           *string
	ttl            *int
	expiration     *int64
	priority       string
	subtitle       string
	sound          string
	badge          int
	channelID      string
	categoryID     string
	mutableContent bool

	clock Clock
	err   error
}

// NewMessage starts building a message with the given title and body.
// Both may be empty at this point; empty fields are simply omitted from the
// serialized form.
func NewMessage(title, body string) *Message {
	return &Message{
		title:    title,
		body:     body,
		priority: PriorityDefault,
		clock:    RealClock{},
	}
}

// fail latches the first validation error. Later setters still run but
// cannot overwrite it, so Err always reports the original violation.
func (m *Message) fail(code ErrorCode, format string, args ...any) *Message {
	if m.err == nil {
		m.err = NewAppError(code, fmt.Sprintf(format, args...), nil)
	}
	return m
}

// Err returns the first constraint violated while building the message,
// or nil if the message is valid.
func (m *Message) Err() error {
	return m.err
}

// Title sets the title to display in the notification. Must not be empty.
func (m *Message) Title(value string) *Message {
	if value == "" {
		return m.fail(ErrCodeValidationInvalidMessage, "the title must not be empty")
	}
	m.title = value
	return m
}

// Body sets the message body to display in the notification. Must not be empty.
func (m *Message) Body(value string) *Message {
	if value == "" {
		return m.fail(ErrCodeValidationInvalidMessage, "the body must not be empty")
	}
	m.body = value
	return m
}

// Text is an alias for Body.
func (m *Message) Text(value string) *Message {
	return m.Body(value)
}

// Subtitle sets the subtitle displayed below the title. iOS only.
func (m *Message) Subtitle(value string) *Message {
	if value == "" {
		return m.fail(ErrCodeValidationInvalidMessage, "the subtitle must not be empty")
	}
	m.subtitle = value
	return m
}

// Data attaches a JSON payload delivered to the app. The value is encoded
// once, at set time, and stored in its compact JSON string form.
func (m *Message) Data(value any) *Message {
	encoded, err := json.Marshal(value)
	if err != nil {
		if m.err == nil {
			m.err = NewAppError(ErrCodeValidationInvalidJSON, "the data payload is not JSON-serializable", err)
		}
		return m
	}
	s := string(encoded)
	m.data = &s
	return m
}

// TTL sets the number of seconds the relay may keep the message around for
// redelivery. Must be greater than 0.
func (m *Message) TTL(seconds int) *Message {
	if seconds <= 0 {
		return m.fail(ErrCodeValidationInvalidMessage, "the TTL must be greater than 0")
	}
	m.ttl = &seconds
	return m
}

// ExpiresIn is an alias for TTL.
func (m *Message) ExpiresIn(seconds int) *Message {
	return m.TTL(seconds)
}

// ExpiresAt sets an absolute expiration time for the message. The instant
// must be in the future; ttl takes precedence over expiration on the relay.
func (m *Message) ExpiresAt(t time.Time) *Message {
	return m.ExpiresAtEpoch(t.Unix())
}

// ExpiresAtEpoch sets the expiration as seconds since the UNIX epoch.
func (m *Message) ExpiresAtEpoch(epoch int64) *Message {
	if epoch <= m.clock.Now().Unix() {
		return m.fail(ErrCodeValidationInvalidMessage, "the expiration time must be in the future")
	}
	m.expiration = &epoch
	return m
}

// Priority sets the delivery priority: "default", "normal" or "high".
// Input is case-insensitive and normalized to lowercase.
func (m *Message) Priority(value string) *Message {
	normalized := strings.ToLower(value)
	switch normalized {
	case PriorityDefault, PriorityNormal, PriorityHigh:
		m.priority = normalized
		return m
	default:
		return m.fail(ErrCodeValidationInvalidMessage, "the priority must be default, normal or high")
	}
}

// Default sets the delivery priority to "default".
func (m *Message) Default() *Message {
	m.priority = PriorityDefault
	return m
}

// Normal sets the delivery priority to "normal".
func (m *Message) Normal() *Message {
	m.priority = PriorityNormal
	return m
}

// High sets the delivery priority to "high".
func (m *Message) High() *Message {
	m.priority = PriorityHigh
	return m
}

// PlaySound makes the recipient device play its default notification sound.
// Custom sounds are not supported by the relay.
func (m *Message) PlaySound() *Message {
	m.sound = "default"
	return m
}

// Badge sets the number displayed on the app icon badge. Zero clears the
// badge; negative values are rejected. iOS only.
func (m *Message) Badge(value int) *Message {
	if value < 0 {
		return m.fail(ErrCodeValidationInvalidMessage, "the badge must be greater than or equal to 0")
	}
	m.badge = value
	return m
}

// ChannelID sets the Android notification channel through which to display
// this notification.
func (m *Message) ChannelID(value string) *Message {
	if value == "" {
		return m.fail(ErrCodeValidationInvalidMessage, "the channelId must not be empty")
	}
	m.channelID = value
	return m
}

// CategoryID sets the notification category this notification belongs to.
func (m *Message) CategoryID(value string) *Message {
	if value == "" {
		return m.fail(ErrCodeValidationInvalidMessage, "the categoryId must not be empty")
	}
	m.categoryID = value
	return m
}

// MutableContent sets whether the notification can be intercepted by the
// client app before display. iOS only.
func (m *Message) MutableContent(value bool) *Message {
	m.mutableContent = value
	return m
}

// Map returns the message as its wire mapping. Only explicitly set fields
// appear; priority, badge and mutableContent always carry a value and are
// always present. The result is computed freshly on each call and is stable
// for a stable message.
func (m *Message) Map() map[string]any {
	fields := make(map[string]any, 12)
	if m.title != "" {
		fields["title"] = m.title
	}
	if m.body != "" {
		fields["body"] = m.body
	}
	if m.data != nil {
		fields["data"] = *m.data
	}
	if m.ttl != nil {
		fields["ttl"] = *m.ttl
	}
	if m.expiration != nil {
		fields["expiration"] = *m.expiration
	}
	fields["priority"] = m.priority
	if m.subtitle != "" {
		fields["subtitle"] = m.subtitle
	}
	if m.sound != "" {
		fields["sound"] = m.sound
	}
	fields["badge"] = m.badge
	if m.channelID != "" {
		fields["channelId"] = m.channelID
	}
	if m.categoryID != "" {
		fields["categoryId"] = m.categoryID
	}
	fields["mutableContent"] = m.mutableContent
	return fields
}

// MarshalJSON encodes the wire mapping produced by Map.
func (m *Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Map())
}

// withClock overrides the clock used for expiration validation. Test hook.
func (m *Message) withClock(c Clock) *Message {
	m.clock = c
	return m
}
