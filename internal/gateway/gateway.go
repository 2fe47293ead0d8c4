// Package gateway implements the transport boundary with Expo's push
// service: the envelope sent on the wire, the three-way result of one relay
// call, the Gateway contract, and its HTTP implementation.
package gateway

import (
	"context"
	"encoding/json"

	"expopush/internal/types"
)

// Gateway is the transport abstraction for one batched relay call.
//
// The Result carries the relay's application-level outcome (ok, partial
// failure, fatal). The error return is reserved for transport-level
// failures -- the relay unreachable, the envelope unmarshalable, a ticket
// that cannot be decoded -- which are distinct from the relay rejecting the
// batch. Implementations must be safe for concurrent use of the same
// instance with different envelopes.
type Gateway interface {
	Send(ctx context.Context, envelope *Envelope) (Result, error)
}

// Envelope pairs one message with its batch of recipient tokens, as sent in
// a single request. Recipient order is significant: the relay's response
// tickets correlate 1:1 by position.
type Envelope struct {
	recipients []types.PushToken
	message    *types.Message
}

// NewEnvelope builds an envelope for one dispatch attempt. The batch must
// contain at least one recipient, and the message must have been built
// without constraint violations.
func NewEnvelope(recipients []types.PushToken, message *types.Message) (*Envelope, error) {
	if len(recipients) == 0 {
		return nil, types.NewAppError(
			types.ErrCodeValidationEmptyBatch,
			"there must be at least 1 recipient",
			nil,
		)
	}
	if message == nil {
		return nil, types.NewAppError(
			types.ErrCodeValidationInvalidMessage,
			"the envelope message must not be nil",
			nil,
		)
	}
	if err := message.Err(); err != nil {
		return nil, err
	}

	// Copy so later mutation of the caller's slice cannot reorder the batch
	// out from under the ticket correlation.
	batch := make([]types.PushToken, len(recipients))
	copy(batch, recipients)

	return &Envelope{recipients: batch, message: message}, nil
}

// Recipients returns the ordered recipient batch.
func (e *Envelope) Recipients() []types.PushToken {
	out := make([]types.PushToken, len(e.recipients))
	copy(out, e.recipients)
	return out
}

// Message returns the message carried by the envelope.
func (e *Envelope) Message() *types.Message {
	return e.message
}

// MarshalJSON produces the wire object: the message's fields plus a "to"
// array holding the recipient token strings in batch order.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	fields := e.message.Map()

	to := make([]string, len(e.recipients))
	for i, token := range e.recipients {
		to[i] = token.String()
	}
	fields["to"] = to

	return json.Marshal(fields)
}
