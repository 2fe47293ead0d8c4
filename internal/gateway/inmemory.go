package gateway

import (
	"context"
	"sync"

	"expopush/internal/types"
)

// Compile-time assertion that InMemory implements Gateway.
var _ Gateway = (*InMemory)(nil)

// InMemory is a Gateway test double. It records every envelope it is handed
// and reports DeviceNotRegistered for any recipient that has not been
// registered as deliverable. Bail forces a fatal outcome for the next sends.
//
// Safe for concurrent use so it can stand in for the real gateway in
// handler and worker tests.
type InMemory struct {
	mu sync.Mutex

	envelopes   []*Envelope
	deliverable map[string]struct{}
	bailMessage string
}

// NewInMemory creates an empty in-memory gateway; every recipient is
// undeliverable until registered.
func NewInMemory() *InMemory {
	return &InMemory{deliverable: make(map[string]struct{})}
}

// Register marks tokens as deliverable recipients.
func (g *InMemory) Register(tokens ...types.PushToken) *InMemory {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, token := range tokens {
		g.deliverable[token.String()] = struct{}{}
	}
	return g
}

// Bail makes every subsequent Send return a fatal result with the given
// message.
func (g *InMemory) Bail(message string) *InMemory {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bailMessage = message
	return g
}

// Send records the envelope and synthesizes the relay's outcome.
func (g *InMemory) Send(_ context.Context, envelope *Envelope) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.envelopes = append(g.envelopes, envelope)

	if g.bailMessage != "" {
		return Fatal(g.bailMessage), nil
	}

	var errors []types.DeliveryError
	for _, token := range envelope.recipients {
		if _, ok := g.deliverable[token.String()]; !ok {
			errors = append(errors, types.NewDeliveryError(
				types.ErrorDeviceNotRegistered,
				token,
				token.String()+" is not a registered push notification recipient",
			))
		}
	}

	if len(errors) > 0 {
		return Failed(errors), nil
	}
	return OK(), nil
}

// LastEnvelope returns the most recently sent envelope, or nil when nothing
// was sent.
func (g *InMemory) LastEnvelope() *Envelope {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.envelopes) == 0 {
		return nil
	}
	return g.envelopes[len(g.envelopes)-1]
}

// SentCount returns how many envelopes have been sent.
func (g *InMemory) SentCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.envelopes)
}
