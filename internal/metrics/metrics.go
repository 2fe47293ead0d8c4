// Package metrics emits delivery telemetry for the push pipeline.
package metrics

import (
	"context"
	"time"
)

// Outcome labels a delivery attempt for the DeliveryAttempt metric.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeFailed  Outcome = "failed"
	OutcomeFatal   Outcome = "fatal"
	OutcomeInvalid Outcome = "invalid"
)

// DeliveryMetrics records the outcome of push deliveries. Implementations
// must never fail the delivery path; emission errors are logged and dropped.
type DeliveryMetrics interface {
	// RecordDelivery emits one DeliveryAttempt datum plus the number of
	// recipients the attempt covered.
	RecordDelivery(ctx context.Context, outcome Outcome, recipients int)

	// RecordLatency emits the wall-clock time of one relay round trip.
	RecordLatency(ctx context.Context, duration time.Duration)

	// RecordTokensPruned emits how many dead tokens a delivery removed.
	RecordTokensPruned(ctx context.Context, count int)
}

// Noop discards all metrics. Used when metrics are disabled in config.
type Noop struct{}

var _ DeliveryMetrics = (*Noop)(nil)

func (Noop) RecordDelivery(context.Context, Outcome, int) {}
func (Noop) RecordLatency(context.Context, time.Duration) {}
func (Noop) RecordTokensPruned(context.Context, int)      {}
