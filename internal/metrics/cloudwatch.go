package metrics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"expopush/internal/types"
)

const (
	metricDeliveryAttempt = "DeliveryAttempt"
	metricDeliveryLatency = "DeliveryLatency"
	metricRecipients      = "Recipients"
	metricTokensPruned    = "TokensPruned"

	dimOutcome = "Outcome"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchDeliveryMetrics publishes delivery telemetry to a CloudWatch
// namespace.
//
// Metrics emitted:
//   - DeliveryAttempt: Dims {Outcome} -- on every relay round trip
//   - Recipients: Dims {Outcome} -- batch size of the attempt
//   - DeliveryLatency: No dims -- relay round-trip time
//   - TokensPruned: No dims -- dead tokens removed after a delivery
type CloudWatchDeliveryMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

var _ DeliveryMetrics = (*CloudWatchDeliveryMetrics)(nil)

func NewCloudWatchDeliveryMetrics(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchDeliveryMetrics {
	return &CloudWatchDeliveryMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

func (m *CloudWatchDeliveryMetrics) RecordDelivery(ctx context.Context, outcome Outcome, recipients int) {
	dims := []cwtypes.Dimension{
		{
			Name:  aws.String(dimOutcome),
			Value: aws.String(string(outcome)),
		},
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(metricDeliveryAttempt),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: dims,
			},
			{
				MetricName: aws.String(metricRecipients),
				Value:      aws.Float64(float64(recipients)),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: dims,
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record delivery metric",
			"error", err.Error(),
			"outcome", string(outcome),
		)
	}
}

// RecordLatency emits the relay round-trip time in milliseconds.
func (m *CloudWatchDeliveryMetrics) RecordLatency(ctx context.Context, duration time.Duration) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(metricDeliveryLatency),
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record latency metric",
			"error", err.Error(),
			"duration_ms", duration.Milliseconds(),
		)
	}
}

func (m *CloudWatchDeliveryMetrics) RecordTokensPruned(ctx context.Context, count int) {
	if count == 0 {
		return
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(metricTokensPruned),
				Value:      aws.Float64(float64(count)),
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record pruning metric",
			"error", err.Error(),
			"count", count,
		)
	}
}
