// Package queue provides the SQS producer used to dispatch push jobs to the
// push worker, and the job format both sides share.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
)

// PushJob is the message body exchanged over the push queue. The worker
// resolves the user's registered tokens and delivers one notification built
// from these fields.
type PushJob struct {
	JobID          string         `json:"job_id"`
	UserID         string         `json:"user_id"`
	Title          string         `json:"title,omitempty"`
	Body           string         `json:"body,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	TTL            *int           `json:"ttl,omitempty"`
	Expiration     *int64         `json:"expiration,omitempty"`
	Priority       string         `json:"priority,omitempty"`
	Subtitle       string         `json:"subtitle,omitempty"`
	PlaySound      bool           `json:"play_sound,omitempty"`
	Badge          *int           `json:"badge,omitempty"`
	ChannelID      string         `json:"channel_id,omitempty"`
	CategoryID     string         `json:"category_id,omitempty"`
	MutableContent bool           `json:"mutable_content,omitempty"`
	EnqueuedAt     time.Time      `json:"enqueued_at"`
}

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher serializes push jobs and sends them to the push queue.
type Publisher struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
}

func NewPublisher(client SQSSender, queueURL string, logger *slog.Logger) *Publisher {
	return &Publisher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

// Enqueue dispatches one push job. A missing JobID is assigned and the
// enqueue timestamp is stamped here so the worker can measure queue lag.
// Returns the job ID actually sent.
func (p *Publisher) Enqueue(ctx context.Context, job PushJob) (string, error) {
	if job.JobID == "" {
		job.JobID = fmt.Sprintf("job_%s", uuid.New().String())
	}
	job.EnqueuedAt = time.Now().UTC()

	body, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("queue: failed to marshal push job: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"user_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(job.UserID),
			},
		},
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return "", fmt.Errorf("queue: failed to send push job to %s: %w", p.queueURL, err)
	}

	p.logger.InfoContext(ctx, "push job enqueued",
		"queue_url", p.queueURL,
		"job_id", job.JobID,
		"user_id", job.UserID,
	)

	return job.JobID, nil
}
