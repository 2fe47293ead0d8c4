// Package main is the entry point for the push worker Lambda.
//
// The worker consumes push jobs from SQS, resolves each user's registered
// tokens, delivers the notification through the Expo gateway, and prunes
// tokens the relay reports as dead. Messages that fail transiently are
// returned as partial batch failures so SQS redelivers them; permanently
// broken messages are acknowledged and logged.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"expopush/internal/channel"
	"expopush/internal/config"
	"expopush/internal/gateway"
	"expopush/internal/metrics"
	"expopush/internal/queue"
	"expopush/internal/store"
	"expopush/internal/types"
)

// maxConcurrentRecords bounds how many SQS records are processed in parallel.
const maxConcurrentRecords = 4

// slogAdapter wraps *slog.Logger to implement the types.Logger interface.
// slog.Logger satisfies Info, Error, and Warn directly but With returns
// *slog.Logger, not types.Logger, so an adapter is necessary.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *slogAdapter) With(args ...any) types.Logger {
	return &slogAdapter{logger: a.logger.With(args...)}
}

var _ types.Logger = (*slogAdapter)(nil)

// jobRecipient adapts a resolved token batch to the channel's recipient
// routing contract.
type jobRecipient struct {
	tokens []types.PushToken
}

func (r *jobRecipient) RouteNotificationFor(string) ([]types.PushToken, error) {
	return r.tokens, nil
}

// jobNotification builds the push message described by a queued job.
type jobNotification struct {
	job queue.PushJob
}

func (n *jobNotification) ToPush(any) (*types.Message, error) {
	message := types.NewMessage(n.job.Title, n.job.Body)

	if n.job.Data != nil {
		message.Data(n.job.Data)
	}
	if n.job.TTL != nil {
		message.TTL(*n.job.TTL)
	}
	if n.job.Expiration != nil {
		message.ExpiresAtEpoch(*n.job.Expiration)
	}
	if n.job.Priority != "" {
		message.Priority(n.job.Priority)
	}
	if n.job.Subtitle != "" {
		message.Subtitle(n.job.Subtitle)
	}
	if n.job.PlaySound {
		message.PlaySound()
	}
	if n.job.Badge != nil {
		message.Badge(*n.job.Badge)
	}
	if n.job.ChannelID != "" {
		message.ChannelID(n.job.ChannelID)
	}
	if n.job.CategoryID != "" {
		message.CategoryID(n.job.CategoryID)
	}
	if n.job.MutableContent {
		message.MutableContent(true)
	}

	if err := message.Err(); err != nil {
		return nil, err
	}
	return message, nil
}

// failureCollector gathers per-recipient failures from one send so the
// worker can prune dead tokens afterwards. Safe for concurrent reports.
type failureCollector struct {
	mu       sync.Mutex
	failures []channel.Failure
}

func (c *failureCollector) NotificationFailed(_ context.Context, failure channel.Failure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, failure)
}

func (c *failureCollector) deadTokens() []types.PushToken {
	c.mu.Lock()
	defer c.mu.Unlock()

	var dead []types.PushToken
	for _, f := range c.failures {
		if f.Error.Type.IsDeviceNotRegistered() {
			dead = append(dead, f.Error.Token)
		}
	}
	return dead
}

func (c *failureCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.failures)
}

// Handler holds the dependencies for the push worker Lambda handler.
type Handler struct {
	gateway gateway.Gateway
	store   store.TokenStore
	metrics metrics.DeliveryMetrics
	logger  types.Logger
}

// Handle processes an SQS event containing one or more push jobs. Records
// are processed concurrently; each failing record is reported as a partial
// batch failure so SQS retries only that record.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	var (
		mu       sync.Mutex
		response events.SQSEventResponse
	)

	var g errgroup.Group
	g.SetLimit(maxConcurrentRecords)

	for _, record := range sqsEvent.Records {
		g.Go(func() error {
			if err := h.processRecord(ctx, record); err != nil {
				h.logger.Error("failed to process push job",
					"message_id", record.MessageId,
					"error", err.Error(),
				)
				mu.Lock()
				response.BatchItemFailures = append(response.BatchItemFailures,
					events.SQSBatchItemFailure{ItemIdentifier: record.MessageId},
				)
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	return response, nil
}

// processRecord handles a single push job. A returned error means the
// record should be redelivered; permanent failures return nil after
// logging.
func (h *Handler) processRecord(ctx context.Context, record events.SQSMessage) error {
	start := time.Now()

	var job queue.PushJob
	if err := json.Unmarshal([]byte(record.Body), &job); err != nil {
		// Permanent parse failure - do not retry.
		h.logger.Error("failed to unmarshal push job",
			"message_id", record.MessageId,
			"error", err.Error(),
		)
		return nil
	}

	logger := h.logger.With(
		"job_id", job.JobID,
		"user_id", job.UserID,
	)

	tokens, err := h.store.GetTokens(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("resolve tokens: %w", err)
	}
	if len(tokens) == 0 {
		logger.Info("user has no registered push tokens, skipping")
		return nil
	}

	collector := &failureCollector{}
	ch, err := channel.NewChannel(h.gateway, collector, logger)
	if err != nil {
		return fmt.Errorf("create channel: %w", err)
	}

	recipient := &jobRecipient{tokens: tokens}
	notification := &jobNotification{job: job}

	sendErr := ch.Send(ctx, recipient, notification)
	h.metrics.RecordLatency(ctx, time.Since(start))

	if sendErr != nil {
		var appErr *types.AppError
		if errors.As(sendErr, &appErr) && appErr.Code.HTTPStatus() < 500 {
			// Validation or misconfiguration: redelivery cannot fix it.
			logger.Error("push job permanently rejected", "error", sendErr.Error())
			h.metrics.RecordDelivery(ctx, metrics.OutcomeInvalid, len(tokens))
			return nil
		}

		h.metrics.RecordDelivery(ctx, metrics.OutcomeFatal, len(tokens))
		return fmt.Errorf("deliver push: %w", sendErr)
	}

	if collector.count() > 0 {
		h.metrics.RecordDelivery(ctx, metrics.OutcomeFailed, len(tokens))
		h.pruneDeadTokens(ctx, job.UserID, collector.deadTokens(), logger)
		return nil
	}

	h.metrics.RecordDelivery(ctx, metrics.OutcomeOK, len(tokens))
	return nil
}

// pruneDeadTokens removes DeviceNotRegistered recipients so future jobs stop
// targeting them. Pruning is best-effort; a store failure does not fail the
// job, the tokens will be reported dead again on the next delivery.
func (h *Handler) pruneDeadTokens(ctx context.Context, userID string, dead []types.PushToken, logger types.Logger) {
	if len(dead) == 0 {
		return
	}

	if err := h.store.RemoveTokens(ctx, userID, dead); err != nil {
		logger.Error("failed to prune dead tokens",
			"count", len(dead),
			"error", err.Error(),
		)
		return
	}

	logger.Info("pruned dead push tokens", "count", len(dead))
	h.metrics.RecordTokensPruned(ctx, len(dead))
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("push worker initializing (cold start)")

	typedLogger := &slogAdapter{logger: logger}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("failed to load AWS SDK config", "error", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL.Unmask())
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}

	var tokenStore store.TokenStore
	tokenStore, err = store.NewPostgresTokenStore(pool, typedLogger)
	if err != nil {
		logger.Error("failed to create token store", "error", err)
		os.Exit(1)
	}

	if cfg.Cache.Addr != "" {
		cacheClient, cacheErr := store.NewRedisCacheClient(ctx, cfg.Cache)
		if cacheErr != nil {
			logger.Error("failed to connect to token cache", "error", cacheErr)
			os.Exit(1)
		}
		tokenStore, err = store.NewCachedTokenStore(tokenStore, cacheClient, cfg.Cache.TokenTTL, typedLogger)
		if err != nil {
			logger.Error("failed to create cached token store", "error", err)
			os.Exit(1)
		}
	}

	gw, err := gateway.NewHTTPGateway(cfg.Expo, typedLogger)
	if err != nil {
		logger.Error("failed to create push gateway", "error", err)
		os.Exit(1)
	}

	var deliveryMetrics metrics.DeliveryMetrics = metrics.Noop{}
	if cfg.Metrics.Enabled {
		cwClient := cloudwatch.NewFromConfig(awsCfg)
		deliveryMetrics = metrics.NewCloudWatchDeliveryMetrics(cwClient, cfg.Metrics.Namespace, typedLogger)
	}

	handler := &Handler{
		gateway: gw,
		store:   tokenStore,
		metrics: deliveryMetrics,
		logger:  typedLogger,
	}

	logger.Info("push worker initialized",
		"environment", cfg.Environment,
		"metrics_enabled", cfg.Metrics.Enabled,
		"cache_enabled", cfg.Cache.Addr != "",
	)

	lambda.Start(handler.Handle)
}
