// Package channel orchestrates one notification-send attempt: it asks the
// surrounding application for recipients and a message, hands the resulting
// envelope to the gateway, and interprets the relay's outcome.
package channel

import (
	"context"
	"errors"
	"fmt"

	"expopush/internal/gateway"
	"expopush/internal/types"
)

// Name is the channel's identifier, passed to recipient routing and failure
// reporting.
const Name = "expo"

// RecipientRouter yields the push tokens a notifiable entity should be
// reached on for a given channel. Implemented by the application's user or
// device models (or a token store adapter).
type RecipientRouter interface {
	RouteNotificationFor(channel string) ([]types.PushToken, error)
}

// MessageProvider produces the message a notification wants delivered to
// the given notifiable. A notification that cannot produce a push message
// is a caller-side configuration error.
type MessageProvider interface {
	ToPush(notifiable any) (*types.Message, error)
}

// Failure associates one rejected recipient with the send that produced it.
type Failure struct {
	Notifiable   any
	Notification any
	Channel      string
	Error        types.DeliveryError
}

// FailureSink receives one report per rejected recipient. Partial failures
// are routine outcomes: the sink is informed, the send still completes.
type FailureSink interface {
	NotificationFailed(ctx context.Context, failure Failure)
}

// Channel sends notifications through the push gateway. It holds no
// per-send state and is safe for concurrent use.
type Channel struct {
	gateway gateway.Gateway
	events  FailureSink
	logger  types.Logger
}

// NewChannel creates a Channel with the given gateway and failure sink.
func NewChannel(gw gateway.Gateway, events FailureSink, logger types.Logger) (*Channel, error) {
	if gw == nil {
		return nil, fmt.Errorf("channel: gateway is nil")
	}
	if events == nil {
		return nil, fmt.Errorf("channel: failure sink is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("channel: logger is nil")
	}
	return &Channel{
		gateway: gw,
		events:  events,
		logger:  logger.With("channel", Name),
	}, nil
}

// Send delivers notification to notifiable's push tokens.
//
// Zero recipients is a no-op, not an error. A partial failure reports each
// rejected recipient to the failure sink and still returns nil; only a
// fatal relay outcome or a transport failure fails the attempt. There is no
// retry here; retry policy, if any, belongs to the caller.
func (c *Channel) Send(ctx context.Context, notifiable, notification any) error {
	tokens, err := c.routeTokens(notifiable)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	message, err := c.resolveMessage(notifiable, notification)
	if err != nil {
		return err
	}

	envelope, err := gateway.NewEnvelope(tokens, message)
	if err != nil {
		return err
	}

	result, err := c.gateway.Send(ctx, envelope)
	if err != nil {
		var appErr *types.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return types.NewAppError(
			types.ErrCodeUpstreamExpoFatal,
			"the push service response could not be interpreted",
			err,
		)
	}

	switch {
	case result.IsFailure():
		c.reportFailures(ctx, notifiable, notification, result.Errors())
		return nil
	case result.IsFatal():
		return types.NewAppError(
			types.ErrCodeUpstreamExpoFatal,
			fmt.Sprintf("expo responded with an error: %s", result.Message()),
			nil,
		)
	default:
		return nil
	}
}

// routeTokens resolves the recipient batch from the notifiable.
func (c *Channel) routeTokens(notifiable any) ([]types.PushToken, error) {
	router, ok := notifiable.(RecipientRouter)
	if !ok {
		return nil, types.NewAppError(
			types.ErrCodeMisconfiguredRecipients,
			fmt.Sprintf("%T cannot route %s notifications", notifiable, Name),
			nil,
		)
	}

	tokens, err := router.RouteNotificationFor(Name)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeMisconfiguredRecipients,
			"resolving recipients failed",
			err,
		)
	}
	return tokens, nil
}

// resolveMessage obtains the message from the notification.
func (c *Channel) resolveMessage(notifiable, notification any) (*types.Message, error) {
	provider, ok := notification.(MessageProvider)
	if !ok {
		return nil, types.NewAppError(
			types.ErrCodeMisconfiguredMessage,
			fmt.Sprintf("%T does not provide a push message", notification),
			nil,
		)
	}

	message, err := provider.ToPush(notifiable)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeMisconfiguredMessage,
			"building the push message failed",
			err,
		)
	}
	return message, nil
}

// reportFailures forwards each rejection to the sink, one call per failed
// recipient, preserving ticket order.
func (c *Channel) reportFailures(ctx context.Context, notifiable, notification any, errs []types.DeliveryError) {
	c.logger.Warn("push batch partially failed", "failed_recipients", len(errs))

	for _, deliveryErr := range errs {
		c.events.NotificationFailed(ctx, Failure{
			Notifiable:   notifiable,
			Notification: notification,
			Channel:      Name,
			Error:        deliveryErr,
		})
	}
}
