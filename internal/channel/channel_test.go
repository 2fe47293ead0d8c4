package channel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expopush/internal/gateway"
	"expopush/internal/types"
)

// mockLogger is a no-op logger for testing.
type mockLogger struct{}

func (m *mockLogger) Info(msg string, args ...any)  {}
func (m *mockLogger) Error(msg string, args ...any) {}
func (m *mockLogger) Warn(msg string, args ...any)  {}
func (m *mockLogger) With(args ...any) types.Logger { return m }

// recordingSink captures failure reports in order.
type recordingSink struct {
	failures []Failure
}

func (s *recordingSink) NotificationFailed(_ context.Context, failure Failure) {
	s.failures = append(s.failures, failure)
}

// testUser routes a fixed token batch.
type testUser struct {
	tokens []types.PushToken
	err    error
}

func (u *testUser) RouteNotificationFor(channel string) ([]types.PushToken, error) {
	if u.err != nil {
		return nil, u.err
	}
	return u.tokens, nil
}

// testNotification provides a fixed message.
type testNotification struct {
	message *types.Message
	err     error
}

func (n *testNotification) ToPush(notifiable any) (*types.Message, error) {
	if n.err != nil {
		return nil, n.err
	}
	return n.message, nil
}

// unroutable implements neither collaborator contract.
type unroutable struct{}

var (
	tokenA = types.MustParsePushToken("ExpoPushToken[Wi54gvIrap4SDW4Dsh6b0h]")
	tokenB = types.MustParsePushToken("ExpoPushToken[zblQYn7ReoYrLoHYsXSe0q]")
)

func newTestChannel(t *testing.T, gw gateway.Gateway) (*Channel, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	ch, err := NewChannel(gw, sink, &mockLogger{})
	require.NoError(t, err)
	return ch, sink
}

func TestNewChannel_Validation(t *testing.T) {
	_, err := NewChannel(nil, &recordingSink{}, &mockLogger{})
	require.Error(t, err)

	_, err = NewChannel(gateway.NewInMemory(), nil, &mockLogger{})
	require.Error(t, err)

	_, err = NewChannel(gateway.NewInMemory(), &recordingSink{}, nil)
	require.Error(t, err)
}

func TestSend_NoRecipientsIsANoOp(t *testing.T) {
	gw := gateway.NewInMemory()
	ch, sink := newTestChannel(t, gw)

	err := ch.Send(context.Background(), &testUser{}, &testNotification{message: types.NewMessage("a", "b")})
	require.NoError(t, err)

	assert.Zero(t, gw.SentCount(), "the gateway must not be invoked for an empty batch")
	assert.Empty(t, sink.failures)
}

func TestSend_OK(t *testing.T) {
	gw := gateway.NewInMemory().Register(tokenA, tokenB)
	ch, sink := newTestChannel(t, gw)

	user := &testUser{tokens: []types.PushToken{tokenA, tokenB}}
	err := ch.Send(context.Background(), user, &testNotification{message: types.NewMessage("a", "b")})
	require.NoError(t, err)

	assert.Equal(t, 1, gw.SentCount())
	assert.Empty(t, sink.failures, "a clean send completes silently")
}

func TestSend_PartialFailureReportsEachRecipient(t *testing.T) {
	gw := gateway.NewInMemory()
	ch, sink := newTestChannel(t, gw)

	user := &testUser{tokens: []types.PushToken{tokenA, tokenB}}
	notification := &testNotification{message: types.NewMessage("a", "b")}
	err := ch.Send(context.Background(), user, notification)
	require.NoError(t, err, "a partial failure does not fail the attempt")

	require.Len(t, sink.failures, 2, "one report per failed recipient, never batched")
	assert.True(t, sink.failures[0].Error.Token.Equals(tokenA))
	assert.True(t, sink.failures[1].Error.Token.Equals(tokenB))
	for _, failure := range sink.failures {
		assert.Same(t, user, failure.Notifiable)
		assert.Same(t, notification, failure.Notification)
		assert.Equal(t, Name, failure.Channel)
	}
}

func TestSend_FatalFailsTheAttempt(t *testing.T) {
	gw := gateway.NewInMemory().Register(tokenA).Bail("ran out of juice")
	ch, sink := newTestChannel(t, gw)

	err := ch.Send(context.Background(),
		&testUser{tokens: []types.PushToken{tokenA}},
		&testNotification{message: types.NewMessage("a", "b")},
	)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeUpstreamExpoFatal, appErr.Code)
	assert.Contains(t, appErr.Message, "ran out of juice")
	assert.Empty(t, sink.failures)
}

func TestSend_NotifiableWithoutRouterIsMisconfiguration(t *testing.T) {
	ch, _ := newTestChannel(t, gateway.NewInMemory())

	err := ch.Send(context.Background(), &unroutable{}, &testNotification{message: types.NewMessage("a", "b")})
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeMisconfiguredRecipients, appErr.Code)
}

func TestSend_RouterErrorIsMisconfiguration(t *testing.T) {
	ch, _ := newTestChannel(t, gateway.NewInMemory())

	err := ch.Send(context.Background(),
		&testUser{err: errors.New("bad shape")},
		&testNotification{message: types.NewMessage("a", "b")},
	)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeMisconfiguredRecipients, appErr.Code)
}

func TestSend_NotificationWithoutMessageIsMisconfiguration(t *testing.T) {
	ch, _ := newTestChannel(t, gateway.NewInMemory())

	err := ch.Send(context.Background(), &testUser{tokens: []types.PushToken{tokenA}}, &unroutable{})
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeMisconfiguredMessage, appErr.Code)
}

func TestSend_InvalidMessageSurfacesValidationError(t *testing.T) {
	gw := gateway.NewInMemory().Register(tokenA)
	ch, _ := newTestChannel(t, gw)

	err := ch.Send(context.Background(),
		&testUser{tokens: []types.PushToken{tokenA}},
		&testNotification{message: types.NewMessage("a", "b").TTL(-1)},
	)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationInvalidMessage, appErr.Code)
	assert.Zero(t, gw.SentCount())
}
