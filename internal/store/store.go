// Package store provides the recipient sources backing the push platform:
// a PostgreSQL device-token store and a Redis read-through cache layered on
// top of it. Registration of new devices is the surrounding application's
// concern; this package only resolves and prunes recipients.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"expopush/internal/types"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx, so the
// same store works inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TokenStore resolves and prunes the push tokens registered for a user.
type TokenStore interface {
	// GetTokens returns the valid tokens registered for the user, in
	// registration order. An empty result is not an error.
	GetTokens(ctx context.Context, userID string) ([]types.PushToken, error)

	// RemoveTokens deletes tokens the relay reported as dead
	// (DeviceNotRegistered) so they are not dispatched to again.
	RemoveTokens(ctx context.Context, userID string, tokens []types.PushToken) error
}
