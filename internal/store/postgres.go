package store

import (
	"context"
	"errors"
	"fmt"

	"expopush/internal/types"
)

// PostgresTokenStore reads device tokens from the device_tokens table.
type PostgresTokenStore struct {
	db     DBTX
	logger types.Logger
}

var _ TokenStore = (*PostgresTokenStore)(nil)

func NewPostgresTokenStore(db DBTX, logger types.Logger) (*PostgresTokenStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &PostgresTokenStore{db: db, logger: logger}, nil
}

func (s *PostgresTokenStore) GetTokens(ctx context.Context, userID string) ([]types.PushToken, error) {
	query := `
		SELECT token
		FROM device_tokens
		WHERE user_id = $1
		ORDER BY created_at ASC`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore, "failed to query device tokens", err)
	}
	defer rows.Close()

	var tokens []types.PushToken
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalStore, "failed to scan device token", err)
		}

		token, err := types.ParsePushToken(raw)
		if err != nil {
			// A malformed row should not poison the whole batch.
			s.logger.Warn("skipping malformed device token",
				"user_id", userID,
				"error", err.Error(),
			)
			continue
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore, "failed to read device tokens", err)
	}

	return tokens, nil
}

func (s *PostgresTokenStore) RemoveTokens(ctx context.Context, userID string, tokens []types.PushToken) error {
	if len(tokens) == 0 {
		return nil
	}

	values := make([]string, len(tokens))
	for i, token := range tokens {
		values[i] = token.String()
	}

	query := `
		DELETE FROM device_tokens
		WHERE user_id = $1 AND token = ANY($2)`

	tag, err := s.db.Exec(ctx, query, userID, values)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalStore, "failed to remove device tokens", err)
	}

	if tag.RowsAffected() < int64(len(tokens)) {
		s.logger.Info(fmt.Sprintf("removed %d of %d device tokens", tag.RowsAffected(), len(tokens)),
			"user_id", userID,
		)
	}
	return nil
}
