package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"expopush/internal/types"
)

const (
	storeTokenA = "ExponentPushToken[FtT1dBIc5Wp92HEGuJUhL4]"
	storeTokenB = "ExpoPushToken[Wi54gvIrap4SDW4Dsh6b0h]"
)

// --- Mock DBTX ---

type mockDBTX struct {
	mock.Mock
}

func (m *mockDBTX) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDBTX) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if r := args.Get(0); r != nil {
		return r.(pgx.Rows), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDBTX) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// --- Mock Rows ---

// mockRows implements pgx.Rows for testing Query results.
type mockRows struct {
	data    [][]any
	idx     int
	closed  bool
	scanErr error
	errVal  error
}

func newMockRows(data [][]any) *mockRows {
	return &mockRows{data: data, idx: -1}
}

func (r *mockRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx < len(r.data)
}

func (r *mockRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.idx]
	for i, d := range dest {
		switch v := d.(type) {
		case *string:
			*v = row[i].(string)
		}
	}
	return nil
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.errVal }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

// mockLogger counts warnings so pruning of malformed rows is observable.
type mockLogger struct {
	warnings []string
}

func (m *mockLogger) Info(msg string, args ...any)  {}
func (m *mockLogger) Error(msg string, args ...any) {}
func (m *mockLogger) Warn(msg string, args ...any)  { m.warnings = append(m.warnings, msg) }
func (m *mockLogger) With(args ...any) types.Logger { return m }

// --- PostgresTokenStore Tests ---

func TestPostgresTokenStore_GetTokens_Success(t *testing.T) {
	db := new(mockDBTX)
	store, err := NewPostgresTokenStore(db, &mockLogger{})
	require.NoError(t, err)

	rows := newMockRows([][]any{
		{storeTokenA},
		{storeTokenB},
	})
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	tokens, err := store.GetTokens(context.Background(), "user_1")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, storeTokenA, tokens[0].String())
	assert.Equal(t, storeTokenB, tokens[1].String())
	db.AssertExpectations(t)
}

func TestPostgresTokenStore_GetTokens_SkipsMalformedRows(t *testing.T) {
	db := new(mockDBTX)
	logger := &mockLogger{}
	store, err := NewPostgresTokenStore(db, logger)
	require.NoError(t, err)

	rows := newMockRows([][]any{
		{storeTokenA},
		{"not-a-push-token"},
		{storeTokenB},
	})
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	tokens, err := store.GetTokens(context.Background(), "user_1")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, storeTokenA, tokens[0].String())
	assert.Equal(t, storeTokenB, tokens[1].String())
	assert.Len(t, logger.warnings, 1)
}

func TestPostgresTokenStore_GetTokens_Empty(t *testing.T) {
	db := new(mockDBTX)
	store, err := NewPostgresTokenStore(db, &mockLogger{})
	require.NoError(t, err)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(newMockRows(nil), nil)

	tokens, err := store.GetTokens(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestPostgresTokenStore_GetTokens_QueryError(t *testing.T) {
	db := new(mockDBTX)
	store, err := NewPostgresTokenStore(db, &mockLogger{})
	require.NoError(t, err)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err = store.GetTokens(context.Background(), "user_1")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeInternalStore, appErr.Code)
}

func TestPostgresTokenStore_GetTokens_RowsError(t *testing.T) {
	db := new(mockDBTX)
	store, err := NewPostgresTokenStore(db, &mockLogger{})
	require.NoError(t, err)

	rows := newMockRows([][]any{{storeTokenA}})
	rows.errVal = errors.New("broken stream")
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	_, err = store.GetTokens(context.Background(), "user_1")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeInternalStore, appErr.Code)
}

func TestPostgresTokenStore_RemoveTokens_Success(t *testing.T) {
	db := new(mockDBTX)
	store, err := NewPostgresTokenStore(db, &mockLogger{})
	require.NoError(t, err)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"),
		[]any{"user_1", []string{storeTokenA}}).
		Return(pgconn.NewCommandTag("DELETE 1"), nil)

	err = store.RemoveTokens(context.Background(), "user_1",
		[]types.PushToken{types.MustParsePushToken(storeTokenA)})
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestPostgresTokenStore_RemoveTokens_Empty(t *testing.T) {
	db := new(mockDBTX)
	store, err := NewPostgresTokenStore(db, &mockLogger{})
	require.NoError(t, err)

	err = store.RemoveTokens(context.Background(), "user_1", nil)
	require.NoError(t, err)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestPostgresTokenStore_RemoveTokens_ExecError(t *testing.T) {
	db := new(mockDBTX)
	store, err := NewPostgresTokenStore(db, &mockLogger{})
	require.NoError(t, err)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection refused"))

	err = store.RemoveTokens(context.Background(), "user_1",
		[]types.PushToken{types.MustParsePushToken(storeTokenA)})
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeInternalStore, appErr.Code)
}
