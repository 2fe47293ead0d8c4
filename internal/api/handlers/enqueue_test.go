package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expopush/internal/core"
	"expopush/internal/queue"
	"expopush/internal/types"
)

// stubPublisher records enqueued jobs.
type stubPublisher struct {
	jobs []queue.PushJob
	err  error
}

func (p *stubPublisher) Enqueue(_ context.Context, job queue.PushJob) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.jobs = append(p.jobs, job)
	return "job_test123", nil
}

func newEnqueueRouter(t *testing.T, publisher JobPublisher) http.Handler {
	t.Helper()
	logger := slog.Default()
	h := NewEnqueueHandler(publisher, core.NewValidator(logger), logger)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postEnqueue(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/push/enqueue", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHandleEnqueue_Accepted(t *testing.T) {
	publisher := &stubPublisher{}
	handler := newEnqueueRouter(t, publisher)

	w := postEnqueue(t, handler, `{
		"user_id": "user_1",
		"title": "Hello",
		"body": "World",
		"priority": "high"
	}`)

	require.Equal(t, http.StatusAccepted, w.Code)

	var envelope struct {
		Data EnqueuePushResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "job_test123", envelope.Data.JobID)
	assert.Equal(t, "queued", envelope.Data.Status)

	require.Len(t, publisher.jobs, 1)
	job := publisher.jobs[0]
	assert.Equal(t, "user_1", job.UserID)
	assert.Equal(t, "Hello", job.Title)
	assert.Equal(t, "high", job.Priority)
}

func TestHandleEnqueue_MissingUserID(t *testing.T) {
	publisher := &stubPublisher{}
	handler := newEnqueueRouter(t, publisher)

	w := postEnqueue(t, handler, `{"title": "Hello"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp core.APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(types.ErrCodeValidationInvalidArgument), resp.Error.Code)
	assert.Empty(t, publisher.jobs)
}

func TestHandleEnqueue_PublisherError(t *testing.T) {
	publisher := &stubPublisher{err: errors.New("queue unreachable")}
	handler := newEnqueueRouter(t, publisher)

	w := postEnqueue(t, handler, `{"user_id": "user_1"}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp core.APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(types.ErrCodeInternalUnexpected), resp.Error.Code)
	assert.NotContains(t, w.Body.String(), "queue unreachable")
}
