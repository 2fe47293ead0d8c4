package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"expopush/internal/core"
	"expopush/internal/queue"
)

// JobPublisher is the queue contract the enqueue handler depends on.
type JobPublisher interface {
	Enqueue(ctx context.Context, job queue.PushJob) (string, error)
}

// EnqueueHandler accepts push jobs for asynchronous delivery by the worker.
type EnqueueHandler struct {
	publisher JobPublisher
	validator *core.Validator
	logger    *slog.Logger
}

func NewEnqueueHandler(publisher JobPublisher, val *core.Validator, logger *slog.Logger) *EnqueueHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnqueueHandler{
		publisher: publisher,
		validator: val,
		logger:    logger,
	}
}

// RegisterRoutes mounts the enqueue endpoint onto the mux.
func (h *EnqueueHandler) RegisterRoutes(r chi.Router) {
	r.Post("/push/enqueue", h.HandleEnqueue)
}

// EnqueuePushRequest is the request body for POST /v1/push/enqueue. The
// worker resolves the user's registered tokens at delivery time.
type EnqueuePushRequest struct {
	UserID         string         `json:"user_id" validate:"required,max=128"`
	Title          string         `json:"title,omitempty"`
	Body           string         `json:"body,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	TTL            *int           `json:"ttl,omitempty" validate:"omitempty,min=0"`
	Expiration     *int64         `json:"expiration,omitempty" validate:"omitempty,min=0"`
	Priority       string         `json:"priority,omitempty" validate:"omitempty,oneof=default normal high"`
	Subtitle       string         `json:"subtitle,omitempty"`
	PlaySound      bool           `json:"play_sound,omitempty"`
	Badge          *int           `json:"badge,omitempty" validate:"omitempty,min=0"`
	ChannelID      string         `json:"channel_id,omitempty"`
	CategoryID     string         `json:"category_id,omitempty"`
	MutableContent bool           `json:"mutable_content,omitempty"`
}

// EnqueuePushResponse is the response body for POST /v1/push/enqueue.
type EnqueuePushResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// HandleEnqueue handles POST /v1/push/enqueue. The job is accepted with a
// 202; delivery outcomes surface through the worker's metrics and logs.
func (h *EnqueueHandler) HandleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req EnqueuePushRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	jobID, err := h.publisher.Enqueue(r.Context(), queue.PushJob{
		UserID:         req.UserID,
		Title:          req.Title,
		Body:           req.Body,
		Data:           req.Data,
		TTL:            req.TTL,
		Expiration:     req.Expiration,
		Priority:       req.Priority,
		Subtitle:       req.Subtitle,
		PlaySound:      req.PlaySound,
		Badge:          req.Badge,
		ChannelID:      req.ChannelID,
		CategoryID:     req.CategoryID,
		MutableContent: req.MutableContent,
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusAccepted, core.APIResponse{
		Data: EnqueuePushResponse{JobID: jobID, Status: "queued"},
	})
}
