// Package handlers contains the HTTP handler implementations for the push API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"expopush/internal/core"
	"expopush/internal/gateway"
	"expopush/internal/types"
)

// PushGateway is the delivery contract the handler depends on. Defined
// locally so tests can inject the in-memory gateway.
type PushGateway interface {
	Send(ctx context.Context, envelope *gateway.Envelope) (gateway.Result, error)
}

// PushHandler maps HTTP requests to gateway deliveries.
type PushHandler struct {
	gateway   PushGateway
	validator *core.Validator
	logger    *slog.Logger
}

func NewPushHandler(gw PushGateway, val *core.Validator, logger *slog.Logger) *PushHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PushHandler{
		gateway:   gw,
		validator: val,
		logger:    logger,
	}
}

// RegisterRoutes mounts the push endpoints onto the mux.
func (h *PushHandler) RegisterRoutes(r chi.Router) {
	r.Post("/push/send", h.HandleSend)
}

// SendPushRequest is the request body for POST /v1/push/send.
type SendPushRequest struct {
	To             []string       `json:"to" validate:"required,min=1,max=100"`
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

// DeliveryErrorDetail is one per-recipient failure in the response body.
type DeliveryErrorDetail struct {
	Type    string `json:"type"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// SendPushResponse is the response body for POST /v1/push/send. A partial
// outcome is still a 200; per-recipient failures are data, not errors.
type SendPushResponse struct {
	Status     string                `json:"status"`
	Recipients int                   `json:"recipients"`
	Errors     []DeliveryErrorDetail `json:"errors,omitempty"`
}

// HandleSend handles POST /v1/push/send.
//  1. Decode and validate the request body.
//  2. Parse every recipient token; any invalid token rejects the request.
//  3. Build the message and envelope.
//  4. Deliver via the gateway; fatal outcomes become 502, partial failures
//     are reported in the response body with a 200.
func (h *PushHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req SendPushRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	tokens := make([]types.PushToken, 0, len(req.To))
	for i, raw := range req.To {
		token, err := types.ParsePushToken(raw)
		if err != nil {
			core.Error(w, r, types.NewAppErrorWithDetails(
				types.ErrCodeValidationInvalidToken,
				"recipient is not a valid push token",
				err,
				map[string]any{"index": i},
			))
			return
		}
		tokens = append(tokens, token)
	}

	message, err := h.buildMessage(req)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	envelope, err := gateway.NewEnvelope(tokens, message)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	result, err := h.gateway.Send(r.Context(), envelope)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if result.IsFatal() {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeUpstreamExpoFatal,
			result.Message(),
			nil,
		))
		return
	}

	resp := SendPushResponse{
		Status:     "ok",
		Recipients: len(tokens),
	}
	if result.IsFailure() {
		resp.Status = "partial"
		for _, derr := range result.Errors() {
			resp.Errors = append(resp.Errors, DeliveryErrorDetail{
				Type:    string(derr.Type),
				Token:   derr.Token.String(),
				Message: derr.Message,
			})
		}
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: resp})
}

// buildMessage translates the DTO into a message through the fluent builder
// so its validation rules apply uniformly to API input.
func (h *PushHandler) buildMessage(req SendPushRequest) (*types.Message, error) {
	message := types.NewMessage(req.Title, req.Body)

	if req.Data != nil {
		message.Data(req.Data)
	}
	if req.TTL != nil {
		message.TTL(*req.TTL)
	}
	if req.Expiration != nil {
		message.ExpiresAtEpoch(*req.Expiration)
	}
	if req.Priority != "" {
		message.Priority(req.Priority)
	}
	if req.Subtitle != "" {
		message.Subtitle(req.Subtitle)
	}
	if req.PlaySound {
		message.PlaySound()
	}
	if req.Badge != nil {
		message.Badge(*req.Badge)
	}
	if req.ChannelID != "" {
		message.ChannelID(req.ChannelID)
	}
	if req.CategoryID != "" {
		message.CategoryID(req.CategoryID)
	}
	if req.MutableContent {
		message.MutableContent(true)
	}

	if err := message.Err(); err != nil {
		return nil, err
	}
	return message, nil
}
