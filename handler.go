package paddlewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dawitel/paddle-webhook/billing"
	"github.com/rs/zerolog"
)

// EventProcessor consumes authenticated webhook events.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, event *billing.Event) error
}

// Handler handles HTTP webhook requests
type Handler struct {
	verifier    *Verifier
	processor   EventProcessor
	logger      zerolog.Logger
	maxBodySize int64
}

// NewHandler creates a new handler for Paddle webhooks
func NewHandler(
	verifier *Verifier,
	processor EventProcessor,
	logger zerolog.Logger,
	maxBodySize int64,
) *Handler {
	return &Handler{
		verifier:    verifier,
		processor:   processor,
		logger:      logger,
		maxBodySize: maxBodySize,
	}
}

type webhookResponse struct {
	OK    bool   `json:"ok"`
	Event string `json:"event,omitempty"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

// HandleWebhook handles incoming webhook requests
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error().
				Interface("panic", rec).
				Msg("Panic recovered in webhook handler")
			webhookRequests.WithLabelValues("panic").Inc()
			h.writeResponse(w, http.StatusInternalServerError, webhookResponse{OK: false, Error: "internal server error"})
		}
	}()

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+SignatureHeader)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		webhookRequests.WithLabelValues("method_not_allowed").Inc()
		h.writeResponse(w, http.StatusMethodNotAllowed, webhookResponse{OK: false, Error: "method not allowed"})
		return
	}

	limitedBody := http.MaxBytesReader(w, r.Body, h.maxBodySize)
	body, err := io.ReadAll(limitedBody)
	if err != nil {
		if err.Error() == "http: request body too large" {
			h.logger.Warn().
				Int64("max_size", h.maxBodySize).
				Msg("Webhook request body exceeds maximum size")
			webhookRequests.WithLabelValues("body_too_large").Inc()
			h.writeResponse(w, http.StatusRequestEntityTooLarge, webhookResponse{OK: false, Error: "request body too large"})
			return
		}
		h.logger.Error().Err(err).Msg("Failed to read webhook body")
		webhookRequests.WithLabelValues("read_error").Inc()
		h.writeResponse(w, http.StatusBadRequest, webhookResponse{OK: false, Error: "failed to read body"})
		return
	}

	event, err := h.verifier.VerifyAndParse(body, r.Header.Get(SignatureHeader))
	if err != nil {
		h.rejectEvent(w, err)
		return
	}

	// Collaborator failures are recovered inside the processor; the provider
	// acknowledgment must not depend on them.
	if err := h.processor.ProcessEvent(r.Context(), event); err != nil {
		h.logger.Error().Err(err).
			Str("event_id", event.EventID).
			Str("event_type", event.EventType).
			Msg("Failed to process webhook event")
	}

	webhookRequests.WithLabelValues("ok").Inc()
	h.writeResponse(w, http.StatusOK, webhookResponse{OK: true, Event: event.EventType, ID: event.EventID})
}

// rejectEvent maps a verification failure onto the response contract. An
// unverified payload never reaches the processor.
func (h *Handler) rejectEvent(w http.ResponseWriter, err error) {
	verificationFailures.WithLabelValues(verificationReason(err)).Inc()

	if errors.Is(err, ErrServerMisconfigured) {
		h.logger.Error().Msg("Webhook secret not configured, rejecting all events")
		webhookRequests.WithLabelValues("misconfigured").Inc()
		h.writeResponse(w, http.StatusInternalServerError, webhookResponse{OK: false, Error: ErrServerMisconfigured.Error()})
		return
	}

	h.logger.Warn().Err(err).Msg("Rejected webhook event")
	webhookRequests.WithLabelValues("rejected").Inc()
	h.writeResponse(w, http.StatusBadRequest, webhookResponse{OK: false, Error: err.Error()})
}

func (h *Handler) writeResponse(w http.ResponseWriter, status int, resp webhookResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write webhook response")
	}
}
