package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"spamstopper/internal/call/models"
	"spamstopper/internal/platform/middleware"
	id "spamstopper/pkg/domain"
	dErrors "spamstopper/pkg/domain-errors"
	"spamstopper/pkg/platform/httputil"
	"spamstopper/pkg/requestcontext"
)

// Service defines the call operations the handler exposes.
type Service interface {
	ListBySubscriber(ctx context.Context, subscriberID id.SubscriberID, limit int) ([]*models.CallLog, error)
	StartTestCall(ctx context.Context, subscriberID id.SubscriberID, personaID id.PersonaID, toNumber id.PhoneNumber) (*models.CallLog, error)
	EndTestCall(ctx context.Context, providerCallID string) error
}

// Handler serves the call history endpoints for the dashboard.
type Handler struct {
	calls     Service
	validator middleware.TokenValidator
	logger    *slog.Logger
}

func New(calls Service, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{calls: calls, validator: validator, logger: logger}
}

// Register registers call history routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator))
		r.Get("/calls", h.handleList)
		r.Post("/calls/test", h.handleStartTest)
		r.Post("/calls/test/end", h.handleEndTest)
	})
}

type startTestRequest struct {
	PersonaID   string `json:"persona_id"`
	PhoneNumber string `json:"phone_number"`
}

type endTestRequest struct {
	CallID string `json:"call_id"`
}

type callLogResponse struct {
	ID              string    `json:"id"`
	CallerNumber    string    `json:"caller_number"`
	PersonaName     string    `json:"persona_name,omitempty"`
	Outcome         string    `json:"outcome,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	DurationSeconds int       `json:"duration_seconds"`
	Status          string    `json:"status"`
	Transcript      string    `json:"transcript,omitempty"`
	RecordingURL    string    `json:"recording_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subscriberID, err := id.ParseSubscriberID(middleware.GetSubscriberID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid subscriber identity"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer"))
			return
		}
	}

	logs, err := h.calls.ListBySubscriber(ctx, subscriberID, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]callLogResponse, 0, len(logs))
	for _, log := range logs {
		out = append(out, callLogResponse{
			ID:              log.ID.String(),
			CallerNumber:    log.CallerNumber,
			PersonaName:     log.PersonaName,
			Outcome:         log.Outcome,
			Reason:          log.Reason,
			DurationSeconds: log.DurationSeconds,
			Status:          string(log.Status),
			Transcript:      log.Transcript,
			RecordingURL:    log.RecordingURL,
			CreatedAt:       log.CreatedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"calls": out})
}

func (h *Handler) handleStartTest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subscriberID, err := id.ParseSubscriberID(middleware.GetSubscriberID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid subscriber identity"))
		return
	}

	req, ok := httputil.DecodeJSON[startTestRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	personaID, err := id.ParsePersonaID(req.PersonaID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "persona_id must be a valid persona"))
		return
	}
	number, err := id.ParsePhoneNumber(req.PhoneNumber)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "phone_number must be in E.164 format"))
		return
	}

	log, err := h.calls.StartTestCall(ctx, subscriberID, personaID, number)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"call_id":          log.ID.String(),
		"provider_call_id": log.ProviderCallID,
		"persona_name":     log.PersonaName,
	})
}

func (h *Handler) handleEndTest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[endTestRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if req.CallID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "call_id is required"))
		return
	}
	if err := h.calls.EndTestCall(ctx, req.CallID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"ended": true})
}
