package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"spamstopper/internal/platform/middleware"
	"spamstopper/internal/subscriber/models"
	"spamstopper/internal/subscriber/service"
	id "spamstopper/pkg/domain"
	dErrors "spamstopper/pkg/domain-errors"
	"spamstopper/pkg/platform/httputil"
	"spamstopper/pkg/requestcontext"
)

// Service defines the subscriber operations the handler exposes.
type Service interface {
	Register(ctx context.Context, params service.RegisterParams) (*models.Subscriber, error)
	Get(ctx context.Context, subscriberID id.SubscriberID) (*models.Subscriber, error)
	UpdateSettings(ctx context.Context, subscriberID id.SubscriberID, params service.SettingsParams) (*models.Subscriber, error)
	BlockNumber(ctx context.Context, subscriberID id.SubscriberID, number string) (*models.Subscriber, error)
	UnblockNumber(ctx context.Context, subscriberID id.SubscriberID, number string) (*models.Subscriber, error)
	Delete(ctx context.Context, subscriberID id.SubscriberID) error
}

// TokenIssuer signs access tokens for freshly registered accounts.
type TokenIssuer interface {
	GenerateAccessToken(ctx context.Context, subscriberID id.SubscriberID, email string) (string, error)
}

// Handler serves subscriber account endpoints.
type Handler struct {
	subscribers Service
	tokens      TokenIssuer
	validator   middleware.TokenValidator
	logger      *slog.Logger
}

// New creates a subscriber Handler.
func New(subscribers Service, tokens TokenIssuer, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		subscribers: subscribers,
		tokens:      tokens,
		validator:   validator,
		logger:      logger,
	}
}

// Register registers subscriber routes with the chi router. Signup is
// public; everything under /subscribers/me requires a bearer token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/subscribers", h.handleRegister)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator))
		r.Get("/subscribers/me", h.handleGetSelf)
		r.Patch("/subscribers/me", h.handleUpdateSettings)
		r.Delete("/subscribers/me", h.handleDelete)
		r.Get("/subscribers/me/blocklist", h.handleListBlocklist)
		r.Post("/subscribers/me/blocklist", h.handleBlockNumber)
		r.Delete("/subscribers/me/blocklist/{number}", h.handleUnblockNumber)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[registerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	params := service.RegisterParams{
		Email:            req.Email,
		Name:             req.Name,
		ForwardingNumber: req.ForwardingNumber,
	}
	if req.PersonaID != "" {
		personaID, err := id.ParsePersonaID(req.PersonaID)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid persona_id"))
			return
		}
		params.PersonaID = personaID
	}

	sub, err := h.subscribers.Register(ctx, params)
	if err != nil {
		h.logger.WarnContext(ctx, "subscriber registration failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	token, err := h.tokens.GenerateAccessToken(ctx, sub.ID, sub.Email)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue access token",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, registerResponse{
		Subscriber:  formatSubscriber(sub),
		AccessToken: token,
	})
}

func (h *Handler) handleGetSelf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subscriberID, ok := h.authenticatedSubscriber(w, ctx)
	if !ok {
		return
	}

	sub, err := h.subscribers.Get(ctx, subscriberID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, formatSubscriber(sub))
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	subscriberID, ok := h.authenticatedSubscriber(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[updateSettingsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	params := service.SettingsParams{
		Name:             req.Name,
		ForwardingNumber: req.ForwardingNumber,
	}
	if req.PersonaID != nil {
		personaID, err := id.ParsePersonaID(*req.PersonaID)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid persona_id"))
			return
		}
		params.PersonaID = &personaID
	}

	sub, err := h.subscribers.UpdateSettings(ctx, subscriberID, params)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, formatSubscriber(sub))
}

func (h *Handler) handleListBlocklist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subscriberID, ok := h.authenticatedSubscriber(w, ctx)
	if !ok {
		return
	}

	sub, err := h.subscribers.Get(ctx, subscriberID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, blocklistResponse{BlockedNumbers: formatBlocklist(sub)})
}

func (h *Handler) handleBlockNumber(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	subscriberID, ok := h.authenticatedSubscriber(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[blockNumberRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	sub, err := h.subscribers.BlockNumber(ctx, subscriberID, req.Number)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, blocklistResponse{BlockedNumbers: formatBlocklist(sub)})
}

func (h *Handler) handleUnblockNumber(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subscriberID, ok := h.authenticatedSubscriber(w, ctx)
	if !ok {
		return
	}

	number := chi.URLParam(r, "number")
	sub, err := h.subscribers.UnblockNumber(ctx, subscriberID, number)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, blocklistResponse{BlockedNumbers: formatBlocklist(sub)})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subscriberID, ok := h.authenticatedSubscriber(w, ctx)
	if !ok {
		return
	}

	if err := h.subscribers.Delete(ctx, subscriberID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) authenticatedSubscriber(w http.ResponseWriter, ctx context.Context) (id.SubscriberID, bool) {
	raw := middleware.GetSubscriberID(ctx)
	if raw == "" {
		h.logger.ErrorContext(ctx, "subscriber ID missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return id.SubscriberID{}, false
	}
	subscriberID, err := id.ParseSubscriberID(raw)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid subscriber identity"))
		return id.SubscriberID{}, false
	}
	return subscriberID, true
}
