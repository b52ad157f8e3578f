package billing

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"spamstopper/internal/platform/middleware"
	id "spamstopper/pkg/domain"
	dErrors "spamstopper/pkg/domain-errors"
	"spamstopper/pkg/platform/httputil"
	"spamstopper/pkg/requestcontext"
)

// maxWebhookBody bounds the signed payload we are willing to read.
const maxWebhookBody = 1 << 20

// CheckoutService is the billing surface the handler exposes.
type CheckoutService interface {
	CreateCheckout(ctx context.Context, subscriberID id.SubscriberID, priceID, origin string) (*CheckoutSession, error)
	HandleEvent(ctx context.Context, event WebhookEvent) error
}

// Handler serves the checkout endpoint and the provider webhook.
type Handler struct {
	billing       CheckoutService
	validator     middleware.TokenValidator
	webhookSecret string
	logger        *slog.Logger
}

func NewHandler(billing CheckoutService, validator middleware.TokenValidator, webhookSecret string, logger *slog.Logger) *Handler {
	return &Handler{
		billing:       billing,
		validator:     validator,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// Register registers billing routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator))
		r.Post("/billing/checkout", h.handleCheckout)
	})
	r.Post("/webhooks/billing", h.handleWebhook)
}

type checkoutRequest struct {
	PriceID string `json:"price_id"`
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subscriberID, err := id.ParseSubscriberID(middleware.GetSubscriberID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid subscriber identity"))
		return
	}

	req, ok := httputil.DecodeJSON[checkoutRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if req.PriceID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "price_id is required"))
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = "https://" + r.Host
	}

	session, err := h.billing.CreateCheckout(ctx, subscriberID, req.PriceID, origin)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"session_id": session.ID,
		"url":        session.URL,
	})
}

// handleWebhook verifies the signature over the raw body before anything is
// decoded from it.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.webhookSecret == "" {
		h.logger.WarnContext(ctx, "billing webhook rejected, no signing secret configured",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "billing webhook is not configured"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "read webhook body"))
		return
	}

	signature := r.Header.Get("Billing-Signature")
	if err := VerifySignature(body, signature, h.webhookSecret, requestcontext.Now(ctx)); err != nil {
		h.logger.WarnContext(ctx, "billing webhook signature rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed webhook event"))
		return
	}

	if err := h.billing.HandleEvent(ctx, event); err != nil {
		h.logger.ErrorContext(ctx, "billing event failed",
			"request_id", requestcontext.RequestID(ctx),
			"event_type", event.Type,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"received": true})
}
