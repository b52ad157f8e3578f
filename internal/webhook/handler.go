package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	callmodels "spamstopper/internal/call/models"
	callservice "spamstopper/internal/call/service"
	"spamstopper/internal/persona"
	"spamstopper/internal/routing"
	submodels "spamstopper/internal/subscriber/models"
	id "spamstopper/pkg/domain"
	dErrors "spamstopper/pkg/domain-errors"
	"spamstopper/pkg/platform/httputil"
	"spamstopper/pkg/requestcontext"
	"spamstopper/pkg/secrets"
)

// Evaluator produces a routing decision for an inbound call.
type Evaluator interface {
	Evaluate(ctx context.Context, event routing.InboundCallEvent) (*routing.Decision, error)
}

// CallRecorder opens and finalizes call log entries.
type CallRecorder interface {
	RecordScreened(ctx context.Context, params callservice.ScreenedCallParams) (*callmodels.CallLog, error)
	RecordCompleted(ctx context.Context, params callservice.CompletedCallParams) (*callmodels.CallLog, error)
}

// SubscriberReader resolves accounts for persona selection.
type SubscriberReader interface {
	Get(ctx context.Context, subscriberID id.SubscriberID) (*submodels.Subscriber, error)
}

// Handler receives voice-AI platform webhooks. This is the live call path:
// the in-progress event must answer quickly with a routing action, and
// everything else is acknowledged even when processing partially fails,
// because the platform retries non-2xx deliveries.
type Handler struct {
	evaluator   Evaluator
	calls       CallRecorder
	subscribers SubscriberReader
	personas    persona.Store
	logger      *slog.Logger
	secretHash  string
}

// Option configures optional handler behavior.
type Option func(*Handler)

// WithSharedSecretHash enables verification of the platform's shared secret
// header against a bcrypt hash of the configured secret.
func WithSharedSecretHash(hash string) Option {
	return func(h *Handler) { h.secretHash = hash }
}

func New(evaluator Evaluator, calls CallRecorder, subscribers SubscriberReader, personas persona.Store, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		evaluator:   evaluator,
		calls:       calls,
		subscribers: subscribers,
		personas:    personas,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the webhook route with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/webhooks/voice", h.handleVoiceEvent)
}

type actionResponse struct {
	Action      string `json:"action"`
	AssistantID string `json:"assistantId,omitempty"`
	Destination string `json:"destination,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type functionResult struct {
	Result map[string]any `json:"result"`
}

func (h *Handler) handleVoiceEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.secretHash != "" {
		if err := secrets.Verify(r.Header.Get("X-Voice-Secret"), h.secretHash); err != nil {
			h.logger.WarnContext(ctx, "voice webhook secret mismatch",
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteError(w, err)
			return
		}
	}

	var event Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.logger.WarnContext(ctx, "undecodable voice webhook payload",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid webhook payload"))
		return
	}

	switch event.Message.Type {
	case EventStatusUpdate:
		if event.Message.Status == StatusInProgress {
			h.handleCallStarted(ctx, w, event)
			return
		}
	case EventEndOfCallReport:
		h.handleCallEnded(ctx, event)
	case EventFunctionCall:
		if event.Message.FunctionCall != nil && event.Message.FunctionCall.Name == "checkCallAllowed" {
			h.handleCheckCallAllowed(ctx, w, event)
			return
		}
	case EventTranscript:
		// Real-time transcript chunks are not stored; the final transcript
		// arrives with the end-of-call report.
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"received": true})
}

// handleCallStarted evaluates the call and answers with a routing action.
func (h *Handler) handleCallStarted(ctx context.Context, w http.ResponseWriter, event Event) {
	decision, err := h.evaluator.Evaluate(ctx, normalizeEvent(event))
	if err != nil {
		// Evidence stores unreachable. Tell the platform to retry rather
		// than guessing at an outcome.
		h.logger.ErrorContext(ctx, "call evaluation unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	switch decision.Outcome {
	case routing.OutcomeRouteToOwner:
		httputil.WriteJSON(w, http.StatusOK, actionResponse{
			Action:      "transfer",
			Destination: decision.TransferTo.String(),
		})
	case routing.OutcomeRouteToAI:
		assistantID := h.resolveAssistant(ctx, decision.SubscriberID)
		h.openCallLog(ctx, event, decision, assistantID)
		httputil.WriteJSON(w, http.StatusOK, actionResponse{
			Action:      "assistant",
			AssistantID: assistantID,
		})
	default:
		httputil.WriteJSON(w, http.StatusOK, actionResponse{
			Action: "hangup",
			Reason: string(decision.Reason),
		})
	}
}

// handleCallEnded finalizes the call log. Failures are logged but still
// acknowledged; the report cannot be re-derived and a retry storm helps
// nobody.
func (h *Handler) handleCallEnded(ctx context.Context, event Event) {
	call := event.Message.Call
	if call == nil || call.ID == "" {
		h.logger.WarnContext(ctx, "end-of-call report without call reference",
			"request_id", requestcontext.RequestID(ctx),
		)
		return
	}

	_, err := h.calls.RecordCompleted(ctx, callservice.CompletedCallParams{
		ProviderCallID:  call.ID,
		DurationSeconds: call.DurationSeconds(),
		Transcript:      event.Message.Transcript,
		RecordingURL:    event.Message.RecordingURL,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to finalize call log",
			"request_id", requestcontext.RequestID(ctx),
			"provider_call_id", call.ID,
			"error", err,
		)
	}
}

// handleCheckCallAllowed answers the assistant's mid-call quota check.
func (h *Handler) handleCheckCallAllowed(ctx context.Context, w http.ResponseWriter, event Event) {
	decision, err := h.evaluator.Evaluate(ctx, normalizeEvent(event))
	if err != nil {
		httputil.WriteJSON(w, http.StatusOK, functionResult{Result: map[string]any{
			"allowed": false,
			"message": "Screening temporarily unavailable",
		}})
		return
	}

	switch decision.Outcome {
	case routing.OutcomeRejectUnauthorized:
		httputil.WriteJSON(w, http.StatusOK, functionResult{Result: map[string]any{
			"allowed": false,
			"message": "Phone number not registered",
		}})
	case routing.OutcomeRejectOverQuota:
		httputil.WriteJSON(w, http.StatusOK, functionResult{Result: map[string]any{
			"allowed": false,
			"message": "Monthly call limit reached. Please upgrade your plan.",
		}})
	default:
		result := map[string]any{"allowed": true}
		if decision.Evidence.MonthlyQuota != nil && decision.Evidence.MonthlyUsed != nil {
			remaining := *decision.Evidence.MonthlyQuota - *decision.Evidence.MonthlyUsed
			if remaining < 0 {
				remaining = 0
			}
			result["callsRemaining"] = remaining
		}
		httputil.WriteJSON(w, http.StatusOK, functionResult{Result: result})
	}
}

// resolveAssistant maps the subscriber's chosen persona to its platform
// assistant. Falls back to the first catalog entry when the account has no
// persona or the binding is stale.
func (h *Handler) resolveAssistant(ctx context.Context, subscriberID id.SubscriberID) string {
	if !subscriberID.IsNil() {
		if sub, err := h.subscribers.Get(ctx, subscriberID); err == nil && !sub.PersonaID.IsNil() {
			if p, err := h.personas.FindByID(ctx, sub.PersonaID); err == nil {
				return p.AssistantID
			}
		}
	}

	personas, err := h.personas.List(ctx)
	if err != nil || len(personas) == 0 {
		h.logger.ErrorContext(ctx, "no persona available for screened call",
			"subscriber_id", subscriberID.String(),
		)
		return ""
	}
	return personas[0].AssistantID
}

func (h *Handler) openCallLog(ctx context.Context, event Event, decision *routing.Decision, assistantID string) {
	callerNumber := ""
	providerCallID := ""
	if call := event.Message.Call; call != nil {
		providerCallID = call.ID
		if call.Customer != nil {
			callerNumber = call.Customer.Number
		}
	}

	_, err := h.calls.RecordScreened(ctx, callservice.ScreenedCallParams{
		SubscriberID:   decision.SubscriberID,
		CallerNumber:   callerNumber,
		AssistantID:    assistantID,
		ProviderCallID: providerCallID,
		Outcome:        string(decision.Outcome),
		Reason:         string(decision.Reason),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to open call log",
			"request_id", requestcontext.RequestID(ctx),
			"provider_call_id", providerCallID,
			"error", err,
		)
	}
}

// normalizeEvent maps the platform payload onto the engine's event shape.
func normalizeEvent(event Event) routing.InboundCallEvent {
	var out routing.InboundCallEvent
	if call := event.Message.Call; call != nil {
		if call.Customer != nil {
			out.CallerNumber = call.Customer.Number
			out.CallerDisplayName = call.Customer.Name
		}
		out.ForwardOriginNumber = call.ForwardOriginNumber
		out.SIPDiversionHeader = call.SIPDiversionHeader
	}
	if event.Message.PhoneNumber != nil {
		out.DestinationNumber = event.Message.PhoneNumber.Number
	}
	return out
}
