package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	callmodels "spamstopper/internal/call/models"
	callservice "spamstopper/internal/call/service"
	"spamstopper/internal/persona"
	"spamstopper/internal/routing"
	submodels "spamstopper/internal/subscriber/models"
	id "spamstopper/pkg/domain"
	dErrors "spamstopper/pkg/domain-errors"
	"spamstopper/pkg/secrets"
)

type mockEvaluator struct {
	decision  *routing.Decision
	err       error
	lastEvent routing.InboundCallEvent
}

func (m *mockEvaluator) Evaluate(_ context.Context, event routing.InboundCallEvent) (*routing.Decision, error) {
	m.lastEvent = event
	if m.err != nil {
		return nil, m.err
	}
	return m.decision, nil
}

type mockCallRecorder struct {
	screened  []callservice.ScreenedCallParams
	completed []callservice.CompletedCallParams
}

func (m *mockCallRecorder) RecordScreened(_ context.Context, params callservice.ScreenedCallParams) (*callmodels.CallLog, error) {
	m.screened = append(m.screened, params)
	return &callmodels.CallLog{}, nil
}

func (m *mockCallRecorder) RecordCompleted(_ context.Context, params callservice.CompletedCallParams) (*callmodels.CallLog, error) {
	m.completed = append(m.completed, params)
	return &callmodels.CallLog{}, nil
}

type mockSubscriberReader struct {
	sub *submodels.Subscriber
	err error
}

func (m *mockSubscriberReader) Get(_ context.Context, _ id.SubscriberID) (*submodels.Subscriber, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sub, nil
}

type webhookFixture struct {
	evaluator   *mockEvaluator
	calls       *mockCallRecorder
	subscribers *mockSubscriberReader
	router      chi.Router
}

func newFixture() *webhookFixture {
	f := &webhookFixture{
		evaluator:   &mockEvaluator{},
		calls:       &mockCallRecorder{},
		subscribers: &mockSubscriberReader{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(f.evaluator, f.calls, f.subscribers, persona.NewInMemoryStore(persona.DefaultCatalog()), logger)
	f.router = chi.NewRouter()
	h.Register(f.router)
	return f
}

func (f *webhookFixture) post(t *testing.T, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/voice", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func inProgressEvent() Event {
	return Event{Message: Message{
		Type:   EventStatusUpdate,
		Status: StatusInProgress,
		Call: &Call{
			ID:                  "call-123",
			Customer:            &Customer{Number: "+15551234567", Name: "Jane Doe"},
			ForwardOriginNumber: "+16184224956",
		},
		PhoneNumber: &PhoneNumber{Number: "+15550001111"},
	}}
}

func TestCallStartedLegitimateTransfers(t *testing.T) {
	f := newFixture()
	f.evaluator.decision = &routing.Decision{
		Outcome:    routing.OutcomeRouteToOwner,
		Reason:     routing.ReasonCallerLegitimate,
		TransferTo: "+16184224956",
	}

	rec := f.post(t, inProgressEvent())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp actionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "transfer", resp.Action)
	assert.Equal(t, "+16184224956", resp.Destination)
	assert.Empty(t, f.calls.screened, "transferred calls are not screened")
}

func TestCallStartedSpamRoutesToPersona(t *testing.T) {
	f := newFixture()
	subscriberID := id.NewSubscriberID()
	f.evaluator.decision = &routing.Decision{
		Outcome:      routing.OutcomeRouteToAI,
		Reason:       routing.ReasonUnknownCallerID,
		SubscriberID: subscriberID,
	}
	f.subscribers.sub = &submodels.Subscriber{ID: subscriberID, PersonaID: persona.DerekID}

	rec := f.post(t, inProgressEvent())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp actionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "assistant", resp.Action)
	assert.Equal(t, "d99eeb74-6dad-4149-ac33-e2c7bb0dba57", resp.AssistantID)

	require.Len(t, f.calls.screened, 1)
	assert.Equal(t, "call-123", f.calls.screened[0].ProviderCallID)
	assert.Equal(t, "+15551234567", f.calls.screened[0].CallerNumber)
	assert.Equal(t, string(routing.OutcomeRouteToAI), f.calls.screened[0].Outcome)
}

func TestCallStartedUnauthorizedHangsUp(t *testing.T) {
	f := newFixture()
	f.evaluator.decision = &routing.Decision{
		Outcome: routing.OutcomeRejectUnauthorized,
		Reason:  routing.ReasonNoSubscriber,
	}

	rec := f.post(t, inProgressEvent())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp actionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hangup", resp.Action)
	assert.Equal(t, string(routing.ReasonNoSubscriber), resp.Reason)
}

func TestCallStartedEvaluatorUnavailableReturns503(t *testing.T) {
	f := newFixture()
	f.evaluator.err = dErrors.New(dErrors.CodeUnavailable, "subscriber directory unavailable")

	rec := f.post(t, inProgressEvent())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCallStartedNormalizesPayload(t *testing.T) {
	f := newFixture()
	f.evaluator.decision = &routing.Decision{Outcome: routing.OutcomeRouteToOwner, TransferTo: "+16184224956"}

	event := inProgressEvent()
	event.Message.Call.ForwardOriginNumber = ""
	event.Message.Call.SIPDiversionHeader = `<sip:+16184224956@10.0.0.1:5060>;reason=unconditional`
	f.post(t, event)

	assert.Equal(t, "+15551234567", f.evaluator.lastEvent.CallerNumber)
	assert.Equal(t, "Jane Doe", f.evaluator.lastEvent.CallerDisplayName)
	assert.Equal(t, "+15550001111", f.evaluator.lastEvent.DestinationNumber)
	assert.Contains(t, f.evaluator.lastEvent.SIPDiversionHeader, "sip:+16184224956@")
}

func TestEndOfCallReportFinalizesLog(t *testing.T) {
	f := newFixture()
	started := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	ended := started.Add(3*time.Minute + 42*time.Second)

	rec := f.post(t, Event{Message: Message{
		Type: EventEndOfCallReport,
		Call: &Call{
			ID:        "call-123",
			StartedAt: &started,
			EndedAt:   &ended,
		},
		Transcript:   "hello?",
		RecordingURL: "https://recordings.example/call-123",
	}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"received":true`))

	require.Len(t, f.calls.completed, 1)
	completed := f.calls.completed[0]
	assert.Equal(t, "call-123", completed.ProviderCallID)
	assert.Equal(t, 222, completed.DurationSeconds)
	assert.Equal(t, "hello?", completed.Transcript)
}

func TestRingingStatusIsAcknowledged(t *testing.T) {
	f := newFixture()
	rec := f.post(t, Event{Message: Message{Type: EventStatusUpdate, Status: StatusRinging}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.calls.screened)
}

func TestUnknownEventTypeIsAcknowledged(t *testing.T) {
	f := newFixture()
	rec := f.post(t, Event{Message: Message{Type: "speech-update"}})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMalformedPayloadRejected(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/voice", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSharedSecretVerification(t *testing.T) {
	hash, err := secrets.Hash("platform-secret")
	require.NoError(t, err)

	evaluator := &mockEvaluator{decision: &routing.Decision{Outcome: routing.OutcomeRejectUnauthorized}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(evaluator, &mockCallRecorder{}, &mockSubscriberReader{},
		persona.NewInMemoryStore(persona.DefaultCatalog()), logger, WithSharedSecretHash(hash))
	router := chi.NewRouter()
	h.Register(router)

	payload, err := json.Marshal(inProgressEvent())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/voice", bytes.NewReader(payload))
	req.Header.Set("X-Voice-Secret", "wrong")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/webhooks/voice", bytes.NewReader(payload))
	req.Header.Set("X-Voice-Secret", "platform-secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckCallAllowed(t *testing.T) {
	t.Run("allowed with remaining", func(t *testing.T) {
		f := newFixture()
		used, quota := 12, 50
		f.evaluator.decision = &routing.Decision{
			Outcome: routing.OutcomeRouteToAI,
			Evidence: routing.EvidenceSummary{
				MonthlyUsed:  &used,
				MonthlyQuota: &quota,
			},
		}

		rec := f.post(t, Event{Message: Message{
			Type:         EventFunctionCall,
			FunctionCall: &FunctionCall{Name: "checkCallAllowed"},
			Call:         &Call{Customer: &Customer{Number: "+15551234567"}, ForwardOriginNumber: "+16184224956"},
		}})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp functionResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, true, resp.Result["allowed"])
		assert.Equal(t, float64(38), resp.Result["callsRemaining"])
	})

	t.Run("over quota", func(t *testing.T) {
		f := newFixture()
		f.evaluator.decision = &routing.Decision{Outcome: routing.OutcomeRejectOverQuota}

		rec := f.post(t, Event{Message: Message{
			Type:         EventFunctionCall,
			FunctionCall: &FunctionCall{Name: "checkCallAllowed"},
		}})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp functionResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, false, resp.Result["allowed"])
	})

	t.Run("not registered", func(t *testing.T) {
		f := newFixture()
		f.evaluator.decision = &routing.Decision{Outcome: routing.OutcomeRejectUnauthorized}

		rec := f.post(t, Event{Message: Message{
			Type:         EventFunctionCall,
			FunctionCall: &FunctionCall{Name: "checkCallAllowed"},
		}})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp functionResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, false, resp.Result["allowed"])
		assert.Equal(t, "Phone number not registered", resp.Result["message"])
	})
}
