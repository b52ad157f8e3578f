package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"spamstopper/internal/audit"
	"spamstopper/internal/routing/ports"
	id "spamstopper/pkg/domain"
	dErrors "spamstopper/pkg/domain-errors"
)

// EvaluateSuite exercises the full evaluation path: resolution, evidence
// gathering, classification, and the rule chain.
type EvaluateSuite struct {
	suite.Suite
	service   *Service
	directory *mockDirectoryPort
	usage     *mockUsagePort
	auditor   *mockAuditPublisher

	subscriberID id.SubscriberID
}

func TestEvaluateSuite(t *testing.T) {
	suite.Run(t, new(EvaluateSuite))
}

func (s *EvaluateSuite) SetupTest() {
	s.directory = &mockDirectoryPort{}
	s.usage = &mockUsagePort{}
	s.auditor = &mockAuditPublisher{}
	s.service = New(s.directory, s.usage, s.auditor)

	var err error
	s.subscriberID, err = id.ParseSubscriberID("a1b2c3d4-e5f6-7890-abcd-ef1234567890")
	s.Require().NoError(err)
}

// registerSubscriber seeds the mock directory with one bounded-plan account.
func (s *EvaluateSuite) registerSubscriber(quota int, blocked ...string) {
	s.directory.records = []ports.SubscriberRecord{{
		ID:               s.subscriberID,
		ForwardingNumber: "+16184224956",
		MonthlyQuota:     &quota,
		BlockedNumbers:   blocked,
		UpdatedAt:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}}
}

func (s *EvaluateSuite) TestLegitimateCallerTransfersToOwner() {
	s.registerSubscriber(50)
	s.usage.used = 12

	decision, err := s.service.Evaluate(context.Background(), InboundCallEvent{
		CallerNumber:        "+15551234567",
		CallerDisplayName:   "Jane Doe",
		ForwardOriginNumber: "+16184224956",
	})

	s.Require().NoError(err)
	s.Equal(OutcomeRouteToOwner, decision.Outcome)
	s.Equal(ReasonCallerLegitimate, decision.Reason)
	s.Equal(id.PhoneNumber("+16184224956"), decision.TransferTo)
	s.Equal(s.subscriberID, decision.SubscriberID)
	s.Require().NotNil(decision.Evidence.MonthlyUsed)
	s.Equal(12, *decision.Evidence.MonthlyUsed)
}

func (s *EvaluateSuite) TestSpamRiskNameRoutesToAI() {
	s.registerSubscriber(50)

	decision, err := s.service.Evaluate(context.Background(), InboundCallEvent{
		CallerNumber:        "+15551234567",
		CallerDisplayName:   "Spam Risk",
		ForwardOriginNumber: "+16184224956",
	})

	s.Require().NoError(err)
	s.Equal(OutcomeRouteToAI, decision.Outcome)
	s.Equal(ReasonUnknownCallerID, decision.Reason)
	s.True(decision.TransferTo.IsZero(), "screened calls carry no transfer target")
}

func (s *EvaluateSuite) TestBlocklistedCallerRoutesToAI() {
	s.registerSubscriber(50, "+15559990000")

	decision, err := s.service.Evaluate(context.Background(), InboundCallEvent{
		CallerNumber:        "+15559990000",
		CallerDisplayName:   "Jane Doe",
		ForwardOriginNumber: "+16184224956",
	})

	s.Require().NoError(err)
	s.Equal(OutcomeRouteToAI, decision.Outcome)
	s.Equal(ReasonBlocklisted, decision.Reason)
	s.True(decision.Evidence.Blocklisted)
}

func (s *EvaluateSuite) TestUnresolvedForwardingRejectsWithoutDirectoryLookup() {
	decision, err := s.service.Evaluate(context.Background(), InboundCallEvent{
		CallerNumber:      "+15551234567",
		DestinationNumber: "+15550001111",
	})

	s.Require().NoError(err)
	s.Equal(OutcomeRejectUnauthorized, decision.Outcome)
	s.Equal(ReasonNoSubscriber, decision.Reason)
	s.True(decision.TransferTo.IsZero())
	s.Zero(s.directory.calls, "no forwarding number means no directory lookup")
}

func (s *EvaluateSuite) TestUnregisteredForwardingNumberRejects() {
	// Directory answers, but nothing owns the number.
	decision, err := s.service.Evaluate(context.Background(), InboundCallEvent{
		CallerNumber:        "+15551234567",
		ForwardOriginNumber: "+16184224956",
	})

	s.Require().NoError(err)
	s.Equal(OutcomeRejectUnauthorized, decision.Outcome)
	s.Equal(ReasonNoSubscriber, decision.Reason)
	s.Equal(1, s.directory.calls)
}

func (s *EvaluateSuite) TestOverQuotaRejectsSpamCaller() {
	s.registerSubscriber(5)
	s.usage.used = 5

	decision, err := s.service.Evaluate(context.Background(), InboundCallEvent{
		CallerNumber:        "unknown",
		ForwardOriginNumber: "+16184224956",
	})

	s.Require().NoError(err)
	s.Equal(OutcomeRejectOverQuota, decision.Outcome)
	s.Equal(ReasonQuotaExhausted, decision.Reason)
	s.True(decision.TransferTo.IsZero())
}

func (s *EvaluateSuite) TestDiversionHeaderResolvesSubscriber() {
	s.registerSubscriber(50)

	decision, err := s.service.Evaluate(context.Background(), InboundCallEvent{
		CallerNumber:       "+15551234567",
		CallerDisplayName:  "Jane Doe",
		SIPDiversionHeader: `<sip:+16184224956@10.0.0.1:5060>;reason=unconditional`,
	})

	s.Require().NoError(err)
	s.Equal(OutcomeRouteToOwner, decision.Outcome)
	s.Equal(s.subscriberID, decision.SubscriberID)
}

func (s *EvaluateSuite) TestDirectoryFailureIsNotUnauthorized() {
	s.directory.err = errors.New("connection refused")

	decision, err := s.service.Evaluate(context.Background(), InboundCallEvent{
		CallerNumber:        "+15551234567",
		ForwardOriginNumber: "+16184224956",
	})

	s.Require().Error(err)
	s.Nil(decision)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable),
		"a directory outage must be distinguishable from an unregistered number")
}

func (s *EvaluateSuite) TestUsageLedgerFailureSurfaces() {
	s.registerSubscriber(50)
	s.usage.err = errors.New("connection refused")

	decision, err := s.service.Evaluate(context.Background(), InboundCallEvent{
		CallerNumber:        "+15551234567",
		ForwardOriginNumber: "+16184224956",
	})

	s.Require().Error(err)
	s.Nil(decision)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *EvaluateSuite) TestDuplicateForwardingNumbersPickMostRecent() {
	quota := 50
	stale := ports.SubscriberRecord{
		ID:               id.NewSubscriberID(),
		ForwardingNumber: "+16184224956",
		MonthlyQuota:     &quota,
		UpdatedAt:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	current := ports.SubscriberRecord{
		ID:               s.subscriberID,
		ForwardingNumber: "+16184224956",
		MonthlyQuota:     &quota,
		UpdatedAt:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	// Deliberately out of contract order to prove the local tie-break.
	s.directory.records = []ports.SubscriberRecord{stale, current}

	decision, err := s.service.Evaluate(context.Background(), InboundCallEvent{
		CallerNumber:        "+15551234567",
		CallerDisplayName:   "Jane Doe",
		ForwardOriginNumber: "+16184224956",
	})

	s.Require().NoError(err)
	s.Equal(s.subscriberID, decision.SubscriberID)
	s.Equal(2, decision.Evidence.DuplicateMatches)
}

func (s *EvaluateSuite) TestEvaluateIsIdempotent() {
	s.registerSubscriber(50)
	event := InboundCallEvent{
		CallerNumber:        "unknown",
		ForwardOriginNumber: "+16184224956",
	}

	first, err := s.service.Evaluate(context.Background(), event)
	s.Require().NoError(err)
	for i := 0; i < 5; i++ {
		next, err := s.service.Evaluate(context.Background(), event)
		s.Require().NoError(err)
		s.Equal(first.Outcome, next.Outcome)
		s.Equal(first.Reason, next.Reason)
		s.Equal(first.SubscriberID, next.SubscriberID)
	}
	s.Zero(s.usage.increments, "evaluation must never write to the ledger")
}

func (s *EvaluateSuite) TestEveryDecisionEmitsAuditEvent() {
	s.registerSubscriber(50)

	_, err := s.service.Evaluate(context.Background(), InboundCallEvent{
		CallerNumber:        "+15551234567",
		CallerDisplayName:   "Jane Doe",
		ForwardOriginNumber: "+16184224956",
	})
	s.Require().NoError(err)

	s.Require().Len(s.auditor.events, 1)
	event := s.auditor.events[0]
	s.Equal(string(audit.EventCallScreened), event.Action)
	s.Equal(string(OutcomeRouteToOwner), event.Outcome)
	s.Equal(s.subscriberID.String(), event.SubscriberID)
}

func (s *EvaluateSuite) TestAuditFailureDoesNotBlockDecision() {
	s.registerSubscriber(50)
	s.auditor.err = errors.New("sink unavailable")

	decision, err := s.service.Evaluate(context.Background(), InboundCallEvent{
		CallerNumber:        "+15551234567",
		CallerDisplayName:   "Jane Doe",
		ForwardOriginNumber: "+16184224956",
	})

	s.Require().NoError(err)
	s.Equal(OutcomeRouteToOwner, decision.Outcome)
}

// --- hand-rolled port mocks ---

type mockDirectoryPort struct {
	records []ports.SubscriberRecord
	err     error
	calls   int
}

func (m *mockDirectoryPort) FindByForwardingNumber(ctx context.Context, number id.PhoneNumber) ([]ports.SubscriberRecord, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var matches []ports.SubscriberRecord
	for _, r := range m.records {
		if r.ForwardingNumber == number {
			matches = append(matches, r)
		}
	}
	return matches, nil
}

type mockUsagePort struct {
	used       int
	err        error
	increments int
}

func (m *mockUsagePort) MonthlyUsed(ctx context.Context, subscriberID id.SubscriberID) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.used, nil
}

type mockAuditPublisher struct {
	events []audit.Event
	err    error
}

func (m *mockAuditPublisher) Emit(ctx context.Context, event audit.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}
