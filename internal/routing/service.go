package routing

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"spamstopper/internal/audit"
	"spamstopper/internal/routing/metrics"
	"spamstopper/internal/routing/ports"
	"spamstopper/pkg/requestcontext"
)

// defaultEvidenceTimeout bounds directory and ledger reads per evaluation.
const defaultEvidenceTimeout = 5 * time.Second

var tracer = otel.Tracer("spamstopper/routing")

// AuditPublisher records routing decisions for the audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service evaluates inbound call events against the subscriber directory and
// usage ledger to produce a routing decision. The goal is to keep the rules
// centralized and testable: the service owns no mutable state and performs
// no writes, so concurrent evaluations need no coordination.
type Service struct {
	directory ports.DirectoryPort
	usage     ports.UsagePort
	auditor   AuditPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger

	evidenceTimeout time.Duration
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics collector for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger for the service.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithEvidenceTimeout bounds the directory and ledger reads per evaluation.
func WithEvidenceTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.evidenceTimeout = d
		}
	}
}

// New creates a routing service with required dependencies.
// Panics if required dependencies are nil - fail fast at startup.
func New(directory ports.DirectoryPort, usage ports.UsagePort, auditor AuditPublisher, opts ...Option) *Service {
	if directory == nil {
		panic("routing.New: directory port is required")
	}
	if usage == nil {
		panic("routing.New: usage port is required")
	}
	if auditor == nil {
		panic("routing.New: auditor is required for the decision audit trail")
	}

	s := &Service{
		directory:       directory,
		usage:           usage,
		auditor:         auditor,
		evidenceTimeout: defaultEvidenceTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate produces a routing decision for one inbound call event.
//
// Resolution failure and over-quota are decisions, not errors; the only
// error this returns is CodeUnavailable when the directory or ledger could
// not answer. The caller decides the fallback for that case - the engine
// never fails open into free AI or transfer service.
func (s *Service) Evaluate(ctx context.Context, event InboundCallEvent) (*Decision, error) {
	// Single authoritative timestamp for the whole evaluation, injected
	// everywhere for deterministic testing and consistent audit trails.
	evalTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveEvaluateLatency(time.Since(evalTime))
		}
	}()

	ctx, span := tracer.Start(ctx, "routing.Evaluate")
	defer span.End()

	number, resolved := ResolveForwardingNumber(event)
	if !resolved {
		decision := buildDecision(OutcomeRejectUnauthorized, ReasonNoSubscriber, nil, evalTime)
		s.finish(ctx, span, event, decision)
		return decision, nil
	}

	evidence, err := s.gatherEvidence(ctx, number, evalTime)
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "routing evidence gathering failed",
				"error", err,
				"forwarding_number", number.String(),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return nil, err
	}

	if evidence.candidates > 1 {
		if s.metrics != nil {
			s.metrics.DuplicateForwarding.Inc()
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "duplicate forwarding number in directory",
				"forwarding_number", number.String(),
				"candidates", evidence.candidates,
			)
		}
	}

	var cls Classification
	if evidence.subscriber != nil {
		cls = Classify(event, evidence.subscriber.BlockedNumbers)
	}

	outcome, reason := decide(evidence.subscriber, evidence.monthlyUsed, cls)

	decision := buildDecision(outcome, reason, evidence, evalTime)
	decision.Evidence.UnknownCallerID = cls.UnknownCallerID
	decision.Evidence.Blocklisted = cls.Blocklisted

	s.finish(ctx, span, event, decision)
	return decision, nil
}

// buildDecision assembles the immutable decision value. The transfer target
// is only attached for route_to_owner, keeping rejects free of any target.
func buildDecision(outcome Outcome, reason Reason, evidence *gatheredEvidence, evalTime time.Time) *Decision {
	decision := &Decision{
		Outcome:     outcome,
		Reason:      reason,
		EvaluatedAt: evalTime,
	}

	if evidence != nil {
		decision.Evidence.DuplicateMatches = evidence.candidates
		if evidence.subscriber != nil {
			decision.SubscriberID = evidence.subscriber.ID
			decision.Evidence.ResolvedNumber = evidence.subscriber.ForwardingNumber
			decision.Evidence.MonthlyQuota = evidence.subscriber.MonthlyQuota
			used := evidence.monthlyUsed
			decision.Evidence.MonthlyUsed = &used
			if outcome == OutcomeRouteToOwner {
				decision.TransferTo = evidence.subscriber.ForwardingNumber
			}
		}
	}

	return decision
}

// finish records the decision in the span, metrics, and audit trail.
// Audit emission is best-effort: a dropped advisory event must not block the
// live call path.
func (s *Service) finish(ctx context.Context, span trace.Span, event InboundCallEvent, decision *Decision) {
	span.SetAttributes(
		attribute.String("routing.outcome", string(decision.Outcome)),
		attribute.String("routing.reason", string(decision.Reason)),
	)

	if s.metrics != nil {
		s.metrics.IncrementDecision(string(decision.Outcome), string(decision.Reason))
	}

	auditEvent := audit.Event{
		Timestamp: decision.EvaluatedAt,
		Action:    string(audit.EventCallScreened),
		Caller:    event.CallerNumber,
		Outcome:   string(decision.Outcome),
		Reason:    string(decision.Reason),
		RequestID: requestcontext.RequestID(ctx),
	}
	if !decision.SubscriberID.IsNil() {
		auditEvent.SubscriberID = decision.SubscriberID.String()
	}
	if err := s.auditor.Emit(ctx, auditEvent); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit routing audit event",
			"error", err,
			"outcome", decision.Outcome,
		)
	}
}
