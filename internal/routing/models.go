package routing

import (
	"time"

	"spamstopper/internal/routing/ports"
	"spamstopper/pkg/domain"
)

// InboundCallEvent is the normalized call event the engine evaluates.
// All fields except DestinationNumber are optional; the upstream telephony
// provider does not reliably populate any of them. Missing fields degrade to
// safe defaults, never to errors.
type InboundCallEvent struct {
	// CallerNumber is the caller's number, or a carrier sentinel such as
	// "unknown", "unavailable", "anonymous", or empty.
	CallerNumber string

	// CallerDisplayName is the free-text caller ID name, possibly empty.
	CallerDisplayName string

	// DestinationNumber is the platform number that received the call
	// before any forwarding.
	DestinationNumber string

	// ForwardOriginNumber is the carrier-reported number that performed the
	// forward, when the carrier populates it.
	ForwardOriginNumber string

	// SIPDiversionHeader is the raw Diversion header text, parsed with the
	// sip:<number>@ pattern when ForwardOriginNumber is absent.
	SIPDiversionHeader string
}

// Outcome enumerates the possible routing decisions.
type Outcome string

const (
	// OutcomeRejectUnauthorized means no registered subscriber owns the
	// forwarding number; the call gets no AI minutes.
	OutcomeRejectUnauthorized Outcome = "reject_unauthorized"

	// OutcomeRejectOverQuota means the subscriber exhausted the monthly
	// allowance for AI-handled calls.
	OutcomeRejectOverQuota Outcome = "reject_over_quota"

	// OutcomeRouteToAI hands the caller to the subscriber's AI persona.
	OutcomeRouteToAI Outcome = "route_to_ai"

	// OutcomeRouteToOwner transfers the caller to the subscriber directly.
	OutcomeRouteToOwner Outcome = "route_to_owner"
)

// Reason encodes why a decision was reached.
type Reason string

const (
	ReasonNoSubscriber     Reason = "no_subscriber"
	ReasonQuotaExhausted   Reason = "quota_exhausted"
	ReasonUnknownCallerID  Reason = "unknown_caller_id"
	ReasonBlocklisted      Reason = "blocklisted"
	ReasonCallerLegitimate Reason = "caller_legitimate"
)

// Decision is the engine's output. Immutable once built.
//
// Invariant: TransferTo is set only for OutcomeRouteToOwner; rejects never
// carry a transfer target.
type Decision struct {
	Outcome Outcome
	Reason  Reason

	// TransferTo is the resolved subscriber number for route_to_owner.
	TransferTo domain.PhoneNumber

	// SubscriberID is set whenever a subscriber was resolved.
	SubscriberID domain.SubscriberID

	Evidence    EvidenceSummary
	EvaluatedAt time.Time
}

// EvidenceSummary captures the non-PII evidence behind the decision.
type EvidenceSummary struct {
	ResolvedNumber     domain.PhoneNumber
	DuplicateMatches   int
	MonthlyUsed        *int
	MonthlyQuota       *int
	UnknownCallerID    bool
	Blocklisted        bool
}

// gatheredEvidence holds raw evidence before rule evaluation.
// Internal use only, not exposed in API responses.
type gatheredEvidence struct {
	subscriber  *ports.SubscriberRecord
	candidates  int
	monthlyUsed int
	fetchedAt   time.Time
	latencies   evidenceLatencies
}

// evidenceLatencies tracks per-source fetch times for metrics.
type evidenceLatencies struct {
	directory time.Duration
	usage     time.Duration
}
