package routing

import "spamstopper/internal/routing/ports"

// decide applies the routing rule chain to produce an outcome. This is the
// pure core of the engine: no I/O, no side effects, same inputs always yield
// the same result.
//
// Rule priority (fail-fast):
//  1. Authorization - an unregistered line never reaches the AI layer, so
//     AI minutes are never spent on non-paying traffic.
//  2. Quota - checked before spam status; an exhausted plan is rejected even
//     for callers that would otherwise be screened.
//  3. Spam classification - unknown caller ID or blocklist hit routes to the
//     AI persona; everything else transfers to the owner.
func decide(subscriber *ports.SubscriberRecord, monthlyUsed int, cls Classification) (Outcome, Reason) {
	// Rule 1: no resolved subscriber
	if subscriber == nil {
		return OutcomeRejectUnauthorized, ReasonNoSubscriber
	}

	// Rule 2: monthly quota, when the plan is bounded
	if subscriber.MonthlyQuota != nil && monthlyUsed >= *subscriber.MonthlyQuota {
		return OutcomeRejectOverQuota, ReasonQuotaExhausted
	}

	// Rule 3: spam classification
	if cls.Blocklisted {
		return OutcomeRouteToAI, ReasonBlocklisted
	}
	if cls.UnknownCallerID {
		return OutcomeRouteToAI, ReasonUnknownCallerID
	}

	return OutcomeRouteToOwner, ReasonCallerLegitimate
}
