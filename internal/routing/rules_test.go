package routing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"spamstopper/internal/routing/ports"
	id "spamstopper/pkg/domain"
)

func boundedSubscriber(quota int) *ports.SubscriberRecord {
	return &ports.SubscriberRecord{
		ID:               id.NewSubscriberID(),
		ForwardingNumber: "+15551230001",
		MonthlyQuota:     &quota,
		UpdatedAt:        time.Now(),
	}
}

func TestDecideRuleChain(t *testing.T) {
	tests := []struct {
		name        string
		subscriber  *ports.SubscriberRecord
		monthlyUsed int
		cls         Classification
		wantOutcome Outcome
		wantReason  Reason
	}{
		{
			name:        "no subscriber rejects before anything else",
			subscriber:  nil,
			cls:         Classification{UnknownCallerID: true},
			wantOutcome: OutcomeRejectUnauthorized,
			wantReason:  ReasonNoSubscriber,
		},
		{
			name:        "quota exhausted rejects even spam callers",
			subscriber:  boundedSubscriber(5),
			monthlyUsed: 5,
			cls:         Classification{UnknownCallerID: true},
			wantOutcome: OutcomeRejectOverQuota,
			wantReason:  ReasonQuotaExhausted,
		},
		{
			name:        "usage above quota still rejects",
			subscriber:  boundedSubscriber(5),
			monthlyUsed: 7,
			wantOutcome: OutcomeRejectOverQuota,
			wantReason:  ReasonQuotaExhausted,
		},
		{
			name:        "one call below quota screens normally",
			subscriber:  boundedSubscriber(5),
			monthlyUsed: 4,
			cls:         Classification{UnknownCallerID: true},
			wantOutcome: OutcomeRouteToAI,
			wantReason:  ReasonUnknownCallerID,
		},
		{
			name:        "unbounded plan ignores usage",
			subscriber:  &ports.SubscriberRecord{ID: id.NewSubscriberID(), ForwardingNumber: "+15551230001"},
			monthlyUsed: 100000,
			wantOutcome: OutcomeRouteToOwner,
			wantReason:  ReasonCallerLegitimate,
		},
		{
			name:        "blocklist reason wins over unknown caller ID",
			subscriber:  boundedSubscriber(50),
			cls:         Classification{UnknownCallerID: true, Blocklisted: true},
			wantOutcome: OutcomeRouteToAI,
			wantReason:  ReasonBlocklisted,
		},
		{
			name:        "legitimate caller transfers to owner",
			subscriber:  boundedSubscriber(50),
			monthlyUsed: 10,
			wantOutcome: OutcomeRouteToOwner,
			wantReason:  ReasonCallerLegitimate,
		},
		{
			name:        "zero quota plan never screens",
			subscriber:  boundedSubscriber(0),
			wantOutcome: OutcomeRejectOverQuota,
			wantReason:  ReasonQuotaExhausted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, reason := decide(tt.subscriber, tt.monthlyUsed, tt.cls)
			assert.Equal(t, tt.wantOutcome, outcome)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	sub := boundedSubscriber(5)
	cls := Classification{UnknownCallerID: true}
	firstOutcome, firstReason := decide(sub, 2, cls)
	for i := 0; i < 10; i++ {
		outcome, reason := decide(sub, 2, cls)
		assert.Equal(t, firstOutcome, outcome)
		assert.Equal(t, firstReason, reason)
	}
}
