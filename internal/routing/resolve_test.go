package routing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spamstopper/internal/routing/ports"
	id "spamstopper/pkg/domain"
)

func TestResolveForwardingNumber(t *testing.T) {
	tests := []struct {
		name     string
		event    InboundCallEvent
		want     id.PhoneNumber
		resolved bool
	}{
		{
			name:     "forward origin field wins",
			event:    InboundCallEvent{ForwardOriginNumber: "+16184224956"},
			want:     "+16184224956",
			resolved: true,
		},
		{
			name: "forward origin preferred over diversion header",
			event: InboundCallEvent{
				ForwardOriginNumber: "+16184224956",
				SIPDiversionHeader:  `<sip:+19998887777@10.0.0.1:5060>;reason=unconditional`,
			},
			want:     "+16184224956",
			resolved: true,
		},
		{
			name: "falls back to diversion header",
			event: InboundCallEvent{
				SIPDiversionHeader: `<sip:+16184224956@10.0.0.1:5060>;reason=unconditional`,
			},
			want:     "+16184224956",
			resolved: true,
		},
		{
			name: "invalid forward origin falls through to header",
			event: InboundCallEvent{
				ForwardOriginNumber: "not-a-number",
				SIPDiversionHeader:  `<sip:+16184224956@carrier.example>;reason=user-busy`,
			},
			want:     "+16184224956",
			resolved: true,
		},
		{
			name:     "no forwarding metadata",
			event:    InboundCallEvent{CallerNumber: "+15551234567", DestinationNumber: "+15550001111"},
			resolved: false,
		},
		{
			name:     "malformed header yields no number",
			event:    InboundCallEvent{SIPDiversionHeader: "reason=unconditional"},
			resolved: false,
		},
		{
			name: "header number without country code fails E.164",
			event: InboundCallEvent{
				SIPDiversionHeader: `<sip:4224956@10.0.0.1>;reason=unconditional`,
			},
			resolved: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			number, resolved := ResolveForwardingNumber(tt.event)
			require.Equal(t, tt.resolved, resolved)
			if tt.resolved {
				assert.Equal(t, tt.want, number)
			}
		})
	}
}

func TestPickSubscriberPrefersMostRecentlyUpdated(t *testing.T) {
	older := ports.SubscriberRecord{
		ID:        id.NewSubscriberID(),
		UpdatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := ports.SubscriberRecord{
		ID:        id.NewSubscriberID(),
		UpdatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	// Order independence: the tie-break must not rely on store ordering.
	chosen := pickSubscriber([]ports.SubscriberRecord{older, newer})
	require.NotNil(t, chosen)
	assert.Equal(t, newer.ID, chosen.ID)

	chosen = pickSubscriber([]ports.SubscriberRecord{newer, older})
	require.NotNil(t, chosen)
	assert.Equal(t, newer.ID, chosen.ID)
}

func TestPickSubscriberEmpty(t *testing.T) {
	assert.Nil(t, pickSubscriber(nil))
	assert.Nil(t, pickSubscriber([]ports.SubscriberRecord{}))
}
