package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	SubscriberID string    `json:"subscriber_id,omitempty"`
	Action       string    `json:"action"`
	Caller       string    `json:"caller,omitempty"`
	Outcome      string    `json:"outcome,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	EventCallScreened        AuditEvent = "call_screened"
	EventCallLogged          AuditEvent = "call_logged"
	EventSubscriberCreated   AuditEvent = "subscriber_created"
	EventSubscriberUpdated   AuditEvent = "subscriber_updated"
	EventSubscriptionUpdated AuditEvent = "subscription_updated"
	EventUsageReset          AuditEvent = "usage_reset"
)
