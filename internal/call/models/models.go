package models

import (
	"time"

	id "spamstopper/pkg/domain"
	dErrors "spamstopper/pkg/domain-errors"
)

// Status is the lifecycle state of a screened call.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// CallLog records one screened call for the subscriber's history view.
type CallLog struct {
	ID           id.CallID
	SubscriberID id.SubscriberID

	// CallerNumber is the screened caller, possibly a carrier sentinel
	// such as "unknown".
	CallerNumber string

	// PersonaName and AssistantID identify which character handled the
	// call.
	PersonaName string
	AssistantID string

	// ProviderCallID is the voice-AI platform's call identifier.
	ProviderCallID string

	// Outcome and Reason echo the routing decision that admitted the call.
	Outcome string
	Reason  string

	DurationSeconds int
	Status          Status
	Transcript      string
	RecordingURL    string

	CreatedAt time.Time
}

// NewCallLog creates a CallLog with domain invariant checks.
func NewCallLog(callID id.CallID, subscriberID id.SubscriberID, callerNumber string, now time.Time) (*CallLog, error) {
	if callID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "call ID required")
	}
	if subscriberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "subscriber ID required")
	}
	return &CallLog{
		ID:           callID,
		SubscriberID: subscriberID,
		CallerNumber: callerNumber,
		Status:       StatusInProgress,
		CreatedAt:    now,
	}, nil
}
