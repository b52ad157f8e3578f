package webhook

import "time"

// Voice-AI platform event types.
const (
	EventStatusUpdate    = "status-update"
	EventEndOfCallReport = "end-of-call-report"
	EventTranscript      = "transcript"
	EventFunctionCall    = "function-call"
)

// Call statuses reported through status-update events.
const (
	StatusRinging    = "ringing"
	StatusInProgress = "in-progress"
)

// Event is the webhook envelope the voice-AI platform posts. Every field is
// optional; payload shape varies by event type and the handler must not
// assume any of it is present.
type Event struct {
	Message Message `json:"message"`
}

// Message carries the event payload.
type Message struct {
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`

	Call        *Call        `json:"call,omitempty"`
	PhoneNumber *PhoneNumber `json:"phoneNumber,omitempty"`

	FunctionCall *FunctionCall `json:"functionCall,omitempty"`

	Transcript   string `json:"transcript,omitempty"`
	RecordingURL string `json:"recordingUrl,omitempty"`
}

// Call describes the live call the event refers to.
type Call struct {
	ID          string    `json:"id,omitempty"`
	AssistantID string    `json:"assistantId,omitempty"`
	Customer    *Customer `json:"customer,omitempty"`

	// ForwardOriginNumber is set by carriers that report which number
	// forwarded the call.
	ForwardOriginNumber string `json:"forwardOriginNumber,omitempty"`

	// SIPDiversionHeader is the raw Diversion header, when present.
	SIPDiversionHeader string `json:"sipDiversionHeader,omitempty"`

	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

// Customer is the calling party.
type Customer struct {
	Number string `json:"number,omitempty"`
	Name   string `json:"name,omitempty"`
}

// PhoneNumber is the platform number that received the call.
type PhoneNumber struct {
	Number string `json:"number,omitempty"`
}

// FunctionCall is an assistant-invoked tool call.
type FunctionCall struct {
	Name       string         `json:"name,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// DurationSeconds derives the call length from the reported timestamps.
func (c *Call) DurationSeconds() int {
	if c == nil || c.StartedAt == nil || c.EndedAt == nil {
		return 0
	}
	d := int(c.EndedAt.Sub(*c.StartedAt).Seconds())
	if d < 0 {
		return 0
	}
	return d
}
