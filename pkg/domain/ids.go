// Package domain provides type-safe identifiers and phone number values so
// the compiler keeps subscriber, call, and persona IDs from being mixed up.
package domain

import (
	"github.com/google/uuid"

	dErrors "spamstopper/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a SubscriberID where a CallID
// is expected.
type (
	SubscriberID uuid.UUID
	CallID       uuid.UUID
	PersonaID    uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseSubscriberID(s string) (SubscriberID, error) {
	id, err := parseUUID(s, "subscriber ID")
	return SubscriberID(id), err
}

func ParseCallID(s string) (CallID, error) {
	id, err := parseUUID(s, "call ID")
	return CallID(id), err
}

func ParsePersonaID(s string) (PersonaID, error) {
	id, err := parseUUID(s, "persona ID")
	return PersonaID(id), err
}

func NewSubscriberID() SubscriberID { return SubscriberID(uuid.New()) }
func NewCallID() CallID             { return CallID(uuid.New()) }
func NewPersonaID() PersonaID       { return PersonaID(uuid.New()) }

// String methods - for logging and debugging.

func (id SubscriberID) String() string { return uuid.UUID(id).String() }
func (id CallID) String() string       { return uuid.UUID(id).String() }
func (id PersonaID) String() string    { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id SubscriberID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CallID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id PersonaID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// parseUUID is the shared validation logic. Nil UUIDs are allowed here; use
// IsNil() at the service layer so store lookups can return proper "not found"
// errors for consistency.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return id, nil
}
