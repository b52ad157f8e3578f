package models

import (
	"strings"
	"time"

	id "spamstopper/pkg/domain"
	dErrors "spamstopper/pkg/domain-errors"
)

// Tier is the subscription plan a subscriber is on. The plan decides the
// monthly screened-call quota.
type Tier string

const (
	TierFree      Tier = "free"
	TierBasic     Tier = "basic"
	TierPro       Tier = "pro"
	TierUnlimited Tier = "unlimited"
)

// IsValid reports whether the tier is a known plan.
func (t Tier) IsValid() bool {
	switch t {
	case TierFree, TierBasic, TierPro, TierUnlimited:
		return true
	}
	return false
}

// Quota returns the monthly screened-call allowance for the tier.
// A nil quota means unlimited. Unrecognized tiers get the free allowance,
// never an unlimited one.
func (t Tier) Quota() *int {
	var n int
	switch t {
	case TierBasic:
		n = 50
	case TierPro:
		n = 200
	case TierUnlimited:
		return nil
	default:
		n = 5
	}
	return &n
}

// Subscriber is an account that owns a forwarding number and screens calls
// through an assigned voice persona.
type Subscriber struct {
	ID               id.SubscriberID
	Email            string
	Name             string
	ForwardingNumber id.PhoneNumber
	PersonaID        id.PersonaID
	Tier             Tier
	BlockedNumbers   []id.PhoneNumber
	BillingCustomer  string
	BillingSub       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewSubscriber creates a Subscriber with domain invariant checks.
func NewSubscriber(subscriberID id.SubscriberID, email, name string, forwarding id.PhoneNumber, personaID id.PersonaID, tier Tier, now time.Time) (*Subscriber, error) {
	if subscriberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "subscriber ID required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "valid email required")
	}
	if forwarding.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "forwarding number required")
	}
	if !tier.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid subscription tier")
	}
	return &Subscriber{
		ID:               subscriberID,
		Email:            email,
		Name:             strings.TrimSpace(name),
		ForwardingNumber: forwarding,
		PersonaID:        personaID,
		Tier:             tier,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// MonthlyQuota returns the subscriber's monthly allowance, nil for unlimited.
func (s *Subscriber) MonthlyQuota() *int {
	return s.Tier.Quota()
}

// IsBlocked reports whether the caller number is on the subscriber's
// blocklist. Matching is exact string comparison on the stored form.
func (s *Subscriber) IsBlocked(number id.PhoneNumber) bool {
	for _, blocked := range s.BlockedNumbers {
		if blocked == number {
			return true
		}
	}
	return false
}

// BlockNumber adds a number to the blocklist. Adding an already blocked
// number is a no-op and reports false.
func (s *Subscriber) BlockNumber(number id.PhoneNumber) bool {
	if s.IsBlocked(number) {
		return false
	}
	s.BlockedNumbers = append(s.BlockedNumbers, number)
	return true
}

// UnblockNumber removes a number from the blocklist and reports whether it
// was present.
func (s *Subscriber) UnblockNumber(number id.PhoneNumber) bool {
	for i, blocked := range s.BlockedNumbers {
		if blocked == number {
			s.BlockedNumbers = append(s.BlockedNumbers[:i], s.BlockedNumbers[i+1:]...)
			return true
		}
	}
	return false
}
