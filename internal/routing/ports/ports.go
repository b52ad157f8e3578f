// Package ports defines the interfaces the routing engine needs from the
// outside world. The engine evaluates calls without depending on HTTP,
// Postgres, or Redis; adapters map the real stores onto these ports.
package ports

import (
	"context"
	"time"

	"spamstopper/pkg/domain"
)

// SubscriberRecord is the minimal subscriber snapshot the routing engine
// consumes. It deliberately excludes PII beyond the forwarding number.
type SubscriberRecord struct {
	ID               domain.SubscriberID
	ForwardingNumber domain.PhoneNumber
	// MonthlyQuota is nil for unbounded plans.
	MonthlyQuota   *int
	BlockedNumbers []string
	UpdatedAt      time.Time
}

// DirectoryPort looks up subscribers by the number their carrier forwards
// calls from. Implementations must return candidates sorted most-recently
// updated first; the engine uses that order to tie-break duplicate
// forwarding numbers.
//
// Error contract: an empty slice with a nil error means "no subscriber".
// A non-nil error always means the directory itself could not answer.
type DirectoryPort interface {
	FindByForwardingNumber(ctx context.Context, number domain.PhoneNumber) ([]SubscriberRecord, error)
}

// UsagePort reads the per-subscriber monthly call counter. The engine only
// reads; increments happen out-of-band after call completion, so a
// momentarily stale value is acceptable.
type UsagePort interface {
	MonthlyUsed(ctx context.Context, id domain.SubscriberID) (int, error)
}
