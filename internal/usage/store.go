// Package usage tracks how many calls were screened per subscriber in the
// current billing month. The ledger is the source of truth for quota
// enforcement, so reads must stay cheap on the live call path.
package usage

import (
	"context"
	"time"

	id "spamstopper/pkg/domain"
)

// Period identifies a billing month, formatted as "2006-01" in UTC.
type Period string

// PeriodOf returns the billing period containing t.
func PeriodOf(t time.Time) Period {
	return Period(t.UTC().Format("2006-01"))
}

func (p Period) String() string { return string(p) }

// Store persists per-subscriber screened-call counters.
// Error Contract:
// - Used returns 0 with a nil error when no counter exists yet
// - Infrastructure failures are returned wrapped with context
type Store interface {
	Used(ctx context.Context, subscriberID id.SubscriberID, period Period) (int, error)
	Increment(ctx context.Context, subscriberID id.SubscriberID, period Period) (int, error)
	Reset(ctx context.Context, subscriberID id.SubscriberID, period Period) error
}
