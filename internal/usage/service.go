package usage

import (
	"context"
	"log/slog"

	"spamstopper/internal/audit"
	id "spamstopper/pkg/domain"
	pkgerrors "spamstopper/pkg/domain-errors"
	"spamstopper/pkg/requestcontext"
)

// Service reads and advances the monthly screened-call ledger.
type Service struct {
	store   Store
	auditor *audit.Publisher
	logger  *slog.Logger
}

func NewService(store Store, auditor *audit.Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, auditor: auditor, logger: logger}
}

// MonthlyUsed returns the screened-call count for the current billing month.
func (s *Service) MonthlyUsed(ctx context.Context, subscriberID id.SubscriberID) (int, error) {
	used, err := s.store.Used(ctx, subscriberID, PeriodOf(requestcontext.Now(ctx)))
	if err != nil {
		return 0, pkgerrors.Wrap(err, pkgerrors.CodeUnavailable, "usage ledger read")
	}
	return used, nil
}

// RecordScreenedCall advances the current month's counter by one and returns
// the new count. Every screened call counts against quota, including those
// screened while already over it.
func (s *Service) RecordScreenedCall(ctx context.Context, subscriberID id.SubscriberID) (int, error) {
	count, err := s.store.Increment(ctx, subscriberID, PeriodOf(requestcontext.Now(ctx)))
	if err != nil {
		return 0, pkgerrors.Wrap(err, pkgerrors.CodeUnavailable, "usage ledger increment")
	}
	return count, nil
}

// ResetMonth clears the current month's counter. Billing calls this when a
// subscription renews mid-cycle.
func (s *Service) ResetMonth(ctx context.Context, subscriberID id.SubscriberID) error {
	if err := s.store.Reset(ctx, subscriberID, PeriodOf(requestcontext.Now(ctx))); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeUnavailable, "usage ledger reset")
	}
	if s.auditor != nil {
		event := audit.Event{
			Timestamp:    requestcontext.Now(ctx),
			SubscriberID: subscriberID.String(),
			Action:       string(audit.EventUsageReset),
			RequestID:    requestcontext.RequestID(ctx),
		}
		if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to emit usage audit event", "error", err)
		}
	}
	return nil
}
