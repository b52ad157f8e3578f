package service

import (
	"context"
	"errors"
	"log/slog"

	"spamstopper/internal/audit"
	"spamstopper/internal/subscriber/metrics"
	"spamstopper/internal/subscriber/models"
	"spamstopper/internal/subscriber/store"
	id "spamstopper/pkg/domain"
	pkgerrors "spamstopper/pkg/domain-errors"
	"spamstopper/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/store_mock.go -package=mocks

// Store defines the persistence interface for subscriber accounts.
// Error Contract:
// - Find methods return store.ErrNotFound when no record exists
// - Save returns store.ErrConflict when the email is already registered
type Store interface {
	Save(ctx context.Context, sub *models.Subscriber) error
	FindByID(ctx context.Context, subscriberID id.SubscriberID) (*models.Subscriber, error)
	FindByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	FindByForwardingNumber(ctx context.Context, number id.PhoneNumber) ([]*models.Subscriber, error)
	FindByBillingCustomer(ctx context.Context, customerID string) (*models.Subscriber, error)
	Update(ctx context.Context, sub *models.Subscriber) error
	Delete(ctx context.Context, subscriberID id.SubscriberID) error
}

type Option func(*Service)

// Service manages subscriber accounts: registration, screening settings,
// blocklists, and subscription tier changes coming from billing.
type Service struct {
	store   Store
	auditor *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger

	defaultPersona id.PersonaID
}

func NewService(store Store, auditor *audit.Publisher, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:   store,
		auditor: auditor,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDefaultPersona sets the persona assigned to new accounts that do not
// pick one at signup.
func WithDefaultPersona(personaID id.PersonaID) Option {
	return func(s *Service) { s.defaultPersona = personaID }
}

// RegisterParams carries validated signup input.
type RegisterParams struct {
	Email            string
	Name             string
	ForwardingNumber string
	PersonaID        id.PersonaID
}

// Register creates a new account on the free tier.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.Subscriber, error) {
	forwarding, err := id.ParsePhoneNumber(params.ForwardingNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeValidation, "invalid forwarding number")
	}

	personaID := params.PersonaID
	if personaID.IsNil() {
		personaID = s.defaultPersona
	}

	now := requestcontext.Now(ctx)
	sub, err := models.NewSubscriber(id.NewSubscriberID(), params.Email, params.Name, forwarding, personaID, models.TierFree, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, sub); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, pkgerrors.Wrap(err, pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "save subscriber")
	}

	if s.metrics != nil {
		s.metrics.RegistrationsTotal.Inc()
	}
	s.emitAudit(ctx, sub.ID, audit.EventSubscriberCreated, "")
	if s.logger != nil {
		s.logger.InfoContext(ctx, "subscriber registered",
			"subscriber_id", sub.ID.String(),
			"tier", sub.Tier,
		)
	}
	return sub, nil
}

// Get fetches a subscriber by ID.
func (s *Service) Get(ctx context.Context, subscriberID id.SubscriberID) (*models.Subscriber, error) {
	sub, err := s.store.FindByID(ctx, subscriberID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "find subscriber")
	}
	return sub, nil
}

// GetByEmail fetches a subscriber by their account email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	sub, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "find subscriber by email")
	}
	return sub, nil
}

// ByForwardingNumber lists every account registered with the forwarding
// number, most recently updated first. Inbound screening resolves the
// serving account through this lookup.
func (s *Service) ByForwardingNumber(ctx context.Context, number id.PhoneNumber) ([]*models.Subscriber, error) {
	return s.store.FindByForwardingNumber(ctx, number)
}

// SettingsParams carries optional per-field updates. Nil fields are left
// unchanged.
type SettingsParams struct {
	Name             *string
	ForwardingNumber *string
	PersonaID        *id.PersonaID
}

// UpdateSettings applies screening settings changes to an account.
func (s *Service) UpdateSettings(ctx context.Context, subscriberID id.SubscriberID, params SettingsParams) (*models.Subscriber, error) {
	sub, err := s.Get(ctx, subscriberID)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		sub.Name = *params.Name
	}
	if params.ForwardingNumber != nil {
		forwarding, err := id.ParsePhoneNumber(*params.ForwardingNumber)
		if err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.CodeValidation, "invalid forwarding number")
		}
		sub.ForwardingNumber = forwarding
	}
	if params.PersonaID != nil {
		sub.PersonaID = *params.PersonaID
	}
	sub.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, sub); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "update subscriber")
	}

	s.emitAudit(ctx, sub.ID, audit.EventSubscriberUpdated, "")
	return sub, nil
}

// BlockNumber adds a caller to the account's blocklist. Re-blocking an
// already blocked number is a no-op.
func (s *Service) BlockNumber(ctx context.Context, subscriberID id.SubscriberID, number string) (*models.Subscriber, error) {
	caller, err := id.ParsePhoneNumber(number)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeValidation, "invalid caller number")
	}

	sub, err := s.Get(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	if !sub.BlockNumber(caller) {
		return sub, nil
	}
	sub.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "update blocklist")
	}
	if s.metrics != nil {
		s.metrics.BlocklistUpdates.WithLabelValues("block").Inc()
	}
	s.emitAudit(ctx, sub.ID, audit.EventSubscriberUpdated, string(caller))
	return sub, nil
}

// UnblockNumber removes a caller from the account's blocklist.
func (s *Service) UnblockNumber(ctx context.Context, subscriberID id.SubscriberID, number string) (*models.Subscriber, error) {
	caller, err := id.ParsePhoneNumber(number)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeValidation, "invalid caller number")
	}

	sub, err := s.Get(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	if !sub.UnblockNumber(caller) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "number is not blocked")
	}
	sub.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "update blocklist")
	}
	if s.metrics != nil {
		s.metrics.BlocklistUpdates.WithLabelValues("unblock").Inc()
	}
	s.emitAudit(ctx, sub.ID, audit.EventSubscriberUpdated, string(caller))
	return sub, nil
}

// ApplyTier moves an account to a new subscription tier. Billing webhooks
// call this after checkout completes or a subscription is cancelled.
func (s *Service) ApplyTier(ctx context.Context, subscriberID id.SubscriberID, tier models.Tier, billingCustomer, billingSub string) (*models.Subscriber, error) {
	if !tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid subscription tier")
	}

	sub, err := s.Get(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	sub.Tier = tier
	if billingCustomer != "" {
		sub.BillingCustomer = billingCustomer
	}
	sub.BillingSub = billingSub
	sub.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "apply tier")
	}

	if s.metrics != nil {
		s.metrics.TierChangesTotal.WithLabelValues(string(tier)).Inc()
	}
	s.emitAudit(ctx, sub.ID, audit.EventSubscriptionUpdated, "")
	if s.logger != nil {
		s.logger.InfoContext(ctx, "subscription tier applied",
			"subscriber_id", sub.ID.String(),
			"tier", tier,
		)
	}
	return sub, nil
}

// MonthlyQuota returns the account's monthly screened-call allowance, nil
// for unlimited plans.
func (s *Service) MonthlyQuota(ctx context.Context, subscriberID id.SubscriberID) (*int, error) {
	sub, err := s.Get(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	return sub.MonthlyQuota(), nil
}

// ByBillingCustomer resolves an account from its billing customer reference.
func (s *Service) ByBillingCustomer(ctx context.Context, customerID string) (*models.Subscriber, error) {
	sub, err := s.store.FindByBillingCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "find subscriber by billing customer")
	}
	return sub, nil
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, subscriberID id.SubscriberID) error {
	if err := s.store.Delete(ctx, subscriberID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "delete subscriber")
	}
	return nil
}

func (s *Service) emitAudit(ctx context.Context, subscriberID id.SubscriberID, action audit.AuditEvent, caller string) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		Timestamp:    requestcontext.Now(ctx),
		SubscriberID: subscriberID.String(),
		Action:       string(action),
		Caller:       caller,
		RequestID:    requestcontext.RequestID(ctx),
	}
	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit subscriber audit event",
			"error", err,
			"action", action,
		)
	}
}
