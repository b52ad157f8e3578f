package billing

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"spamstopper/internal/subscriber/models"
	"spamstopper/internal/subscriber/store"
	id "spamstopper/pkg/domain"
	dErrors "spamstopper/pkg/domain-errors"
)

// Webhook event types the service acts on.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// WebhookEvent is the provider's signed event envelope.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSessionObject struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type subscriptionObject struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
}

// SubscriberDirectory is the slice of the subscriber service billing needs.
type SubscriberDirectory interface {
	Get(ctx context.Context, subscriberID id.SubscriberID) (*models.Subscriber, error)
	ByBillingCustomer(ctx context.Context, customerID string) (*models.Subscriber, error)
	ApplyTier(ctx context.Context, subscriberID id.SubscriberID, tier models.Tier, billingCustomer, billingSub string) (*models.Subscriber, error)
}

// UsageResetter clears the monthly counter when a new plan starts.
type UsageResetter interface {
	ResetMonth(ctx context.Context, subscriberID id.SubscriberID) error
}

// Service maps purchases and cancellations onto subscriber tiers.
type Service struct {
	client      *Client
	subscribers SubscriberDirectory
	usage       UsageResetter
	prices      map[string]models.Tier
	logger      *slog.Logger
}

// NewService builds the billing service. prices maps provider price IDs to
// the tier they purchase.
func NewService(client *Client, subscribers SubscriberDirectory, usage UsageResetter, prices map[string]models.Tier, logger *slog.Logger) *Service {
	return &Service{
		client:      client,
		subscribers: subscribers,
		usage:       usage,
		prices:      prices,
		logger:      logger,
	}
}

// CreateCheckout opens a hosted checkout session for the subscriber. The
// session carries the subscriber ID and purchased tier in its metadata so
// the completion webhook can apply the upgrade without a provider lookup.
func (s *Service) CreateCheckout(ctx context.Context, subscriberID id.SubscriberID, priceID, origin string) (*CheckoutSession, error) {
	tier, ok := s.prices[priceID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown price")
	}

	sub, err := s.subscribers.Get(ctx, subscriberID)
	if err != nil {
		return nil, err
	}

	return s.client.CreateCheckoutSession(ctx, CreateSessionParams{
		PriceID:       priceID,
		CustomerEmail: sub.Email,
		SuccessURL:    origin + "/?success=true",
		CancelURL:     origin + "/?canceled=true",
		Metadata: map[string]string{
			"subscriber_id": subscriberID.String(),
			"tier":          string(tier),
		},
	})
}

// HandleEvent applies one verified webhook event. Unhandled event types are
// acknowledged without action.
func (s *Service) HandleEvent(ctx context.Context, event WebhookEvent) error {
	switch event.Type {
	case EventCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event)
	default:
		s.logger.DebugContext(ctx, "ignoring billing event", "type", event.Type)
		return nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event WebhookEvent) error {
	var session checkoutSessionObject
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed checkout session")
	}

	subscriberID, err := id.ParseSubscriberID(session.Metadata["subscriber_id"])
	if err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "checkout session missing subscriber reference")
	}
	tier := models.Tier(session.Metadata["tier"])
	if !tier.IsValid() {
		return dErrors.New(dErrors.CodeBadRequest, "checkout session carries unknown tier")
	}

	if _, err := s.subscribers.ApplyTier(ctx, subscriberID, tier, session.Customer, session.Subscription); err != nil {
		return err
	}

	// A new plan starts with a fresh monthly allowance. Losing the reset is
	// recoverable, losing the tier change is not, so this failure only warns.
	if err := s.usage.ResetMonth(ctx, subscriberID); err != nil {
		s.logger.WarnContext(ctx, "failed to reset usage after plan change",
			"subscriber_id", subscriberID.String(),
			"error", err,
		)
	}

	s.logger.InfoContext(ctx, "subscription upgraded",
		"subscriber_id", subscriberID.String(),
		"tier", string(tier),
	)
	return nil
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event WebhookEvent) error {
	var subscription subscriptionObject
	if err := json.Unmarshal(event.Data.Object, &subscription); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed subscription object")
	}

	sub, err := s.subscribers.ByBillingCustomer(ctx, subscription.Customer)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Cancellation for an account we no longer hold. Acknowledge so
			// the provider stops retrying.
			s.logger.WarnContext(ctx, "cancellation for unknown billing customer",
				"customer", subscription.Customer,
			)
			return nil
		}
		return err
	}

	if _, err := s.subscribers.ApplyTier(ctx, sub.ID, models.TierFree, subscription.Customer, ""); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "subscription cancelled, downgraded to free",
		"subscriber_id", sub.ID.String(),
	)
	return nil
}
