package store

import (
	"context"

	"spamstopper/internal/subscriber/models"
	id "spamstopper/pkg/domain"
	pkgerrors "spamstopper/pkg/domain-errors"
)

// Error Contract:
// - Find methods return ErrNotFound when no record exists
// - Save returns ErrConflict when email or forwarding number is already taken
//   by another account
// - Infrastructure failures are returned wrapped with context
var (
	ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "subscriber not found")
	ErrConflict = pkgerrors.New(pkgerrors.CodeConflict, "subscriber already exists")
)

type Store interface {
	Save(ctx context.Context, sub *models.Subscriber) error
	FindByID(ctx context.Context, subscriberID id.SubscriberID) (*models.Subscriber, error)
	FindByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	// FindByForwardingNumber returns every account registered with the
	// number, most recently updated first. An empty slice with a nil error
	// means no account owns the number.
	FindByForwardingNumber(ctx context.Context, number id.PhoneNumber) ([]*models.Subscriber, error)
	FindByBillingCustomer(ctx context.Context, customerID string) (*models.Subscriber, error)
	Update(ctx context.Context, sub *models.Subscriber) error
	Delete(ctx context.Context, subscriberID id.SubscriberID) error
}
