package store

import (
	"context"

	"spamstopper/internal/call/models"
	id "spamstopper/pkg/domain"
	pkgerrors "spamstopper/pkg/domain-errors"
)

// Error Contract:
// - Find methods return ErrNotFound when no record exists
// - Infrastructure failures are returned wrapped with context
var ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "call log not found")

type Store interface {
	Save(ctx context.Context, log *models.CallLog) error
	FindByID(ctx context.Context, callID id.CallID) (*models.CallLog, error)
	FindByProviderCallID(ctx context.Context, providerCallID string) (*models.CallLog, error)
	// ListBySubscriber returns the newest logs first, at most limit entries.
	ListBySubscriber(ctx context.Context, subscriberID id.SubscriberID, limit int) ([]*models.CallLog, error)
	Update(ctx context.Context, log *models.CallLog) error
}
