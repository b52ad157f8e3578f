// Package adapters wires the routing engine's ports to the in-process
// subscriber and usage services. The engine stays free of storage concerns;
// splitting into separate services later only means replacing these adapters.
package adapters

import (
	"context"

	"spamstopper/internal/routing/ports"
	subscriberservice "spamstopper/internal/subscriber/service"
	"spamstopper/internal/usage"
	"spamstopper/pkg/domain"
)

// DirectoryAdapter implements ports.DirectoryPort by calling the subscriber
// service directly.
type DirectoryAdapter struct {
	subscribers *subscriberservice.Service
}

// NewDirectoryAdapter creates an in-process directory adapter.
func NewDirectoryAdapter(subscribers *subscriberservice.Service) ports.DirectoryPort {
	return &DirectoryAdapter{subscribers: subscribers}
}

func (a *DirectoryAdapter) FindByForwardingNumber(ctx context.Context, number domain.PhoneNumber) ([]ports.SubscriberRecord, error) {
	subs, err := a.subscribers.ByForwardingNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	records := make([]ports.SubscriberRecord, 0, len(subs))
	for _, sub := range subs {
		blocked := make([]string, 0, len(sub.BlockedNumbers))
		for _, n := range sub.BlockedNumbers {
			blocked = append(blocked, n.String())
		}
		records = append(records, ports.SubscriberRecord{
			ID:               sub.ID,
			ForwardingNumber: sub.ForwardingNumber,
			MonthlyQuota:     sub.MonthlyQuota(),
			BlockedNumbers:   blocked,
			UpdatedAt:        sub.UpdatedAt,
		})
	}
	return records, nil
}

// UsageAdapter implements ports.UsagePort by calling the usage service.
type UsageAdapter struct {
	usage *usage.Service
}

// NewUsageAdapter creates an in-process usage adapter.
func NewUsageAdapter(usageService *usage.Service) ports.UsagePort {
	return &UsageAdapter{usage: usageService}
}

func (a *UsageAdapter) MonthlyUsed(ctx context.Context, subscriberID domain.SubscriberID) (int, error) {
	return a.usage.MonthlyUsed(ctx, subscriberID)
}
