package usage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "spamstopper/pkg/domain"
	"spamstopper/pkg/requestcontext"
)

func TestPeriodOf(t *testing.T) {
	assert.Equal(t, Period("2025-06"), PeriodOf(time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)))
	// Period boundaries are UTC, not local time.
	loc := time.FixedZone("UTC-8", -8*60*60)
	assert.Equal(t, Period("2025-07"), PeriodOf(time.Date(2025, 6, 30, 20, 0, 0, 0, loc)))
}

func TestRecordScreenedCallAdvancesCounter(t *testing.T) {
	svc := NewService(NewInMemoryStore(), nil, nil)
	subscriberID := id.NewSubscriberID()
	ctx := requestcontext.WithNow(context.Background(), time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))

	for want := 1; want <= 3; want++ {
		count, err := svc.RecordScreenedCall(ctx, subscriberID)
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}

	used, err := svc.MonthlyUsed(ctx, subscriberID)
	require.NoError(t, err)
	assert.Equal(t, 3, used)
}

func TestCountersAreScopedToPeriod(t *testing.T) {
	svc := NewService(NewInMemoryStore(), nil, nil)
	subscriberID := id.NewSubscriberID()
	june := requestcontext.WithNow(context.Background(), time.Date(2025, 6, 30, 23, 0, 0, 0, time.UTC))
	july := requestcontext.WithNow(context.Background(), time.Date(2025, 7, 1, 1, 0, 0, 0, time.UTC))

	_, err := svc.RecordScreenedCall(june, subscriberID)
	require.NoError(t, err)

	used, err := svc.MonthlyUsed(july, subscriberID)
	require.NoError(t, err)
	assert.Zero(t, used, "a new billing month starts from zero")
}

func TestResetMonthClearsCurrentPeriodOnly(t *testing.T) {
	svc := NewService(NewInMemoryStore(), nil, nil)
	subscriberID := id.NewSubscriberID()
	june := requestcontext.WithNow(context.Background(), time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))

	_, err := svc.RecordScreenedCall(june, subscriberID)
	require.NoError(t, err)
	require.NoError(t, svc.ResetMonth(june, subscriberID))

	used, err := svc.MonthlyUsed(june, subscriberID)
	require.NoError(t, err)
	assert.Zero(t, used)
}

func TestUsageIsPerSubscriber(t *testing.T) {
	svc := NewService(NewInMemoryStore(), nil, nil)
	first, second := id.NewSubscriberID(), id.NewSubscriberID()
	ctx := requestcontext.WithNow(context.Background(), time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))

	_, err := svc.RecordScreenedCall(ctx, first)
	require.NoError(t, err)

	used, err := svc.MonthlyUsed(ctx, second)
	require.NoError(t, err)
	assert.Zero(t, used)
}
