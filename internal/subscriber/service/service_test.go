package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"spamstopper/internal/audit"
	"spamstopper/internal/subscriber/models"
	"spamstopper/internal/subscriber/service/mocks"
	"spamstopper/internal/subscriber/store"
	id "spamstopper/pkg/domain"
	pkgerrors "spamstopper/pkg/domain-errors"
	"spamstopper/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockStore *mocks.MockStore
	auditSink *audit.InMemoryStore
	service   *Service

	now time.Time
	ctx context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.auditSink = audit.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewService(s.mockStore, audit.NewPublisher(s.auditSink), logger)

	s.now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithNow(context.Background(), s.now)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) newTestSubscriber(tier models.Tier) *models.Subscriber {
	sub, err := models.NewSubscriber(
		id.NewSubscriberID(),
		"owner@example.com",
		"Owner",
		id.PhoneNumber("+15551230001"),
		id.NewPersonaID(),
		tier,
		s.now.Add(-24*time.Hour),
	)
	s.Require().NoError(err)
	return sub
}

func (s *ServiceSuite) TestRegisterCreatesFreeTierAccount() {
	var saved *models.Subscriber
	s.mockStore.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, sub *models.Subscriber) error {
			saved = sub
			return nil
		})

	sub, err := s.service.Register(s.ctx, RegisterParams{
		Email:            "New.Owner@Example.com",
		Name:             "New Owner",
		ForwardingNumber: "+15551230002",
	})
	s.Require().NoError(err)
	s.Equal(models.TierFree, sub.Tier)
	s.Equal("new.owner@example.com", sub.Email)
	s.Equal(id.PhoneNumber("+15551230002"), sub.ForwardingNumber)
	s.Require().NotNil(sub.MonthlyQuota())
	s.Equal(5, *sub.MonthlyQuota())
	s.Equal(s.now, sub.CreatedAt)
	s.Same(saved, sub)

	events, err := s.auditSink.ListBySubscriber(context.Background(), sub.ID.String())
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventSubscriberCreated), events[0].Action)
}

func (s *ServiceSuite) TestRegisterRejectsInvalidForwardingNumber() {
	_, err := s.service.Register(s.ctx, RegisterParams{
		Email:            "owner@example.com",
		ForwardingNumber: "555-1234",
	})
	s.Require().Error(err)
	s.True(pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func (s *ServiceSuite) TestRegisterSurfacesDuplicateEmail() {
	s.mockStore.EXPECT().Save(gomock.Any(), gomock.Any()).Return(store.ErrConflict)

	_, err := s.service.Register(s.ctx, RegisterParams{
		Email:            "owner@example.com",
		ForwardingNumber: "+15551230002",
	})
	s.Require().Error(err)
	s.True(pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func (s *ServiceSuite) TestBlockNumberAddsToBlocklist() {
	sub := s.newTestSubscriber(models.TierBasic)
	s.mockStore.EXPECT().FindByID(gomock.Any(), sub.ID).Return(sub, nil)
	s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	updated, err := s.service.BlockNumber(s.ctx, sub.ID, "+15559998888")
	s.Require().NoError(err)
	s.True(updated.IsBlocked(id.PhoneNumber("+15559998888")))
	s.Equal(s.now, updated.UpdatedAt)
}

func (s *ServiceSuite) TestBlockNumberIsIdempotent() {
	sub := s.newTestSubscriber(models.TierBasic)
	sub.BlockedNumbers = []id.PhoneNumber{"+15559998888"}
	s.mockStore.EXPECT().FindByID(gomock.Any(), sub.ID).Return(sub, nil)
	// No Update expected: re-blocking a blocked number is a no-op.

	updated, err := s.service.BlockNumber(s.ctx, sub.ID, "+15559998888")
	s.Require().NoError(err)
	s.Len(updated.BlockedNumbers, 1)
}

func (s *ServiceSuite) TestUnblockNumberNotBlocked() {
	sub := s.newTestSubscriber(models.TierBasic)
	s.mockStore.EXPECT().FindByID(gomock.Any(), sub.ID).Return(sub, nil)

	_, err := s.service.UnblockNumber(s.ctx, sub.ID, "+15559998888")
	s.Require().Error(err)
	s.True(pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func (s *ServiceSuite) TestApplyTierUpgrade() {
	sub := s.newTestSubscriber(models.TierFree)
	s.mockStore.EXPECT().FindByID(gomock.Any(), sub.ID).Return(sub, nil)
	s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	updated, err := s.service.ApplyTier(s.ctx, sub.ID, models.TierPro, "cus_123", "sub_456")
	s.Require().NoError(err)
	s.Equal(models.TierPro, updated.Tier)
	s.Equal("cus_123", updated.BillingCustomer)
	s.Require().NotNil(updated.MonthlyQuota())
	s.Equal(200, *updated.MonthlyQuota())

	events, err := s.auditSink.ListBySubscriber(context.Background(), sub.ID.String())
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventSubscriptionUpdated), events[0].Action)
}

func (s *ServiceSuite) TestApplyTierUnlimitedHasNoQuota() {
	sub := s.newTestSubscriber(models.TierPro)
	s.mockStore.EXPECT().FindByID(gomock.Any(), sub.ID).Return(sub, nil)
	s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	updated, err := s.service.ApplyTier(s.ctx, sub.ID, models.TierUnlimited, "", "")
	s.Require().NoError(err)
	s.Nil(updated.MonthlyQuota())
}

func (s *ServiceSuite) TestApplyTierRejectsUnknownTier() {
	_, err := s.service.ApplyTier(s.ctx, id.NewSubscriberID(), models.Tier("platinum"), "", "")
	s.Require().Error(err)
	s.True(pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func (s *ServiceSuite) TestUpdateSettingsChangesForwardingNumber() {
	sub := s.newTestSubscriber(models.TierBasic)
	s.mockStore.EXPECT().FindByID(gomock.Any(), sub.ID).Return(sub, nil)
	s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	newNumber := "+15551239999"
	updated, err := s.service.UpdateSettings(s.ctx, sub.ID, SettingsParams{ForwardingNumber: &newNumber})
	s.Require().NoError(err)
	s.Equal(id.PhoneNumber(newNumber), updated.ForwardingNumber)
	s.Equal(s.now, updated.UpdatedAt)
}

func (s *ServiceSuite) TestGetNotFound() {
	missing := id.NewSubscriberID()
	s.mockStore.EXPECT().FindByID(gomock.Any(), missing).Return(nil, store.ErrNotFound)

	_, err := s.service.Get(s.ctx, missing)
	s.Require().Error(err)
	s.True(pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
