package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"spamstopper/internal/audit"
	"spamstopper/internal/call/models"
	"spamstopper/internal/call/store"
	"spamstopper/internal/persona"
	"spamstopper/internal/voiceai"
	id "spamstopper/pkg/domain"
	pkgerrors "spamstopper/pkg/domain-errors"
	"spamstopper/pkg/requestcontext"
)

const defaultHistoryLimit = 50

// Store defines the persistence interface for call logs.
type Store interface {
	Save(ctx context.Context, log *models.CallLog) error
	FindByID(ctx context.Context, callID id.CallID) (*models.CallLog, error)
	FindByProviderCallID(ctx context.Context, providerCallID string) (*models.CallLog, error)
	ListBySubscriber(ctx context.Context, subscriberID id.SubscriberID, limit int) ([]*models.CallLog, error)
	Update(ctx context.Context, log *models.CallLog) error
}

// UsageRecorder advances the monthly screened-call counter.
type UsageRecorder interface {
	RecordScreenedCall(ctx context.Context, subscriberID id.SubscriberID) (int, error)
}

// QuotaReader exposes the account's monthly allowance, nil for unlimited.
type QuotaReader interface {
	MonthlyQuota(ctx context.Context, subscriberID id.SubscriberID) (*int, error)
}

// Dialer places and ends outbound assistant calls on the voice platform.
type Dialer interface {
	CreateCall(ctx context.Context, params voiceai.CreateCallParams) (*voiceai.Call, error)
	EndCall(ctx context.Context, callID string) (*voiceai.Call, error)
}

// Service records screened calls: a log entry opens when the AI picks up
// and is finalized when the platform reports the call ended.
type Service struct {
	store    Store
	usage    UsageRecorder
	quotas   QuotaReader
	personas persona.Store
	auditor  *audit.Publisher
	logger   *slog.Logger

	dialer        Dialer
	phoneNumberID string
}

// Option configures optional service capabilities.
type Option func(*Service)

// WithDialer enables outbound test calls through the voice platform.
// phoneNumberID is the platform number the calls originate from.
func WithDialer(dialer Dialer, phoneNumberID string) Option {
	return func(s *Service) {
		s.dialer = dialer
		s.phoneNumberID = phoneNumberID
	}
}

func NewService(store Store, usage UsageRecorder, quotas QuotaReader, personas persona.Store, auditor *audit.Publisher, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		usage:    usage,
		quotas:   quotas,
		personas: personas,
		auditor:  auditor,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScreenedCallParams opens a call log when the AI starts handling a caller.
type ScreenedCallParams struct {
	SubscriberID   id.SubscriberID
	CallerNumber   string
	AssistantID    string
	ProviderCallID string
	Outcome        string
	Reason         string
}

// RecordScreened creates an in-progress log entry for a screened call.
func (s *Service) RecordScreened(ctx context.Context, params ScreenedCallParams) (*models.CallLog, error) {
	log, err := models.NewCallLog(id.NewCallID(), params.SubscriberID, params.CallerNumber, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	log.AssistantID = params.AssistantID
	log.ProviderCallID = params.ProviderCallID
	log.Outcome = params.Outcome
	log.Reason = params.Reason

	if params.AssistantID != "" && s.personas != nil {
		if p, err := s.personas.FindByAssistantID(ctx, params.AssistantID); err == nil {
			log.PersonaName = p.Name
		}
	}

	if err := s.store.Save(ctx, log); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "save call log")
	}
	return log, nil
}

// CompletedCallParams finalizes a call when the platform reports it ended.
type CompletedCallParams struct {
	ProviderCallID  string
	DurationSeconds int
	Transcript      string
	RecordingURL    string
	Failed          bool
}

// RecordCompleted finalizes the log entry and counts the call against the
// monthly quota. The two writes are independent, so they run concurrently;
// either failure surfaces, neither is silently dropped.
//
// Calls completed after the quota ran out still count. The quota gate
// rejects future calls; it does not retroactively erase minutes already
// spent.
func (s *Service) RecordCompleted(ctx context.Context, params CompletedCallParams) (*models.CallLog, error) {
	log, err := s.store.FindByProviderCallID(ctx, params.ProviderCallID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "find call log")
	}

	log.DurationSeconds = params.DurationSeconds
	log.Transcript = params.Transcript
	log.RecordingURL = params.RecordingURL
	log.Status = models.StatusCompleted
	if params.Failed {
		log.Status = models.StatusFailed
	}

	var used int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.store.Update(gctx, log); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "finalize call log")
		}
		return nil
	})
	g.Go(func() error {
		count, err := s.usage.RecordScreenedCall(gctx, log.SubscriberID)
		if err != nil {
			return err
		}
		used = count
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.warnIfOverQuota(ctx, log.SubscriberID, used)
	s.emitLogged(ctx, log)
	return log, nil
}

// StartTestCall has the chosen persona ring the subscriber's own number so
// they can hear how screened callers get handled.
func (s *Service) StartTestCall(ctx context.Context, subscriberID id.SubscriberID, personaID id.PersonaID, toNumber id.PhoneNumber) (*models.CallLog, error) {
	if s.dialer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnavailable, "outbound calling is not configured")
	}

	p, err := s.personas.FindByID(ctx, personaID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeNotFound, "unknown persona")
	}

	providerCall, err := s.dialer.CreateCall(ctx, voiceai.CreateCallParams{
		AssistantID:    p.AssistantID,
		PhoneNumberID:  s.phoneNumberID,
		CustomerNumber: toNumber.String(),
	})
	if err != nil {
		return nil, err
	}

	log, err := models.NewCallLog(id.NewCallID(), subscriberID, toNumber.String(), requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	log.AssistantID = p.AssistantID
	log.PersonaName = p.Name
	log.ProviderCallID = providerCall.ID
	log.Outcome = "test_call"

	if err := s.store.Save(ctx, log); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "save call log")
	}
	return log, nil
}

// EndTestCall hangs up an outbound test call.
func (s *Service) EndTestCall(ctx context.Context, providerCallID string) error {
	if s.dialer == nil {
		return pkgerrors.New(pkgerrors.CodeUnavailable, "outbound calling is not configured")
	}
	if _, err := s.dialer.EndCall(ctx, providerCallID); err != nil {
		return err
	}
	return nil
}

// ListBySubscriber returns the account's call history, newest first.
func (s *Service) ListBySubscriber(ctx context.Context, subscriberID id.SubscriberID, limit int) ([]*models.CallLog, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	logs, err := s.store.ListBySubscriber(ctx, subscriberID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "list call logs")
	}
	return logs, nil
}

func (s *Service) warnIfOverQuota(ctx context.Context, subscriberID id.SubscriberID, used int) {
	if s.quotas == nil || s.logger == nil {
		return
	}
	quota, err := s.quotas.MonthlyQuota(ctx, subscriberID)
	if err != nil || quota == nil {
		return
	}
	if used > *quota {
		s.logger.WarnContext(ctx, "call completed past monthly quota",
			"subscriber_id", subscriberID.String(),
			"used", used,
			"quota", *quota,
		)
	}
}

func (s *Service) emitLogged(ctx context.Context, log *models.CallLog) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		Timestamp:    requestcontext.Now(ctx),
		SubscriberID: log.SubscriberID.String(),
		Action:       string(audit.EventCallLogged),
		Caller:       log.CallerNumber,
		Outcome:      log.Outcome,
		Reason:       log.Reason,
		RequestID:    requestcontext.RequestID(ctx),
	}
	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit call audit event", "error", err)
	}
}
