package routing

import (
	"context"
	"time"

	"spamstopper/pkg/domain"
	dErrors "spamstopper/pkg/domain-errors"
)

// gatherEvidence fetches the subscriber snapshot and its usage counter under
// a shared timeout. The fetches are inherently sequential: the usage key is
// the subscriber ID, which is only known after the directory answers.
//
// Any store failure, including a timeout, surfaces as CodeUnavailable so the
// caller can distinguish "directory down" from "no such subscriber". The
// engine never converts an infrastructure failure into an allow or deny.
func (s *Service) gatherEvidence(ctx context.Context, number domain.PhoneNumber, evalTime time.Time) (*gatheredEvidence, error) {
	ctx, cancel := context.WithTimeout(ctx, s.evidenceTimeout)
	defer cancel()

	evidence := &gatheredEvidence{fetchedAt: evalTime}

	start := time.Now()
	candidates, err := s.directory.FindByForwardingNumber(ctx, number)
	evidence.latencies.directory = time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveEvidenceLatency("directory", evidence.latencies.directory)
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.DirectoryErrors.Inc()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "subscriber directory unavailable")
	}

	evidence.candidates = len(candidates)
	evidence.subscriber = pickSubscriber(candidates)
	if evidence.subscriber == nil {
		return evidence, nil
	}

	start = time.Now()
	used, err := s.usage.MonthlyUsed(ctx, evidence.subscriber.ID)
	evidence.latencies.usage = time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveEvidenceLatency("usage", evidence.latencies.usage)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "usage ledger unavailable")
	}
	evidence.monthlyUsed = used

	return evidence, nil
}
