package routing

import (
	"regexp"
	"sort"

	"spamstopper/internal/routing/ports"
	"spamstopper/pkg/domain"
)

// sipDiversionPattern extracts the forwarding number from a SIP Diversion
// header, e.g. `<sip:+16184224956@10.0.0.1:5060>;reason=unconditional`.
var sipDiversionPattern = regexp.MustCompile(`sip:(\+?\d+)@`)

// ResolveForwardingNumber determines which subscriber number forwarded the
// call, trying metadata fields in order of reliability:
//
//  1. The carrier-reported forward-origin field, when syntactically valid.
//  2. The SIP Diversion header, parsed with sipDiversionPattern.
//
// Returns false when neither source yields a valid number. That is a normal
// outcome, not an error; the authorization gate turns it into a reject.
func ResolveForwardingNumber(event InboundCallEvent) (domain.PhoneNumber, bool) {
	if event.ForwardOriginNumber != "" {
		if number, err := domain.ParsePhoneNumber(event.ForwardOriginNumber); err == nil {
			return number, true
		}
	}

	if event.SIPDiversionHeader != "" {
		if m := sipDiversionPattern.FindStringSubmatch(event.SIPDiversionHeader); m != nil {
			if number, err := domain.ParsePhoneNumber(m[1]); err == nil {
				return number, true
			}
		}
	}

	return "", false
}

// pickSubscriber selects one subscriber from directory candidates.
// Duplicate forwarding numbers are a data-integrity defect; the engine
// tolerates them by picking the most recently updated profile. The directory
// contract already sorts candidates, but we re-sort locally so the tie-break
// does not silently depend on a store implementation detail.
func pickSubscriber(candidates []ports.SubscriberRecord) *ports.SubscriberRecord {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) > 1 {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
		})
	}
	chosen := candidates[0]
	return &chosen
}
