package routing

import "strings"

// callerIDSentinels are the values carriers substitute when the caller
// withholds or lacks caller ID.
var callerIDSentinels = map[string]struct{}{
	"unknown":     {},
	"unavailable": {},
	"anonymous":   {},
}

// spamNameMarkers flag caller display names that carriers or upstream
// analytics already tagged, e.g. "Spam Risk" or "Scam Likely".
var spamNameMarkers = []string{"unknown", "unavailable", "spam", "scam"}

// Classification is the spam signal for a single caller. It is deliberately
// a handful of fully-explainable string checks, isolated here so a scoring
// model could replace it without touching the decision rules.
type Classification struct {
	UnknownCallerID bool
	Blocklisted     bool
}

// IsSpam reports whether the caller should be routed to the AI persona.
func (c Classification) IsSpam() bool {
	return c.UnknownCallerID || c.Blocklisted
}

// Classify inspects the caller identity fields and the subscriber's
// blocklist. Blocklist membership is an exact string match; no number
// normalization is performed beyond what the event already carries.
func Classify(event InboundCallEvent, blockedNumbers []string) Classification {
	var c Classification

	number := strings.TrimSpace(event.CallerNumber)
	if number == "" {
		c.UnknownCallerID = true
	} else if _, ok := callerIDSentinels[strings.ToLower(number)]; ok {
		c.UnknownCallerID = true
	}

	if name := strings.ToLower(event.CallerDisplayName); name != "" {
		for _, marker := range spamNameMarkers {
			if strings.Contains(name, marker) {
				c.UnknownCallerID = true
				break
			}
		}
	}

	for _, blocked := range blockedNumbers {
		if number != "" && number == blocked {
			c.Blocklisted = true
			break
		}
	}

	return c
}
