package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	dErrors "spamstopper/pkg/domain-errors"
)

// signatureTolerance bounds how stale a signed webhook may be before it is
// rejected as a possible replay.
const signatureTolerance = 5 * time.Minute

// VerifySignature checks the provider's webhook signature header against the
// raw request body. The header carries a unix timestamp and one or more
// HMAC-SHA256 signatures over "<timestamp>.<body>":
//
//	t=1492774577,v1=5257a869e7ecebeda32affa62cdca3fa51cad7e77a0e56ff536d0ce8e108d8bd
//
// The signature must match and the timestamp must be within tolerance of now.
func VerifySignature(payload []byte, header, secret string, now time.Time) error {
	if secret == "" {
		return dErrors.New(dErrors.CodeBadRequest, "webhook signing secret is empty")
	}
	if header == "" {
		return dErrors.New(dErrors.CodeBadRequest, "missing webhook signature")
	}

	var timestamp int64
	var signatures [][]byte
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return dErrors.New(dErrors.CodeBadRequest, "malformed webhook signature timestamp")
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "malformed webhook signature")
	}

	age := now.Sub(time.Unix(timestamp, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return dErrors.New(dErrors.CodeBadRequest, "webhook signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(sig, expected) {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeBadRequest, "webhook signature mismatch")
}

// SignPayload produces a signature header for the given body, the same way
// the provider signs deliveries.
func SignPayload(payload []byte, secret string, now time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", now.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(mac.Sum(nil)))
}
