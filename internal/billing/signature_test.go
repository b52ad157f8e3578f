package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("valid signature passes", func(t *testing.T) {
		header := SignPayload(payload, secret, now)
		assert.NoError(t, VerifySignature(payload, header, secret, now))
	})

	t.Run("signature by another secret fails", func(t *testing.T) {
		header := SignPayload(payload, "whsec_other", now)
		assert.Error(t, VerifySignature(payload, header, secret, now))
	})

	t.Run("tampered body fails", func(t *testing.T) {
		header := SignPayload(payload, secret, now)
		tampered := []byte(`{"id":"evt_1","type":"customer.subscription.deleted"}`)
		assert.Error(t, VerifySignature(tampered, header, secret, now))
	})

	t.Run("stale timestamp fails", func(t *testing.T) {
		header := SignPayload(payload, secret, now.Add(-10*time.Minute))
		assert.Error(t, VerifySignature(payload, header, secret, now))
	})

	t.Run("future timestamp within tolerance passes", func(t *testing.T) {
		header := SignPayload(payload, secret, now.Add(2*time.Minute))
		assert.NoError(t, VerifySignature(payload, header, secret, now))
	})

	t.Run("empty secret never verifies", func(t *testing.T) {
		header := SignPayload(payload, "", now)
		assert.Error(t, VerifySignature(payload, header, "", now))
	})

	t.Run("missing header fails", func(t *testing.T) {
		assert.Error(t, VerifySignature(payload, "", secret, now))
	})

	t.Run("malformed header fails", func(t *testing.T) {
		assert.Error(t, VerifySignature(payload, "not-a-signature", secret, now))
		assert.Error(t, VerifySignature(payload, "t=abc,v1=ff", secret, now))
	})

	t.Run("one valid signature among several passes", func(t *testing.T) {
		valid := SignPayload(payload, secret, now)
		header := "v1=deadbeef," + valid
		require.NoError(t, VerifySignature(payload, header, secret, now))
	})
}
