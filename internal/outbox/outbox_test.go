package outbox_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumenfund/pledgeflow/internal/outbox"
)

const (
	kindPledgeCreated outbox.EventKind = "PLEDGE_CREATED"
	kindPaymentFailed outbox.EventKind = "PAYMENT_FAILED"
)

var validKinds = []outbox.EventKind{kindPledgeCreated, kindPaymentFailed}

func TestNewRecord_Valid(t *testing.T) {
	rec, err := outbox.NewRecord("pledge-123", kindPledgeCreated, validKinds, map[string]any{"amount": "10.00"})

	assert.NoError(t, err)
	assert.Equal(t, outbox.StatusPending, rec.Status)
	assert.Equal(t, 0, rec.RetryCount)
	assert.Equal(t, outbox.DefaultMaxRetries, rec.MaxRetries)
	assert.NotEqual(t, rec.ID.String(), "")
}

func TestNewRecord_EmptyAggregateRef(t *testing.T) {
	_, err := outbox.NewRecord("   ", kindPledgeCreated, validKinds, map[string]any{"a": "b"})
	assert.ErrorIs(t, err, outbox.ErrEntityIDEmpty)
}

func TestNewRecord_AggregateRefTooLong(t *testing.T) {
	ref := strings.Repeat("x", outbox.MaxEntityIDLength+1)
	_, err := outbox.NewRecord(ref, kindPledgeCreated, validKinds, map[string]any{"a": "b"})
	assert.ErrorIs(t, err, outbox.ErrEntityIDTooLong)
}

func TestNewRecord_InvalidEventKind(t *testing.T) {
	_, err := outbox.NewRecord("pledge-123", outbox.EventKind("UNKNOWN"), validKinds, map[string]any{"a": "b"})
	assert.ErrorIs(t, err, outbox.ErrInvalidEventKind)
}

func TestNewRecord_NilPayload(t *testing.T) {
	_, err := outbox.NewRecord("pledge-123", kindPledgeCreated, validKinds, nil)
	assert.ErrorIs(t, err, outbox.ErrPayloadNil)
}

func TestNewRecord_PayloadTooLarge(t *testing.T) {
	payload := map[string]any{"blob": strings.Repeat("x", outbox.MaxPayloadSize+1)}
	_, err := outbox.NewRecord("pledge-123", kindPledgeCreated, validKinds, payload)
	assert.ErrorIs(t, err, outbox.ErrPayloadTooLarge)
}

func TestRecord_RoutingKey(t *testing.T) {
	rec, err := outbox.NewRecord("pledge-123", kindPledgeCreated, validKinds, map[string]any{"a": "b"})
	assert.NoError(t, err)
	assert.Equal(t, "donations.pledge_created", rec.RoutingKey("donations"))
}

func TestSanitizeErrorMessage_RedactsEmail(t *testing.T) {
	got := outbox.SanitizeErrorMessage("delivery failed for donor@example.com")
	assert.Contains(t, got, "[REDACTED]")
	assert.NotContains(t, got, "donor@example.com")
}

func TestSanitizeErrorMessage_RedactsPhoneAndIP(t *testing.T) {
	got := outbox.SanitizeErrorMessage("caller 555-123-4567 from 10.0.0.1 timed out")
	assert.NotContains(t, got, "555-123-4567")
	assert.NotContains(t, got, "10.0.0.1")
}

func TestSanitizeErrorMessage_Truncates(t *testing.T) {
	got := outbox.SanitizeErrorMessage(strings.Repeat("a", 1000))
	assert.True(t, strings.HasSuffix(got, "...[truncated]"))
	assert.LessOrEqual(t, len(got), 512+len("...[truncated]"))
}
