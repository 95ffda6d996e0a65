package webhookaudit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenfund/pledgeflow/internal/webhookaudit"
)

type fakeWriter struct {
	entries []*webhookaudit.WebhookAuditEntry
}

func (f *fakeWriter) Record(ctx context.Context, entry *webhookaudit.WebhookAuditEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func TestFakeWriter_RecordsEveryDelivery(t *testing.T) {
	w := &fakeWriter{}

	entry := &webhookaudit.WebhookAuditEntry{
		IdempotencyKey: "idem-1",
		IntentRef:      "intent-1",
		GatewayLabel:   "stripe",
		RawPayload:     map[string]any{"type": "payment_intent.succeeded"},
		ReceivedAt:     time.Now(),
	}

	require.NoError(t, w.Record(context.Background(), entry))
	require.Len(t, w.entries, 1)
	assert.Equal(t, "idem-1", w.entries[0].IdempotencyKey)
	assert.Equal(t, "intent-1", w.entries[0].IntentRef)
}

func TestFakeWriter_RecordsEvenDuplicateIdempotencyKeys(t *testing.T) {
	w := &fakeWriter{}

	for i := 0; i < 2; i++ {
		entry := &webhookaudit.WebhookAuditEntry{
			IdempotencyKey: "idem-dup",
			IntentRef:      "intent-1",
			ReceivedAt:     time.Now(),
		}
		require.NoError(t, w.Record(context.Background(), entry))
	}

	assert.Len(t, w.entries, 2)
}
