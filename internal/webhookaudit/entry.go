// Package webhookaudit keeps an append-only forensic trail of every raw
// gateway payload the payments service receives, independent of the
// payment_intent state machine outcome (SPEC_FULL.md §3, WebhookAuditEntry).
//
// Grounded on the teacher's components/audit package: a narrow
// create-only Repository backed by Mongo, with OpenTelemetry tracer
// spans dropped since observability export is out of scope here.
package webhookaudit

import "time"

// WebhookAuditEntry is one raw inbound webhook delivery, stored verbatim
// for dispute resolution and replay debugging regardless of whether the
// payload was ever successfully processed.
type WebhookAuditEntry struct {
	ID             string         `bson:"_id,omitempty" json:"id,omitempty"`
	IdempotencyKey string         `bson:"idempotency_key" json:"idempotency_key"`
	IntentRef      string         `bson:"intent_ref" json:"intent_ref"`
	GatewayLabel   string         `bson:"gateway_label" json:"gateway_label"`
	RawPayload     map[string]any `bson:"raw_payload" json:"raw_payload"`
	ReceivedAt     time.Time      `bson:"received_at" json:"received_at"`
}
