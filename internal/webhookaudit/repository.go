package webhookaudit

import "context"

// Writer appends a WebhookAuditEntry. It is the only operation the
// payments webhook adapter needs, kept narrow so tests can supply a fake
// in place of Mongo.
type Writer interface {
	Record(ctx context.Context, entry *WebhookAuditEntry) error
}
