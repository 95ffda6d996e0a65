package notification

import (
	"context"

	"github.com/lumenfund/pledgeflow/internal/mlog"
)

// LoggingSender is the Sender stand-in for actual email/SMS delivery,
// which spec.md §1 explicitly leaves out of scope behind the injected
// send(recipient, template_id, data) capability. It logs what would have
// been sent so the rest of the pipeline (dedup, retries, dead-lettering)
// is exercised without a real provider integration.
type LoggingSender struct {
	Logger mlog.Logger
}

// Send logs the notification and always succeeds.
func (s *LoggingSender) Send(ctx context.Context, recipient, templateID string, data map[string]any) error {
	s.Logger.WithFields(
		"recipient", recipient,
		"template_id", templateID,
		"data", data,
	).Infof("notification: would send %s to %s", templateID, recipient)

	return nil
}
