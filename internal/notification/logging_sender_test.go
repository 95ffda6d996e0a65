package notification_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenfund/pledgeflow/internal/mlog"
	"github.com/lumenfund/pledgeflow/internal/notification"
)

func TestLoggingSender_Send_NeverFails(t *testing.T) {
	sender := &notification.LoggingSender{Logger: mlog.NoneLogger{}}

	err := sender.Send(context.Background(), "donor@example.com", "payment_confirmed", map[string]any{"pledge_ref": "pledge-1"})

	require.NoError(t, err)
}
