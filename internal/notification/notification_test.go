package notification_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenfund/pledgeflow/internal/notification"
)

type fakeRepository struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{seen: map[string]bool{}}
}

func (f *fakeRepository) InsertIfAbsent(ctx context.Context, n *notification.Notification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := n.PledgeRef + "|" + n.EventKind
	if f.seen[key] {
		return false, nil
	}

	f.seen[key] = true

	return true, nil
}

type fakeSender struct {
	mu    sync.Mutex
	sends int
}

func (f *fakeSender) Send(ctx context.Context, recipient, templateID string, data map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sends++

	return nil
}

func TestService_NotifyOnce_SendsFirstDelivery(t *testing.T) {
	repo := newFakeRepository()
	sender := &fakeSender{}
	svc := &notification.Service{Repo: repo, Sender: sender}

	err := svc.NotifyOnce(context.Background(), "pledge-1", "PaymentStatus.CAPTURED", "donor@example.com", "tmpl-captured", nil)

	require.NoError(t, err)
	assert.Equal(t, 1, sender.sends)
}

func TestService_NotifyOnce_SuppressesDuplicateDelivery(t *testing.T) {
	repo := newFakeRepository()
	sender := &fakeSender{}
	svc := &notification.Service{Repo: repo, Sender: sender}

	require.NoError(t, svc.NotifyOnce(context.Background(), "pledge-1", "PaymentStatus.CAPTURED", "donor@example.com", "tmpl-captured", nil))
	require.NoError(t, svc.NotifyOnce(context.Background(), "pledge-1", "PaymentStatus.CAPTURED", "donor@example.com", "tmpl-captured", nil))

	assert.Equal(t, 1, sender.sends, "duplicate bus delivery must not send a second email")
}

func TestService_NotifyOnce_DistinctEventKindsBothSend(t *testing.T) {
	repo := newFakeRepository()
	sender := &fakeSender{}
	svc := &notification.Service{Repo: repo, Sender: sender}

	require.NoError(t, svc.NotifyOnce(context.Background(), "pledge-1", "PaymentStatus.CAPTURED", "donor@example.com", "tmpl-captured", nil))
	require.NoError(t, svc.NotifyOnce(context.Background(), "pledge-1", "PaymentStatus.REFUNDED", "donor@example.com", "tmpl-refunded", nil))

	assert.Equal(t, 2, sender.sends)
}
