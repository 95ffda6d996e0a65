package outbox_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenfund/pledgeflow/internal/mlog"
	"github.com/lumenfund/pledgeflow/internal/outbox"
)

// fakeRepository is a hand-written stand-in for outbox.Repository; the
// pack's go.uber.org/mock generators target interfaces in source files we
// did not retrieve, so the poller tests drive a narrow fake instead.
type fakeRepository struct {
	batch []*outbox.Record

	published []uuid.UUID
	failed    []uuid.UUID
	dlq       []uuid.UUID

	purgeCalls int
}

func (f *fakeRepository) Insert(ctx context.Context, tx *sql.Tx, rec *outbox.Record) error {
	return errors.New("not implemented")
}

func (f *fakeRepository) ClaimBatch(ctx context.Context, limit int) ([]*outbox.Record, error) {
	batch := f.batch
	f.batch = nil

	return batch, nil
}

func (f *fakeRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastErr string) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepository) MarkDLQ(ctx context.Context, id uuid.UUID, lastErr string) error {
	f.dlq = append(f.dlq, id)
	return nil
}

func (f *fakeRepository) PurgeProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	f.purgeCalls++
	return 0, nil
}

type fakePublisher struct {
	shouldErr bool
	published int
}

func (f *fakePublisher) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	if f.shouldErr {
		return errors.New("broker unreachable")
	}

	f.published++

	return nil
}

func newTestRecord(retryCount, maxRetries int) *outbox.Record {
	return &outbox.Record{
		ID:           uuid.New(),
		AggregateRef: "pledge-1",
		EventKind:    kindPledgeCreated,
		Payload:      map[string]any{"amount": "10.00"},
		Status:       outbox.StatusProcessing,
		RetryCount:   retryCount,
		MaxRetries:   maxRetries,
	}
}

func TestPoller_RunOnce_PublishesAndMarksPublished(t *testing.T) {
	rec := newTestRecord(0, outbox.DefaultMaxRetries)
	repo := &fakeRepository{batch: []*outbox.Record{rec}}
	pub := &fakePublisher{}

	p := outbox.NewPoller(repo, pub, "pledgeflow.events", "donations", mlog.NoneLogger{})

	require.NoError(t, p.RunOnce(context.Background()))

	assert.Equal(t, 1, pub.published)
	assert.Equal(t, []uuid.UUID{rec.ID}, repo.published)
	assert.Empty(t, repo.failed)
	assert.Empty(t, repo.dlq)
}

func TestPoller_HandleFailure_RetriesBelowMaxRetries(t *testing.T) {
	rec := newTestRecord(3, outbox.DefaultMaxRetries)
	repo := &fakeRepository{batch: []*outbox.Record{rec}}
	pub := &fakePublisher{shouldErr: true}

	p := outbox.NewPoller(repo, pub, "pledgeflow.events", "donations", mlog.NoneLogger{})

	require.NoError(t, p.RunOnce(context.Background()))

	assert.Equal(t, []uuid.UUID{rec.ID}, repo.failed)
	assert.Empty(t, repo.dlq)
}

func TestPoller_HandleFailure_DLQRoutingAtRetryBudget(t *testing.T) {
	rec := newTestRecord(outbox.DefaultMaxRetries-1, outbox.DefaultMaxRetries)
	repo := &fakeRepository{batch: []*outbox.Record{rec}}
	pub := &fakePublisher{shouldErr: true}

	p := outbox.NewPoller(repo, pub, "pledgeflow.events", "donations", mlog.NoneLogger{})

	require.NoError(t, p.RunOnce(context.Background()))

	assert.Equal(t, []uuid.UUID{rec.ID}, repo.dlq)
	assert.Empty(t, repo.failed)
}

func TestPoller_RunOnce_PurgesEveryNBatches(t *testing.T) {
	repo := &fakeRepository{}
	pub := &fakePublisher{}

	p := outbox.NewPoller(repo, pub, "pledgeflow.events", "donations", mlog.NoneLogger{})
	p.PurgeEveryN = 2

	require.NoError(t, p.RunOnce(context.Background()))
	assert.Equal(t, 0, repo.purgeCalls)

	require.NoError(t, p.RunOnce(context.Background()))
	assert.Equal(t, 1, repo.purgeCalls)
}
