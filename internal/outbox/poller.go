package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lumenfund/pledgeflow/internal/launcher"
	"github.com/lumenfund/pledgeflow/internal/mlog"
	"github.com/lumenfund/pledgeflow/internal/mretry"
)

// Publisher is the subset of internal/mbroker.Connection the Poller needs,
// kept narrow so tests can supply a fake.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
}

// Envelope is the wire format published for every outbox event (spec.md
// §6 Bus: "Message envelope (JSON)").
type Envelope struct {
	EventType    string    `json:"event_type"`
	AggregateRef string    `json:"aggregate_ref"`
	Timestamp    time.Time `json:"timestamp"`
	Payload      any       `json:"payload"`
}

// Poller drains pending Records to the broker at least once, tolerating
// broker outages without losing events (spec.md §4.1).
type Poller struct {
	Repo          Repository
	Publisher     Publisher
	Exchange      string
	Service       string
	BatchSize     int
	PollInterval  time.Duration
	Retention     time.Duration
	PurgeEveryN   int
	RetryConfig   mretry.Config
	Logger        mlog.Logger

	batchesSinceLastPurge int
}

// NewPoller builds a Poller with the defaults spec.md §4.1/§6 describe.
func NewPoller(repo Repository, pub Publisher, exchange, service string, logger mlog.Logger) *Poller {
	if logger == nil {
		panic("outbox: logger must not be nil")
	}

	if repo == nil {
		panic("outbox: repository must not be nil")
	}

	return &Poller{
		Repo:         repo,
		Publisher:    pub,
		Exchange:     exchange,
		Service:      service,
		BatchSize:    100,
		PollInterval: 2 * time.Second,
		Retention:    7 * 24 * time.Hour,
		PurgeEveryN:  30,
		RetryConfig:  mretry.DefaultMetadataOutboxConfig(),
		Logger:       logger,
	}
}

// Run implements launcher.App: it loops forever, draining one batch every
// PollInterval with a context.Background context, and never returns; it
// takes no cancellation signal from l. There is no shared-state mutex held
// across the broker publish suspension point (spec.md §5).
func (p *Poller) Run(l *launcher.Launcher) error {
	ctx := context.Background()

	for {
		if err := p.RunOnce(ctx); err != nil {
			p.Logger.Errorf("outbox poller: batch error: %v", err)
		}

		time.Sleep(p.PollInterval)
	}
}

// RunOnce drains a single batch and, every PurgeEveryN batches, purges
// old published rows (spec.md §4.1 steps 1-4).
func (p *Poller) RunOnce(ctx context.Context) error {
	batch, err := p.Repo.ClaimBatch(ctx, p.BatchSize)
	if err != nil {
		return err
	}

	for _, rec := range batch {
		p.publishOne(ctx, rec)
	}

	p.batchesSinceLastPurge++

	if p.PurgeEveryN > 0 && p.batchesSinceLastPurge >= p.PurgeEveryN {
		p.batchesSinceLastPurge = 0

		cutoff := time.Now().Add(-p.Retention)
		if _, err := p.Repo.PurgeProcessedBefore(ctx, cutoff); err != nil {
			p.Logger.Errorf("outbox poller: purge error: %v", err)
		}
	}

	return nil
}

func (p *Poller) publishOne(ctx context.Context, rec *Record) {
	body, err := json.Marshal(Envelope{
		EventType:    string(rec.EventKind),
		AggregateRef: rec.AggregateRef,
		Timestamp:    time.Now().UTC(),
		Payload:      rec.Payload,
	})
	if err != nil {
		p.handleFailure(ctx, rec, err)
		return
	}

	routingKey := rec.RoutingKey(p.Service)

	if err := p.Publisher.Publish(ctx, p.Exchange, routingKey, body); err != nil {
		p.handleFailure(ctx, rec, err)
		return
	}

	if err := p.Repo.MarkPublished(ctx, rec.ID); err != nil {
		p.Logger.Errorf("outbox poller: mark published failed for %s: %v", rec.ID, err)
	}
}

// handleFailure routes a publish failure to FAILED (retry later) or DLQ
// (retry budget exhausted), with an operator-visible log line standing in
// for the poison-event alert counter (spec.md §4.1 Failure semantics, §7
// Poison).
func (p *Poller) handleFailure(ctx context.Context, rec *Record, cause error) {
	newRetryCount := rec.RetryCount + 1

	if newRetryCount >= rec.MaxRetries {
		if err := p.Repo.MarkDLQ(ctx, rec.ID, cause.Error()); err != nil {
			p.Logger.Errorf("outbox poller: mark DLQ failed for %s: %v", rec.ID, err)
		}

		p.Logger.Errorf("outbox poller: event %s (%s) moved to DLQ after %d attempts: %v",
			rec.ID, rec.EventKind, newRetryCount, cause)

		return
	}

	if err := p.Repo.MarkFailed(ctx, rec.ID, cause.Error()); err != nil {
		p.Logger.Errorf("outbox poller: mark failed for %s: %v", rec.ID, err)
	}
}
