package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lumenfund/pledgeflow/internal/idempotency"
	"github.com/lumenfund/pledgeflow/internal/mlog"
	"github.com/lumenfund/pledgeflow/internal/outbox"
)

// OutboxEventKinds lists every PaymentStatus.* kind the Processor can
// emit, for registration with the owning service's outbox validKinds.
var OutboxEventKinds = []outbox.EventKind{
	outboxKind(StatusAuthorized),
	outboxKind(StatusCaptured),
	outboxKind(StatusFailed),
	outboxKind(StatusRefunded),
}

func outboxKind(s Status) outbox.EventKind {
	return outbox.EventKind("PaymentStatus." + string(s))
}

// Result is the HTTP-shaped outcome of handling one notification —
// exactly what gets cached and replayed for a repeat idempotency key.
type Result struct {
	StatusCode int            `json:"-"`
	Body       map[string]any `json:"body"`
}

// Processor implements the dual-layer-idempotent processing path of
// spec.md §4.2.
type Processor struct {
	Repo        Repository
	Outbox      outbox.Repository
	Idempotency *idempotency.Store
	Logger      mlog.Logger
}

// Handle runs the full "derive key -> L1 -> L2 -> processing path ->
// write-through" contract for a single notification. key must already be
// derived by the caller (spec.md §4.2 step 1: header, else SHA-256 of the
// raw body).
func (p *Processor) Handle(ctx context.Context, key string, ev Event) (*Result, error) {
	if cached, hit, err := p.Idempotency.Lookup(ctx, key); err != nil {
		return nil, err
	} else if hit {
		var body map[string]any
		if err := json.Unmarshal(cached.ResponseBody, &body); err != nil {
			return nil, err
		}

		return &Result{StatusCode: cached.StatusCode, Body: body}, nil
	}

	result, cacheable, err := p.process(ctx, ev)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := p.cache(ctx, key, result); err != nil {
			p.Logger.Errorf("webhook: caching response for key %s failed: %v", key, err)
		}
	}

	return result, nil
}

// process runs the transactional core of the state machine. The bool
// return indicates whether the outcome is safe to cache: database
// conflicts/deadlocks are not (spec.md §4.2 Failure semantics).
func (p *Processor) process(ctx context.Context, ev Event) (*Result, bool, error) {
	tx, err := p.Repo.BeginTx(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback() //nolint:errcheck

	intent, err := p.Repo.LoadForUpdate(ctx, tx, ev.IntentRef)
	if errors.Is(err, ErrIntentNotFound) {
		result := &Result{StatusCode: 404, Body: map[string]any{"status": "not_found"}}
		return result, true, tx.Commit()
	}

	if err != nil {
		return nil, false, err
	}

	if ev.EventTimestamp.Before(intent.UpdatedAt) {
		result := &Result{StatusCode: 200, Body: map[string]any{"status": "ignored", "reason": "out_of_order"}}
		return result, true, tx.Commit()
	}

	if !intent.Status.CanTransitionTo(ev.ProposedStatus) {
		result := &Result{StatusCode: 400, Body: map[string]any{"status": "rejected", "reason": "invalid_transition"}}
		return result, true, tx.Commit()
	}

	oldStatus := intent.Status

	intent.Status = ev.ProposedStatus
	intent.UpdatedAt = ev.EventTimestamp
	intent.Version++
	intent.GatewaySnapshot = ev.Payload

	if err := p.Repo.UpdateIntent(ctx, tx, intent); err != nil {
		return nil, false, err
	}

	transition := &PaymentTransitionRecord{
		PaymentRef:     intent.IntentRef,
		FromStatus:     oldStatus,
		ToStatus:       intent.Status,
		EventID:        ev.EventID,
		EventTimestamp: ev.EventTimestamp,
		ReceivedAt:     time.Now().UTC(),
		Version:        intent.Version,
	}

	if err := p.Repo.InsertTransition(ctx, tx, transition); err != nil {
		return nil, false, err
	}

	outboxRec, err := outbox.NewRecord(intent.IntentRef, outboxKind(intent.Status), OutboxEventKinds, map[string]any{
		"intent_ref": intent.IntentRef,
		"pledge_ref": intent.PledgeRef,
		"old_status": string(oldStatus),
		"new_status": string(intent.Status),
		"version":    intent.Version,
	})
	if err != nil {
		return nil, false, err
	}

	if err := p.Outbox.Insert(ctx, tx, outboxRec); err != nil {
		return nil, false, err
	}

	result := &Result{
		StatusCode: 200,
		Body: map[string]any{
			"status":     "processed",
			"old_status": string(oldStatus),
			"new_status": string(intent.Status),
			"version":    intent.Version,
		},
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	return result, true, nil
}

func (p *Processor) cache(ctx context.Context, key string, result *Result) error {
	body, err := json.Marshal(result.Body)
	if err != nil {
		return err
	}

	rec := &idempotency.Record{
		Key:          key,
		StatusCode:   result.StatusCode,
		ResponseBody: body,
		ExpiresAt:    time.Now().Add(idempotency.DefaultTTL),
	}

	tx, err := p.Repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := p.Idempotency.SaveTx(ctx, tx, rec); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return p.Idempotency.WarmL1(ctx, rec)
}
