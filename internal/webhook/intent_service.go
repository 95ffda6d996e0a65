package webhook

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lumenfund/pledgeflow/internal/money"
	"github.com/lumenfund/pledgeflow/internal/outbox"
)

// ErrNotCaptured is returned by Refund when the intent is not currently
// CAPTURED (spec.md §6: "400 if not CAPTURED").
var ErrNotCaptured = errors.New("webhook: intent is not captured")

// IntentService implements the two merchant-facing payments operations
// that sit outside the gateway-notification path: creating an intent and
// starting a refund (spec.md §6).
type IntentService struct {
	Repo   Repository
	Outbox outbox.Repository
}

// CreateIntent opens a new PaymentIntent in the INITIATED state for a
// pledge awaiting payment.
func (s *IntentService) CreateIntent(ctx context.Context, pledgeRef, amount, currency, gatewayLabel string) (*PaymentIntent, error) {
	parsedAmount, err := money.NewFromString(amount)
	if err != nil {
		return nil, err
	}

	if !parsedAmount.IsPositive() {
		return nil, errors.New("webhook: intent amount must be positive")
	}

	now := time.Now().UTC()

	intent := &PaymentIntent{
		ID:           uuid.New(),
		PledgeRef:    pledgeRef,
		IntentRef:    "pi_" + uuid.New().String(),
		Amount:       parsedAmount,
		Currency:     currency,
		Status:       StatusInitiated,
		GatewayLabel: gatewayLabel,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tx, err := s.Repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.Repo.InsertIntent(ctx, tx, intent); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return intent, nil
}

// Refund transitions a CAPTURED intent to REFUNDED, appending a
// transition record and enqueueing a PaymentStatus.REFUNDED outbox event
// (spec.md §6: POST /v1/payments/{id}/refund).
func (s *IntentService) Refund(ctx context.Context, intentRef string) (*PaymentIntent, error) {
	tx, err := s.Repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	intent, err := s.Repo.LoadForUpdate(ctx, tx, intentRef)
	if err != nil {
		return nil, err
	}

	if intent.Status != StatusCaptured {
		return nil, ErrNotCaptured
	}

	oldStatus := intent.Status
	now := time.Now().UTC()

	intent.Status = StatusRefunded
	intent.UpdatedAt = now
	intent.Version++

	if err := s.Repo.UpdateIntent(ctx, tx, intent); err != nil {
		return nil, err
	}

	transition := &PaymentTransitionRecord{
		PaymentRef:     intent.IntentRef,
		FromStatus:     oldStatus,
		ToStatus:       intent.Status,
		EventID:        "refund_" + uuid.New().String(),
		EventTimestamp: now,
		ReceivedAt:     now,
		Version:        intent.Version,
	}

	if err := s.Repo.InsertTransition(ctx, tx, transition); err != nil {
		return nil, err
	}

	outboxRec, err := outbox.NewRecord(intent.IntentRef, outboxKind(intent.Status), OutboxEventKinds, map[string]any{
		"intent_ref": intent.IntentRef,
		"pledge_ref": intent.PledgeRef,
		"old_status": string(oldStatus),
		"new_status": string(intent.Status),
		"version":    intent.Version,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Outbox.Insert(ctx, tx, outboxRec); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return intent, nil
}
