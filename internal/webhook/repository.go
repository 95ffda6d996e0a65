package webhook

import (
	"context"
	"database/sql"
	"errors"
)

// ErrIntentNotFound is returned by LoadForUpdate when no PaymentIntent
// matches the requested intent_ref.
var ErrIntentNotFound = errors.New("webhook: payment intent not found")

// Repository is the persistence contract the Processor drives. Every
// mutating method is called within a transaction begun by BeginTx, so the
// intent update, transition record, outbox row and idempotency record
// commit atomically (spec.md §4.2 Processing path).
type Repository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	InsertIntent(ctx context.Context, tx *sql.Tx, intent *PaymentIntent) error
	LoadForUpdate(ctx context.Context, tx *sql.Tx, intentRef string) (*PaymentIntent, error)
	UpdateIntent(ctx context.Context, tx *sql.Tx, intent *PaymentIntent) error
	InsertTransition(ctx context.Context, tx *sql.Tx, rec *PaymentTransitionRecord) error
}
