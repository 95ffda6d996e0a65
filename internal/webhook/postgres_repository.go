package webhook

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/bxcodec/dbresolver/v2"
	"github.com/google/uuid"

	"github.com/lumenfund/pledgeflow/internal/money"
)

// PostgresRepository is the Postgres-backed Repository implementation.
type PostgresRepository struct {
	db dbresolver.DB
}

// NewPostgresRepository builds a Repository against db.
func NewPostgresRepository(db dbresolver.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

// InsertIntent persists a freshly created PaymentIntent (spec.md §6:
// POST /v1/payments/intent).
func (r *PostgresRepository) InsertIntent(ctx context.Context, tx *sql.Tx, intent *PaymentIntent) error {
	snapshot, err := json.Marshal(intent.GatewaySnapshot)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payment_intents
			(id, pledge_ref, intent_ref, amount, currency, status, gateway_label, gateway_snapshot, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		intent.ID, intent.PledgeRef, intent.IntentRef, intent.Amount.String(), intent.Currency,
		string(intent.Status), intent.GatewayLabel, snapshot, intent.Version, intent.CreatedAt, intent.UpdatedAt)

	return err
}

// LoadForUpdate locks the row for the duration of the caller's
// transaction (spec.md §4.2 Processing path step 2: "with pessimistic row
// lock").
func (r *PostgresRepository) LoadForUpdate(ctx context.Context, tx *sql.Tx, intentRef string) (*PaymentIntent, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, pledge_ref, intent_ref, amount, currency, status, gateway_label, gateway_snapshot, version, created_at, updated_at
		FROM payment_intents
		WHERE intent_ref = $1
		FOR UPDATE`, intentRef)

	var (
		intent       PaymentIntent
		status       string
		amount       string
		snapshotJSON []byte
	)

	err := row.Scan(&intent.ID, &intent.PledgeRef, &intent.IntentRef, &amount, &intent.Currency,
		&status, &intent.GatewayLabel, &snapshotJSON, &intent.Version, &intent.CreatedAt, &intent.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIntentNotFound
	}

	if err != nil {
		return nil, err
	}

	intent.Status = Status(status)

	parsedAmount, err := money.NewFromString(amount)
	if err != nil {
		return nil, err
	}

	intent.Amount = parsedAmount

	if len(snapshotJSON) > 0 {
		if err := json.Unmarshal(snapshotJSON, &intent.GatewaySnapshot); err != nil {
			return nil, err
		}
	}

	return &intent, nil
}

func (r *PostgresRepository) UpdateIntent(ctx context.Context, tx *sql.Tx, intent *PaymentIntent) error {
	snapshot, err := json.Marshal(intent.GatewaySnapshot)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE payment_intents
		SET status = $1, gateway_snapshot = $2, version = $3, updated_at = $4
		WHERE id = $5`,
		string(intent.Status), snapshot, intent.Version, intent.UpdatedAt, intent.ID)

	return err
}

func (r *PostgresRepository) InsertTransition(ctx context.Context, tx *sql.Tx, rec *PaymentTransitionRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO payment_transition_records
			(id, payment_ref, from_status, to_status, event_id, event_timestamp, received_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), rec.PaymentRef, string(rec.FromStatus), string(rec.ToStatus),
		rec.EventID, rec.EventTimestamp, rec.ReceivedAt, rec.Version)

	return err
}

