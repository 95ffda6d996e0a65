package donation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/bxcodec/dbresolver/v2"
	"github.com/google/uuid"

	"github.com/lumenfund/pledgeflow/internal/money"
)

// PostgresRepository is the Postgres-backed Repository implementation,
// grounded on internal/ledger's PostgresRepository style.
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

func (r *PostgresRepository) InsertTx(ctx context.Context, tx *sql.Tx, p *Pledge) error {
	extra, err := json.Marshal(p.Extra)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pledges
			(id, campaign_ref, donor_contact, amount, currency, status, gateway_intent_ref, extra, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11)`,
		p.ID, p.CampaignRef, p.DonorContact, p.Amount.String(), p.Currency, string(p.Status),
		p.GatewayIntentRef, extra, p.Version, p.CreatedAt, p.UpdatedAt)

	return err
}

func (r *PostgresRepository) LoadForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*Pledge, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, campaign_ref, donor_contact, amount, currency, status, COALESCE(gateway_intent_ref, ''), extra, version, created_at, updated_at
		FROM pledges WHERE id = $1 FOR UPDATE`, id)

	return scanPledge(row)
}

func (r *PostgresRepository) UpdateTx(ctx context.Context, tx *sql.Tx, p *Pledge) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE pledges
		SET status = $1, gateway_intent_ref = NULLIF($2, ''), version = $3, updated_at = $4
		WHERE id = $5`,
		string(p.Status), p.GatewayIntentRef, p.Version, p.UpdatedAt, p.ID)

	return err
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Pledge, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, campaign_ref, donor_contact, amount, currency, status, COALESCE(gateway_intent_ref, ''), extra, version, created_at, updated_at
		FROM pledges WHERE id = $1`, id)

	return scanPledge(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPledge(row rowScanner) (*Pledge, error) {
	var (
		p         Pledge
		status    string
		amount    string
		extraJSON []byte
	)

	err := row.Scan(&p.ID, &p.CampaignRef, &p.DonorContact, &amount, &p.Currency, &status,
		&p.GatewayIntentRef, &extraJSON, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPledgeNotFound
	}

	if err != nil {
		return nil, err
	}

	p.Status = Status(status)

	amt, err := money.NewFromString(amount)
	if err != nil {
		return nil, err
	}

	p.Amount = amt

	if len(extraJSON) > 0 {
		if err := json.Unmarshal(extraJSON, &p.Extra); err != nil {
			return nil, err
		}
	}

	return &p, nil
}
