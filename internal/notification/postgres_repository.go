package notification

import (
	"context"
	"errors"

	"github.com/bxcodec/dbresolver/v2"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepository is the Repository implementation backed by a table
// with a unique constraint on (pledge_ref, event_kind), grounded on
// internal/idempotency's ON CONFLICT DO NOTHING pattern.
type PostgresRepository struct {
	db dbresolver.DB
}

// NewPostgresRepository builds a Repository against db.
func NewPostgresRepository(db dbresolver.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// InsertIfAbsent relies on the unique (pledge_ref, event_kind) constraint:
// ON CONFLICT DO NOTHING plus RowsAffected tells the caller whether this
// call actually won the race.
func (r *PostgresRepository) InsertIfAbsent(ctx context.Context, n *Notification) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, pledge_ref, event_kind, recipient, template_id, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (pledge_ref, event_kind) DO NOTHING`,
		n.ID, n.PledgeRef, n.EventKind, n.Recipient, n.TemplateID, n.SentAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, nil
		}

		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}
