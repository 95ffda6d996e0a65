package idempotency

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bxcodec/dbresolver/v2"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore is the L2Store implementation: a relational table keyed
// on the idempotency key, unique per spec.md §6's "unique (key) on
// idempotency tables".
type PostgresStore struct {
	db        dbresolver.DB
	tableName string
}

// NewPostgresStore builds an L2Store writing to and reading from
// tableName (each service owns its own idempotency table, per spec.md §3
// ownership rules).
func NewPostgresStore(db dbresolver.DB, tableName string) *PostgresStore {
	return &PostgresStore{db: db, tableName: tableName}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*Record, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, status_code, response_body, expires_at FROM `+s.tableName+` WHERE key = $1`, key)

	var rec Record

	if err := row.Scan(&rec.Key, &rec.StatusCode, &rec.ResponseBody, &rec.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, err
	}

	return &rec, true, nil
}

// InsertTx writes rec using the caller's transaction. A unique-violation
// on key means a concurrent handler already won the race for this
// request; that is a success outcome here, not an error (spec.md §4.2
// step 3: "L2 insert conflict is silently tolerated").
func (s *PostgresStore) InsertTx(ctx context.Context, tx *sql.Tx, rec *Record) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO `+s.tableName+` (key, status_code, response_body, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO NOTHING`,
		rec.Key, rec.StatusCode, rec.ResponseBody, rec.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil
		}

		return err
	}

	return nil
}
