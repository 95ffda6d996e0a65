package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bxcodec/dbresolver/v2"
	"github.com/google/uuid"
)

// PostgresRepository is the pgx-backed Repository implementation,
// grounded on the teacher's outbox.postgresql_findbyentityid_test.go
// (validation-error shape on bad lookups) and the SKIP LOCKED poller
// contract from spec.md §4.1 step 1.
type PostgresRepository struct {
	db         dbresolver.DB
	tableName  string
	staleAfter time.Duration
}

// staleProcessingAfter is how long a row may sit in PROCESSING before
// ClaimBatch treats it as abandoned (poller crashed or was killed between
// the claim commit and the publish/MarkPublished call) and reclaims it.
const staleProcessingAfter = 5 * time.Minute

// NewPostgresRepository builds a PostgresRepository against the given
// resolver, writing to and reading from the "outbox" table.
func NewPostgresRepository(db dbresolver.DB) *PostgresRepository {
	return &PostgresRepository{db: db, tableName: "outbox", staleAfter: staleProcessingAfter}
}

// Insert writes rec using the caller's transaction, so it commits or rolls
// back atomically with the domain write it accompanies.
func (r *PostgresRepository) Insert(ctx context.Context, tx *sql.Tx, rec *Record) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_ref, event_kind, payload, status, retry_count, max_retries, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.AggregateRef, string(rec.EventKind), payload, string(rec.Status),
		rec.RetryCount, rec.MaxRetries, rec.CreatedAt, rec.UpdatedAt)

	return err
}

// ClaimBatch selects up to limit reclaimable rows — PENDING, FAILED (a
// prior publish attempt failed and is due for retry), or PROCESSING rows
// abandoned by a poller that died between the claim commit and
// MarkPublished/MarkFailed — skipping rows already locked by another
// poller instance, transitions them to PROCESSING, and returns them
// (spec.md §4.1 step 1, "SKIP LOCKED ... enabling horizontal scaling";
// §8 invariant: every row eventually reaches processed_at != NULL or
// retry_count = MAX_RETRIES, which requires FAILED/PROCESSING rows to be
// selectable again, not just PENDING ones).
func (r *PostgresRepository) ClaimBatch(ctx context.Context, limit int) ([]*Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	staleBefore := time.Now().UTC().Add(-r.staleAfter)

	rows, err := tx.QueryContext(ctx, `
		SELECT id, aggregate_ref, event_kind, payload, status, retry_count, max_retries, created_at, updated_at
		FROM outbox
		WHERE retry_count < max_retries
		  AND (status IN ($1, $2) OR (status = $3 AND updated_at < $4))
		ORDER BY created_at ASC
		LIMIT $5
		FOR UPDATE SKIP LOCKED`,
		string(StatusPending), string(StatusFailed), string(StatusProcessing), staleBefore, limit)
	if err != nil {
		return nil, err
	}

	var records []*Record

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows.Close()

	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, `UPDATE outbox SET status = $1, updated_at = now() WHERE id = $2`,
			string(StatusProcessing), rec.ID); err != nil {
			return nil, err
		}

		rec.Status = StatusProcessing
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return records, nil
}

// MarkPublished sets processed_at/status after the broker acknowledges
// delivery (spec.md §4.1 step 3).
func (r *PostgresRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox SET status = $1, processed_at = now(), updated_at = now() WHERE id = $2`,
		string(StatusPublished), id)
	return err
}

// MarkFailed increments retry_count and records the sanitized error after
// a failed publish attempt.
func (r *PostgresRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastErr string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox SET status = $1, retry_count = retry_count + 1, last_error = $2, updated_at = now()
		WHERE id = $3`, string(StatusFailed), SanitizeErrorMessage(lastErr), id)
	return err
}

// MarkDLQ moves a poison row to the dead-letter state once its retry
// budget is exhausted (spec.md §4.1 Failure semantics).
func (r *PostgresRepository) MarkDLQ(ctx context.Context, id uuid.UUID, lastErr string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox SET status = $1, retry_count = retry_count + 1, last_error = $2, updated_at = now()
		WHERE id = $3`, string(StatusDLQ), SanitizeErrorMessage(lastErr), id)
	return err
}

// PurgeProcessedBefore deletes PUBLISHED rows older than before, the
// retention sweep from spec.md §4.1 step 4 (default 7 days).
func (r *PostgresRepository) PurgeProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM outbox WHERE status = $1 AND processed_at < $2`,
		string(StatusPublished), before)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(rows rowScanner) (*Record, error) {
	var (
		rec         Record
		eventKind   string
		status      string
		payloadJSON []byte
	)

	if err := rows.Scan(&rec.ID, &rec.AggregateRef, &eventKind, &payloadJSON, &status,
		&rec.RetryCount, &rec.MaxRetries, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}

	rec.EventKind = EventKind(eventKind)
	rec.Status = Status(status)

	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &rec.Payload); err != nil {
			return nil, err
		}
	}

	return &rec, nil
}
