package outbox

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for outbox Records. Insert must
// be called with the caller's own transaction so the domain write and the
// outbox row share atomicity (spec.md §4.1 Writer discipline); the
// remaining methods are used by the Poller against its own connection.
type Repository interface {
	Insert(ctx context.Context, tx *sql.Tx, rec *Record) error
	ClaimBatch(ctx context.Context, limit int) ([]*Record, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastErr string) error
	MarkDLQ(ctx context.Context, id uuid.UUID, lastErr string) error
	PurgeProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
