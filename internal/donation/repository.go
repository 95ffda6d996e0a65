package donation

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// ErrPledgeNotFound is returned when a pledge lookup finds no row.
var ErrPledgeNotFound = errors.New("donation: pledge not found")

// Repository is the persistence contract for Pledge. InsertTx and
// UpdateTx run inside the caller's own transaction so the pledge
// write and the outbox insert share atomicity (spec.md §4.1).
type Repository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	InsertTx(ctx context.Context, tx *sql.Tx, p *Pledge) error
	LoadForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*Pledge, error)
	UpdateTx(ctx context.Context, tx *sql.Tx, p *Pledge) error
	Get(ctx context.Context, id uuid.UUID) (*Pledge, error)
}
