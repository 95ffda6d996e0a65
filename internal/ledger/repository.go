package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// ErrAccountNotFound is returned by LoadAccountForUpdate when no account
// matches the requested account number.
var ErrAccountNotFound = errors.New("ledger: account not found")

// ErrEntryNotFound is returned by GetEntry when no entry matches id.
var ErrEntryNotFound = errors.New("ledger: entry not found")

// Repository is the persistence contract the Engine drives. Every
// mutating method runs inside a transaction begun by BeginTx so balance
// updates, the entry row and the idempotency record commit atomically
// (spec.md §4.3 Algorithm).
type Repository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	InsertAccount(ctx context.Context, tx *sql.Tx, acct *Account) error
	LoadAccountForUpdate(ctx context.Context, tx *sql.Tx, accountNumber string) (*Account, error)
	UpdateAccount(ctx context.Context, tx *sql.Tx, acct *Account) error
	InsertEntry(ctx context.Context, tx *sql.Tx, entry *LedgerEntry) error
	UpdateEntry(ctx context.Context, tx *sql.Tx, entry *LedgerEntry) error
	GetEntry(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*LedgerEntry, error)
}

// ErrOwnerAlreadyHasAccount is returned by OpenAccount when owner_ref
// already names an existing account (spec.md §6: "400 if owner already
// has one").
var ErrOwnerAlreadyHasAccount = errors.New("ledger: owner already has an account")
