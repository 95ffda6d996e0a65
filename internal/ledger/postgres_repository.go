package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bxcodec/dbresolver/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

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

// InsertAccount persists a freshly opened account, tolerating the
// unique-owner-ref constraint collision as ErrOwnerAlreadyHasAccount
// (spec.md §6: "400 if owner already has one").
func (r *PostgresRepository) InsertAccount(ctx context.Context, tx *sql.Tx, acct *Account) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounts
			(id, owner_ref, account_number, holder_name, contact, currency, balance, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		acct.ID, acct.OwnerRef, acct.AccountNumber, acct.HolderName, acct.Contact, acct.Currency,
		acct.Balance.String(), string(acct.Status), acct.Version, acct.CreatedAt, acct.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrOwnerAlreadyHasAccount
		}

		return err
	}

	return nil
}

// LoadAccountForUpdate locks the account row for the duration of the
// caller's transaction (spec.md §4.3 step 2).
func (r *PostgresRepository) LoadAccountForUpdate(ctx context.Context, tx *sql.Tx, accountNumber string) (*Account, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, owner_ref, account_number, holder_name, contact, currency, balance, status, version, created_at, updated_at
		FROM accounts
		WHERE account_number = $1
		FOR UPDATE`, accountNumber)

	var (
		acct    Account
		status  string
		balance string
	)

	err := row.Scan(&acct.ID, &acct.OwnerRef, &acct.AccountNumber, &acct.HolderName, &acct.Contact,
		&acct.Currency, &balance, &status, &acct.Version, &acct.CreatedAt, &acct.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}

	if err != nil {
		return nil, err
	}

	acct.Status = AccountStatus(status)

	amt, err := money.NewFromString(balance)
	if err != nil {
		return nil, err
	}

	acct.Balance = amt

	return &acct, nil
}

func (r *PostgresRepository) UpdateAccount(ctx context.Context, tx *sql.Tx, acct *Account) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = $1, version = $2, updated_at = now()
		WHERE id = $3`, acct.Balance.String(), acct.Version, acct.ID)

	return err
}

func (r *PostgresRepository) InsertEntry(ctx context.Context, tx *sql.Tx, entry *LedgerEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries
			(id, kind, status, from_account, to_account, amount, memo, reversal_of_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, string(entry.Kind), string(entry.Status), entry.FromAccount, entry.ToAccount,
		entry.Amount.String(), entry.Memo, entry.ReversalOfID, entry.CreatedAt)

	return err
}

func (r *PostgresRepository) UpdateEntry(ctx context.Context, tx *sql.Tx, entry *LedgerEntry) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE ledger_entries SET status = $1, completed_at = $2 WHERE id = $3`,
		string(entry.Status), entry.CompletedAt, entry.ID)

	return err
}

func (r *PostgresRepository) GetEntry(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*LedgerEntry, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, kind, status, from_account, to_account, amount, memo, reversal_of_id, created_at, completed_at
		FROM ledger_entries WHERE id = $1`, id)

	var (
		entry        LedgerEntry
		kind, status string
		amount       string
	)

	err := row.Scan(&entry.ID, &kind, &status, &entry.FromAccount, &entry.ToAccount, &amount,
		&entry.Memo, &entry.ReversalOfID, &entry.CreatedAt, &entry.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}

	if err != nil {
		return nil, err
	}

	entry.Kind = EntryKind(kind)
	entry.Status = EntryStatus(status)

	amt, err := money.NewFromString(amount)
	if err != nil {
		return nil, err
	}

	entry.Amount = amt

	return &entry, nil
}
