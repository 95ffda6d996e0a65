package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lumenfund/pledgeflow/internal/money"
)

// ErrHolderNameRequired is returned by OpenAccount when holder_name is
// blank.
var ErrHolderNameRequired = errors.New("ledger: holder_name is required")

// OpenAccountRequest is the caller-supplied intent to open a new account
// (spec.md §6: POST /v1/bank/accounts).
type OpenAccountRequest struct {
	OwnerRef   string
	HolderName string
	Contact    string
	Currency   string
}

// OpenAccount creates a zero-balance ACTIVE account for a new owner,
// rejecting a second account for an owner that already has one (spec.md
// §6: "400 if owner already has one").
func (e *Engine) OpenAccount(ctx context.Context, req OpenAccountRequest) (*Account, error) {
	if req.HolderName == "" {
		return nil, ErrHolderNameRequired
	}

	now := time.Now().UTC()

	acct := &Account{
		ID:            uuid.New(),
		OwnerRef:      req.OwnerRef,
		AccountNumber: generateAccountNumber(),
		HolderName:    req.HolderName,
		Contact:       req.Contact,
		Currency:      req.Currency,
		Balance:       money.Zero,
		Status:        AccountActive,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx, err := e.Repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := e.Repo.InsertAccount(ctx, tx, acct); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return acct, nil
}

func generateAccountNumber() string {
	return "acct_" + uuid.New().String()
}
