package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotReversible is returned when Reverse is asked to reverse an entry
// that is not a COMPLETED TRANSFER (spec.md §4.3 Reversal: "Only COMPLETED
// TRANSFER entries are reversible; reversal is itself a fresh transfer and
// is not transitively reversible").
var ErrNotReversible = errors.New("ledger: entry is not reversible")

// Reverse runs a fresh transfer in the opposite direction and marks the
// original entry REVERSED. The reversal entry is a TRANSFER whose
// ReversalOfID is set, and such entries are not themselves reversible.
func (e *Engine) Reverse(ctx context.Context, entryID string) (*Result, error) {
	tx, err := e.Repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(entryID)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	original, err := e.Repo.GetEntry(ctx, tx, id)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	if original.Kind != KindTransfer || original.Status != EntryCompleted || original.ReversalOfID != nil {
		tx.Rollback() //nolint:errcheck
		return nil, ErrNotReversible
	}

	tx.Rollback() //nolint:errcheck

	originalID := original.ID

	result, err := e.Transfer(ctx, TransferRequest{
		From:         original.ToAccount,
		To:           original.FromAccount,
		Amount:       original.Amount,
		Memo:         "reversal of " + original.ID.String(),
		Timestamp:    time.Now().UTC(),
		ReversalOfID: &originalID,
	})
	if err != nil {
		return nil, err
	}

	markTx, err := e.Repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer markTx.Rollback() //nolint:errcheck

	original.Status = EntryReversed

	if err := e.Repo.UpdateEntry(ctx, markTx, original); err != nil {
		return nil, err
	}

	if err := markTx.Commit(); err != nil {
		return nil, err
	}

	return result, nil
}
