package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lumenfund/pledgeflow/internal/idempotency"
	"github.com/lumenfund/pledgeflow/internal/money"
	"github.com/lumenfund/pledgeflow/internal/outbox"
)

// SingleAccountRequest is the caller-supplied intent for a Deposit or
// Withdrawal, the single-account analogues of Transfer spec.md §3's
// LedgerEntry.kind enum implies but the distillation does not
// algorithmically specify (SPEC_FULL.md §4.3).
type SingleAccountRequest struct {
	AccountNumber  string
	Amount         money.Amount
	Memo           string
	IdempotencyKey string
	Timestamp      time.Time
}

// Deposit credits AccountNumber by Amount. It does not participate in
// the transfer conservation invariant.
func (e *Engine) Deposit(ctx context.Context, req SingleAccountRequest) (*Result, error) {
	return e.runSingleAccount(ctx, req, KindDeposit, EventDepositCompleted, func(acct *Account, amt money.Amount) {
		acct.Balance = acct.Balance.Add(amt)
	})
}

// Withdrawal debits AccountNumber by Amount, rejecting insufficient
// balance the same way Transfer does.
func (e *Engine) Withdrawal(ctx context.Context, req SingleAccountRequest) (*Result, error) {
	return e.runSingleAccount(ctx, req, KindWithdrawal, EventWithdrawalCompleted, func(acct *Account, amt money.Amount) {
		acct.Balance = acct.Balance.Sub(amt)
	})
}

func (e *Engine) runSingleAccount(ctx context.Context, req SingleAccountRequest, kind EntryKind, eventKind outbox.EventKind, apply func(*Account, money.Amount)) (*Result, error) {
	key := req.IdempotencyKey
	if key == "" {
		key = idempotency.HashParts(string(kind), req.AccountNumber, req.Amount.String(), req.Timestamp.Format(time.RFC3339Nano))
	}

	if cached, hit, err := e.Idempotency.Lookup(ctx, key); err != nil {
		return nil, err
	} else if hit {
		return decodeResult(cached)
	}

	tx, err := e.Repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	acct, loadErr := e.Repo.LoadAccountForUpdate(ctx, tx, req.AccountNumber)
	if loadErr != nil {
		return nil, loadErr
	}

	reason := e.validateSingleAccount(acct, req, kind)
	if reason != "" {
		return e.finish(ctx, tx, key, &Result{StatusCode: 400, Body: map[string]any{"status": "rejected", "reason": reason}})
	}

	entry := &LedgerEntry{
		ID:        uuid.New(),
		Kind:      kind,
		Status:    EntryPending,
		Amount:    req.Amount,
		Memo:      req.Memo,
		CreatedAt: time.Now().UTC(),
	}

	if kind == KindWithdrawal {
		entry.FromAccount = acct.AccountNumber
	} else {
		entry.ToAccount = acct.AccountNumber
	}

	if err := e.Repo.InsertEntry(ctx, tx, entry); err != nil {
		return nil, err
	}

	apply(acct, req.Amount)
	acct.Version++

	if err := e.Repo.UpdateAccount(ctx, tx, acct); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry.Status = EntryCompleted
	entry.CompletedAt = &now

	if err := e.Repo.UpdateEntry(ctx, tx, entry); err != nil {
		return nil, err
	}

	outboxRec, err := outbox.NewRecord(entry.ID.String(), eventKind, OutboxEventKinds, map[string]any{
		"entry_id":       entry.ID.String(),
		"account_number": acct.AccountNumber,
		"amount":         entry.Amount.String(),
	})
	if err != nil {
		return nil, err
	}

	if err := e.Outbox.Insert(ctx, tx, outboxRec); err != nil {
		return nil, err
	}

	result := &Result{
		StatusCode: 200,
		Body: map[string]any{
			"status":         "completed",
			"entry_id":       entry.ID.String(),
			"account_number": acct.AccountNumber,
			"amount":         entry.Amount.String(),
		},
	}

	return e.finish(ctx, tx, key, result)
}

func (e *Engine) validateSingleAccount(acct *Account, req SingleAccountRequest, kind EntryKind) string {
	if acct.Status != AccountActive {
		return ReasonAccountNotActive
	}

	if !req.Amount.IsPositive() {
		return ReasonInvalidAmount
	}

	if kind == KindWithdrawal && !acct.Balance.GreaterThanOrEqual(req.Amount) {
		return ReasonInsufficientFunds
	}

	return ""
}
