package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lumenfund/pledgeflow/internal/idempotency"
	"github.com/lumenfund/pledgeflow/internal/mlog"
	"github.com/lumenfund/pledgeflow/internal/money"
	"github.com/lumenfund/pledgeflow/internal/outbox"
)

// Rejection reasons returned in a 400 response body (spec.md §4.3 step 3).
const (
	ReasonAccountNotFound    = "account_not_found"
	ReasonAccountNotActive   = "account_not_active"
	ReasonCurrencyMismatch   = "currency_mismatch"
	ReasonSameAccount        = "same_account"
	ReasonInvalidAmount      = "invalid_amount"
	ReasonAmountExceedsLimit = "amount_exceeds_limit"
	ReasonInsufficientFunds  = "insufficient_balance"
)

// OutboxEventKinds lists every event kind Engine can emit.
var OutboxEventKinds = []outbox.EventKind{
	EventTransferCompleted,
	EventDepositCompleted,
	EventWithdrawalCompleted,
}

const (
	EventTransferCompleted   outbox.EventKind = "TransferCompleted"
	EventDepositCompleted    outbox.EventKind = "BankDepositCompleted"
	EventWithdrawalCompleted outbox.EventKind = "BankWithdrawalCompleted"
)

// Result is the HTTP-shaped, cacheable outcome of a ledger operation.
type Result struct {
	StatusCode int
	Body       map[string]any
}

// TransferRequest is the caller-supplied intent to move money between two
// accounts (spec.md §4.3 Contract).
type TransferRequest struct {
	From           string
	To             string
	Amount         money.Amount
	Memo           string
	IdempotencyKey string
	Timestamp      time.Time
	ReversalOfID   *uuid.UUID
}

// Engine implements the double-entry transfer algorithm of spec.md §4.3.
type Engine struct {
	Repo        Repository
	Outbox      outbox.Repository
	Idempotency *idempotency.Store
	MaxTransfer money.Amount
	Logger      mlog.Logger
}

// Transfer executes a single idempotent peer-to-peer transfer.
func (e *Engine) Transfer(ctx context.Context, req TransferRequest) (*Result, error) {
	key := req.IdempotencyKey
	if key == "" {
		key = idempotency.HashParts(req.From, req.To, req.Amount.String(), req.Timestamp.Format(time.RFC3339Nano))
	}

	if cached, hit, err := e.Idempotency.Lookup(ctx, key); err != nil {
		return nil, err
	} else if hit {
		return decodeResult(cached)
	}

	return e.runTransfer(ctx, req, key)
}

// runTransfer persists the idempotency record in the same transaction as
// the balance mutation (spec.md §4.3 step 7): a crash between this
// transaction's commit and a separate idempotency write could otherwise
// leave balances moved with no record to make a retry a no-op, double-
// applying the debit/credit and breaking the conservation invariant.
func (e *Engine) runTransfer(ctx context.Context, req TransferRequest, key string) (*Result, error) {
	tx, err := e.Repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	fromAcct, toAcct, reason, err := e.lockPairAndValidate(ctx, tx, req)
	if err != nil {
		return nil, err
	}

	if reason != "" {
		return e.finish(ctx, tx, key, &Result{StatusCode: 400, Body: map[string]any{"status": "rejected", "reason": reason}})
	}

	entry := &LedgerEntry{
		ID:          uuid.New(),
		Kind:        KindTransfer,
		Status:      EntryPending,
		FromAccount: fromAcct.AccountNumber,
		ToAccount:   toAcct.AccountNumber,
		Amount:       req.Amount,
		Memo:         req.Memo,
		ReversalOfID: req.ReversalOfID,
		CreatedAt:    time.Now().UTC(),
	}

	if err := e.Repo.InsertEntry(ctx, tx, entry); err != nil {
		return nil, err
	}

	fromAcct.Balance = fromAcct.Balance.Sub(req.Amount)
	fromAcct.Version++
	toAcct.Balance = toAcct.Balance.Add(req.Amount)
	toAcct.Version++

	if err := e.Repo.UpdateAccount(ctx, tx, fromAcct); err != nil {
		return nil, err
	}

	if err := e.Repo.UpdateAccount(ctx, tx, toAcct); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry.Status = EntryCompleted
	entry.CompletedAt = &now

	if err := e.Repo.UpdateEntry(ctx, tx, entry); err != nil {
		return nil, err
	}

	outboxRec, err := outbox.NewRecord(entry.ID.String(), EventTransferCompleted, OutboxEventKinds, map[string]any{
		"entry_id":     entry.ID.String(),
		"from_account": entry.FromAccount,
		"to_account":   entry.ToAccount,
		"amount":       entry.Amount.String(),
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
			"status":       "completed",
			"entry_id":     entry.ID.String(),
			"from_account": entry.FromAccount,
			"to_account":   entry.ToAccount,
			"amount":       entry.Amount.String(),
		},
	}

	return e.finish(ctx, tx, key, result)
}

// lockPairAndValidate acquires row locks on both accounts in ascending
// account_number order to prevent deadlock under bidirectional concurrent
// transfers (spec.md §4.3 step 2), then runs the validation list of step
// 3. A non-empty reason means validation failed; from/to are nil in that
// case.
func (e *Engine) lockPairAndValidate(ctx context.Context, tx *sql.Tx, req TransferRequest) (from, to *Account, reason string, err error) {
	if req.From == req.To {
		return nil, nil, ReasonSameAccount, nil
	}

	first, second := req.From, req.To
	if second < first {
		first, second = second, first
	}

	firstAcct, loadErr := e.Repo.LoadAccountForUpdate(ctx, tx, first)
	if errors.Is(loadErr, ErrAccountNotFound) {
		return nil, nil, ReasonAccountNotFound, nil
	} else if loadErr != nil {
		return nil, nil, "", loadErr
	}

	secondAcct, loadErr := e.Repo.LoadAccountForUpdate(ctx, tx, second)
	if errors.Is(loadErr, ErrAccountNotFound) {
		return nil, nil, ReasonAccountNotFound, nil
	} else if loadErr != nil {
		return nil, nil, "", loadErr
	}

	if firstAcct.AccountNumber == req.From {
		from, to = firstAcct, secondAcct
	} else {
		from, to = secondAcct, firstAcct
	}

	if from.Status != AccountActive || to.Status != AccountActive {
		return nil, nil, ReasonAccountNotActive, nil
	}

	if from.Currency != to.Currency {
		return nil, nil, ReasonCurrencyMismatch, nil
	}

	if !req.Amount.IsPositive() {
		return nil, nil, ReasonInvalidAmount, nil
	}

	if e.MaxTransfer.IsPositive() && req.Amount.GreaterThan(e.MaxTransfer) {
		return nil, nil, ReasonAmountExceedsLimit, nil
	}

	if !from.Balance.GreaterThanOrEqual(req.Amount) {
		return nil, nil, ReasonInsufficientFunds, nil
	}

	return from, to, "", nil
}

// finish persists the idempotency record in tx, commits, and warms L1
// afterward — the same same-transaction-then-warm discipline
// idempotency.Store.SaveTx's docstring requires for the ledger path.
func (e *Engine) finish(ctx context.Context, tx *sql.Tx, key string, result *Result) (*Result, error) {
	body, err := json.Marshal(result.Body)
	if err != nil {
		return nil, err
	}

	rec := &idempotency.Record{
		Key:          key,
		StatusCode:   result.StatusCode,
		ResponseBody: body,
		ExpiresAt:    time.Now().Add(idempotency.DefaultTTL),
	}

	if err := e.Idempotency.SaveTx(ctx, tx, rec); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if err := e.Idempotency.WarmL1(ctx, rec); err != nil {
		e.Logger.Errorf("ledger: warming L1 for key %s failed: %v", key, err)
	}

	return result, nil
}

func decodeResult(rec *idempotency.Record) (*Result, error) {
	var body map[string]any
	if err := json.Unmarshal(rec.ResponseBody, &body); err != nil {
		return nil, err
	}

	return &Result{StatusCode: rec.StatusCode, Body: body}, nil
}
