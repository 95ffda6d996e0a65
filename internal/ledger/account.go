// Package ledger implements atomic peer-to-peer value transfers with
// deterministic lock ordering (spec.md §4.3, Subsystem C).
//
// Grounded on the teacher's double-entry balance model
// (components/transaction "Balance"/"Operation" debit+credit pairing)
// and its optimistic-locking version-increment discipline, adapted to
// this spec's single-ledger-entry-per-transfer shape rather than the
// teacher's paired-operation shape.
package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/lumenfund/pledgeflow/internal/money"
)

// AccountStatus is the lifecycle state of an Account.
type AccountStatus string

const (
	AccountActive    AccountStatus = "ACTIVE"
	AccountSuspended AccountStatus = "SUSPENDED"
	AccountClosed    AccountStatus = "CLOSED"
)

// Account is a ledger-held balance (spec.md §3 Account: "owner_ref
// (unique), account_number (unique, generated), holder_name, contact,
// balance ..., currency, status, version").
type Account struct {
	ID            uuid.UUID     `json:"id"`
	OwnerRef      string        `json:"owner_ref"`
	AccountNumber string        `json:"account_number"`
	HolderName    string        `json:"holder_name"`
	Contact       string        `json:"contact"`
	Currency      string        `json:"currency"`
	Balance       money.Amount  `json:"balance"`
	Status        AccountStatus `json:"status"`
	Version       int           `json:"version"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// EntryKind enumerates the LedgerEntry.kind values spec.md §3 names.
type EntryKind string

const (
	KindTransfer   EntryKind = "TRANSFER"
	KindDeposit    EntryKind = "DEPOSIT"
	KindWithdrawal EntryKind = "WITHDRAWAL"
)

// EntryStatus is the lifecycle state of a LedgerEntry.
type EntryStatus string

const (
	EntryPending   EntryStatus = "PENDING"
	EntryCompleted EntryStatus = "COMPLETED"
	EntryReversed  EntryStatus = "REVERSED"
)

// LedgerEntry records one money-movement event (spec.md §3 LedgerEntry).
type LedgerEntry struct {
	ID           uuid.UUID   `json:"id"`
	Kind         EntryKind   `json:"kind"`
	Status       EntryStatus `json:"status"`
	FromAccount  string      `json:"from_account,omitempty"`
	ToAccount    string      `json:"to_account,omitempty"`
	Amount       money.Amount `json:"amount"`
	Memo         string      `json:"memo,omitempty"`
	ReversalOfID *uuid.UUID  `json:"reversal_of_id,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
}
