// Package webhook implements the exactly-once gateway notification
// ingestion pipeline (spec.md §4.2, Subsystem B): dual-layer idempotency,
// out-of-order rejection by event timestamp, and a fixed PaymentIntent
// transition graph.
//
// Grounded on the teacher's transaction-status state-machine shape
// (components/transaction "Status" transitions) generalized to the
// gateway-notification domain this spec describes, and on the teacher's
// optimistic-locking version-increment pattern used across its mutating
// repositories.
package webhook

import (
	"time"

	"github.com/google/uuid"

	"github.com/lumenfund/pledgeflow/internal/money"
)

// Status is the lifecycle state of a PaymentIntent (spec.md §4.2 state
// graph).
type Status string

const (
	StatusInitiated Status = "INITIATED"
	StatusAuthorized Status = "AUTHORIZED"
	StatusCaptured  Status = "CAPTURED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
)

// transitions is the fixed graph spec.md §4.2 prescribes.
var transitions = map[Status][]Status{
	StatusInitiated:  {StatusAuthorized, StatusFailed},
	StatusAuthorized: {StatusCaptured, StatusFailed, StatusRefunded},
	StatusCaptured:   {StatusRefunded},
	StatusFailed:     {},
	StatusRefunded:   {},
}

// CanTransitionTo reports whether s -> to is a legal transition.
func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}

	return false
}

// IsTerminal reports whether s has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// PaymentIntent is a gateway-side charge attempt (spec.md §3).
type PaymentIntent struct {
	ID              uuid.UUID       `json:"id"`
	PledgeRef       string          `json:"pledge_ref"`
	IntentRef       string          `json:"intent_ref"`
	Amount          money.Amount    `json:"amount"`
	Currency        string          `json:"currency"`
	Status          Status          `json:"status"`
	GatewayLabel    string          `json:"gateway_label"`
	GatewaySnapshot map[string]any  `json:"gateway_snapshot,omitempty"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// PaymentTransitionRecord is the audit row appended for every accepted
// transition (spec.md §3).
type PaymentTransitionRecord struct {
	ID             uuid.UUID
	PaymentRef     string
	FromStatus     Status
	ToStatus       Status
	EventID        string
	EventTimestamp time.Time
	ReceivedAt     time.Time
	Version        int
}

// Event is the inbound gateway notification, parsed from the request body
// (spec.md §4.2 Processing path step 1).
type Event struct {
	EventID         string
	EventType       string
	IntentRef       string
	ProposedStatus  Status
	EventTimestamp  time.Time
	Payload         map[string]any
}
