// Package donation implements the pledge write path (spec.md §3 Pledge,
// §4.1 Outbox Pipeline Writer discipline): a pledge and its DonationCreated
// outbox row share one relational transaction.
//
// Grounded on internal/outbox's entity style and the teacher's
// common/mmodel status-field shape, generalized to the Pledge lifecycle.
package donation

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lumenfund/pledgeflow/internal/money"
)

// Status is the Pledge lifecycle (spec.md §3): PENDING moves to COMPLETED
// or FAILED, COMPLETED may still move to REFUNDED, and FAILED/REFUNDED are
// terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusCompleted, StatusFailed},
	StatusCompleted: {StatusRefunded},
	StatusFailed:    {},
	StatusRefunded:  {},
}

// CanTransitionTo reports whether to is a legal next status from s.
func (s Status) CanTransitionTo(to Status) bool {
	for _, candidate := range transitions[s] {
		if candidate == to {
			return true
		}
	}

	return false
}

// IsTerminal reports whether s has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

var (
	ErrAmountNotPositive = errors.New("donation: amount must be positive")
	ErrAmountExceedsMax  = errors.New("donation: amount exceeds MAX_PLEDGE")
	ErrInvalidTransition = errors.New("donation: illegal status transition")
)

// Pledge is a donor's recorded intent to give (spec.md §3).
type Pledge struct {
	ID               uuid.UUID      `json:"id"`
	CampaignRef      string         `json:"campaign_ref"`
	DonorContact     string         `json:"donor_contact"`
	Amount           money.Amount   `json:"amount"`
	Currency         string         `json:"currency"`
	Status           Status         `json:"status"`
	GatewayIntentRef string         `json:"gateway_intent_ref,omitempty"`
	Extra            map[string]any `json:"extra,omitempty"`
	Version          int            `json:"version"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// New validates and constructs a PENDING Pledge (spec.md §3 invariant:
// amount > 0 and amount <= maxPledge).
func New(campaignRef, donorContact string, amount money.Amount, currency string, extra map[string]any, maxPledge money.Amount) (*Pledge, error) {
	if !amount.IsPositive() {
		return nil, ErrAmountNotPositive
	}

	if amount.GreaterThan(maxPledge) {
		return nil, ErrAmountExceedsMax
	}

	now := time.Now().UTC()

	return &Pledge{
		ID:           uuid.New(),
		CampaignRef:  campaignRef,
		DonorContact: donorContact,
		Amount:       amount,
		Currency:     currency,
		Status:       StatusPending,
		Extra:        extra,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ApplyStatus transitions the pledge to to, bumping Version/UpdatedAt, or
// returns ErrInvalidTransition if the move is illegal.
func (p *Pledge) ApplyStatus(to Status, gatewayIntentRef string) error {
	if !p.Status.CanTransitionTo(to) {
		return ErrInvalidTransition
	}

	p.Status = to
	if gatewayIntentRef != "" {
		p.GatewayIntentRef = gatewayIntentRef
	}

	p.Version++
	p.UpdatedAt = time.Now().UTC()

	return nil
}
