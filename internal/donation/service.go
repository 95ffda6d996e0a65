package donation

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/lumenfund/pledgeflow/internal/money"
	"github.com/lumenfund/pledgeflow/internal/outbox"
)

// OutboxEventKinds are the event kinds this service's outbox poller may
// carry (spec.md §6 Bus: donation.donationcreated,
// donation.donationstatuschanged.<status>).
var OutboxEventKinds = []outbox.EventKind{
	outbox.EventKind("DonationCreated"),
	eventKind(StatusCompleted),
	eventKind(StatusFailed),
	eventKind(StatusRefunded),
}

func eventKind(s Status) outbox.EventKind {
	return outbox.EventKind("DonationStatusChanged." + string(s))
}

// Service implements pledge creation and internal status transitions, each
// sharing one transaction with its outbox insert (spec.md §4.1).
type Service struct {
	Repo      Repository
	Outbox    outbox.Repository
	MaxPledge money.Amount
}

// CreatePledge validates, persists a new PENDING pledge, and enqueues a
// DonationCreated outbox event in the same transaction.
func (s *Service) CreatePledge(ctx context.Context, campaignRef, donorContact string, amount money.Amount, currency string, extra map[string]any) (*Pledge, error) {
	p, err := New(campaignRef, donorContact, amount, currency, extra, s.MaxPledge)
	if err != nil {
		return nil, err
	}

	tx, err := s.Repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.Repo.InsertTx(ctx, tx, p); err != nil {
		return nil, err
	}

	if err := s.enqueue(ctx, tx, p, outbox.EventKind("DonationCreated")); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return p, nil
}

// UpdateStatus applies a status transition and enqueues the corresponding
// DonationStatusChanged.<status> outbox event (PATCH /v1/donations/{id}/status).
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to Status, gatewayIntentRef string) (*Pledge, error) {
	tx, err := s.Repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := s.Repo.LoadForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := p.ApplyStatus(to, gatewayIntentRef); err != nil {
		return nil, err
	}

	if err := s.Repo.UpdateTx(ctx, tx, p); err != nil {
		return nil, err
	}

	if err := s.enqueue(ctx, tx, p, eventKind(to)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) enqueue(ctx context.Context, tx *sql.Tx, p *Pledge, kind outbox.EventKind) error {
	payload, err := pledgePayload(p)
	if err != nil {
		return err
	}

	rec, err := outbox.NewRecord(p.ID.String(), kind, OutboxEventKinds, payload)
	if err != nil {
		return err
	}

	return s.Outbox.Insert(ctx, tx, rec)
}

func pledgePayload(p *Pledge) (map[string]any, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	return payload, nil
}
