// Package notification implements the deduplicated notification send path
// (spec.md §4.5, §9 Open Questions): a unique (pledge_ref, event_kind)
// constraint prevents duplicate bus deliveries from sending two emails.
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Notification is one send attempt, unique per (PledgeRef, EventKind).
type Notification struct {
	ID        uuid.UUID
	PledgeRef string
	EventKind string
	Recipient string
	TemplateID string
	SentAt    time.Time
}

// Sender is the injected delivery capability (spec.md §1 out-of-scope:
// "a capability send(recipient, template_id, data) -> ok|fail is injected").
type Sender interface {
	Send(ctx context.Context, recipient, templateID string, data map[string]any) error
}

// Repository records a Notification, relying on a unique constraint on
// (pledge_ref, event_kind) to make InsertIfAbsent race-safe across
// concurrent consumer instances.
type Repository interface {
	// InsertIfAbsent returns inserted=false without error when a row for
	// (pledgeRef, eventKind) already exists (unique-key collision
	// tolerated, spec.md §9).
	InsertIfAbsent(ctx context.Context, n *Notification) (inserted bool, err error)
}

// Service dedups by (pledge_ref, event_kind) before invoking Sender, the
// consumer-side "idempotent handler" of spec.md §4.5 step 3.
type Service struct {
	Repo   Repository
	Sender Sender
}

// NotifyOnce records the attempt and sends only if this is the first time
// this (pledgeRef, eventKind) pair has been seen.
func (s *Service) NotifyOnce(ctx context.Context, pledgeRef, eventKind, recipient, templateID string, data map[string]any) error {
	n := &Notification{
		ID:         uuid.New(),
		PledgeRef:  pledgeRef,
		EventKind:  eventKind,
		Recipient:  recipient,
		TemplateID: templateID,
		SentAt:     time.Now().UTC(),
	}

	inserted, err := s.Repo.InsertIfAbsent(ctx, n)
	if err != nil {
		return err
	}

	if !inserted {
		return nil
	}

	return s.Sender.Send(ctx, recipient, templateID, data)
}
