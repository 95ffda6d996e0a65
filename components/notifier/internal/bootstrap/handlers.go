package bootstrap

import (
	"context"
	"fmt"

	"github.com/lumenfund/pledgeflow/internal/events"
	"github.com/lumenfund/pledgeflow/internal/notification"
)

// onDonationCreated sends a pledge-received confirmation straight from
// the event payload, which already carries donor_contact.
func onDonationCreated(service *notification.Service) events.Handler {
	return func(ctx context.Context, env events.Envelope) error {
		recipient, _ := env.Payload["donor_contact"].(string)
		if recipient == "" {
			return nil
		}

		return service.NotifyOnce(ctx, env.AggregateRef, env.EventType, recipient, "pledge_received", env.Payload)
	}
}

// templateForStatus maps the PaymentStatus.* that warrant a donor-facing
// confirmation to their template. AUTHORIZED is an intermediate state
// with nothing worth telling the donor, so it is skipped.
var templateForStatus = map[string]string{
	"PaymentStatus.CAPTURED": "payment_confirmed",
	"PaymentStatus.FAILED":   "payment_failed",
	"PaymentStatus.REFUNDED": "refund_confirmed",
}

// onPaymentStatusChanged resolves the donor's contact from the pledge
// (the payload only carries pledge_ref) and sends the matching
// confirmation, deduplicated per (pledge_ref, event_kind).
func onPaymentStatusChanged(service *notification.Service, resolver notification.ContactResolver) events.Handler {
	return func(ctx context.Context, env events.Envelope) error {
		templateID, notifiable := templateForStatus[env.EventType]
		if !notifiable {
			return nil
		}

		pledgeRef, _ := env.Payload["pledge_ref"].(string)
		if pledgeRef == "" {
			return fmt.Errorf("notifier: %s payload missing pledge_ref", env.EventType)
		}

		recipient, err := resolver.DonorContactForPledge(ctx, pledgeRef)
		if err != nil {
			return err
		}

		return service.NotifyOnce(ctx, pledgeRef, env.EventType, recipient, templateID, env.Payload)
	}
}
