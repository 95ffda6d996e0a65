// Package http is the thin fiber adapter for the payments service
// (spec.md §6: POST /v1/payments/intent, POST /v1/payments/webhook,
// POST /v1/payments/{id}/refund). No business logic lives here.
package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lumenfund/pledgeflow/internal/errs"
	"github.com/lumenfund/pledgeflow/internal/httpapi"
	"github.com/lumenfund/pledgeflow/internal/webhook"
	"github.com/lumenfund/pledgeflow/internal/webhookaudit"
)

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// CreateIntentInput is the POST /v1/payments/intent request body.
type CreateIntentInput struct {
	PledgeRef    string `json:"pledge_ref" validate:"required"`
	Amount       string `json:"amount" validate:"required"`
	Currency     string `json:"currency" validate:"required,len=3"`
	GatewayLabel string `json:"gateway_label" validate:"required"`
}

// WebhookInput is the POST /v1/payments/webhook request body — the
// subset of a gateway notification this adapter needs to build a
// webhook.Event (spec.md §4.2 Processing path step 1).
type WebhookInput struct {
	EventID        string         `json:"event_id" validate:"required"`
	EventType      string         `json:"event_type"`
	IntentRef      string         `json:"intent_ref" validate:"required"`
	Status         string         `json:"status" validate:"required"`
	EventTimestamp string         `json:"event_timestamp" validate:"required"`
	Payload        map[string]any `json:"payload"`
}

// RegisterRoutes wires the payments HTTP surface onto app.
func RegisterRoutes(app *fiber.App, intents *webhook.IntentService, proc *webhook.Processor, audit webhookaudit.Writer, gatewayLabel string) {
	app.Post("/v1/payments/intent", createIntent(intents))
	app.Post("/v1/payments/webhook", ingestWebhook(proc, audit, gatewayLabel))
	app.Post("/v1/payments/:id/refund", startRefund(intents))
}

func createIntent(intents *webhook.IntentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in CreateIntentInput
		if err := httpapi.ParseAndValidate(c, &in); err != nil {
			return httpapi.WithError(c, err)
		}

		intent, err := intents.CreateIntent(c.Context(), in.PledgeRef, in.Amount, in.Currency, in.GatewayLabel)
		if err != nil {
			return httpapi.WithError(c, errs.ValidationError{Code: "invalid_intent", Message: err.Error(), Err: err})
		}

		return c.Status(fiber.StatusCreated).JSON(intent)
	}
}

func startRefund(intents *webhook.IntentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		intentRef := c.Params("id")

		intent, err := intents.Refund(c.Context(), intentRef)
		if err != nil {
			if errors.Is(err, webhook.ErrIntentNotFound) {
				return httpapi.WithError(c, errs.NotFoundError{EntityType: "payment_intent", Code: "intent_not_found", Err: err})
			}

			if errors.Is(err, webhook.ErrNotCaptured) {
				return httpapi.WithError(c, errs.ValidationError{Code: "not_captured", Message: err.Error(), Err: err})
			}

			return httpapi.WithError(c, err)
		}

		return c.Status(fiber.StatusOK).JSON(intent)
	}
}

func ingestWebhook(proc *webhook.Processor, audit webhookaudit.Writer, gatewayLabel string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in WebhookInput
		if err := httpapi.ParseAndValidate(c, &in); err != nil {
			return httpapi.WithError(c, err)
		}

		ts, err := parseTimestamp(in.EventTimestamp)
		if err != nil {
			return httpapi.WithError(c, errs.ValidationError{Code: "invalid_event_timestamp", Message: err.Error(), Err: err})
		}

		key := httpapi.DeriveIdempotencyKey(c)

		if err := audit.Record(c.Context(), &webhookaudit.WebhookAuditEntry{
			IdempotencyKey: key,
			IntentRef:      in.IntentRef,
			GatewayLabel:   gatewayLabel,
			RawPayload:     in.Payload,
			ReceivedAt:     ts,
		}); err != nil {
			return httpapi.WithError(c, errs.TransientError{Code: "audit_write_failed", Message: err.Error(), Err: err})
		}

		ev := webhook.Event{
			EventID:        in.EventID,
			EventType:      in.EventType,
			IntentRef:      in.IntentRef,
			ProposedStatus: webhook.Status(in.Status),
			EventTimestamp: ts,
			Payload:        in.Payload,
		}

		result, err := proc.Handle(c.Context(), key, ev)
		if err != nil {
			return httpapi.WithError(c, errs.TransientError{Code: "webhook_processing_failed", Message: err.Error(), Err: err})
		}

		return c.Status(result.StatusCode).JSON(result.Body)
	}
}
