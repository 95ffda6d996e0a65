// Package http is the thin fiber adapter for the donations service
// (spec.md §6: POST /v1/donations, GET /v1/donations/{id}, PATCH
// /v1/donations/{id}/status). No business logic lives here — every
// handler parses input, calls one internal/donation.Service operation,
// and marshals the typed result.
package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/lumenfund/pledgeflow/internal/donation"
	"github.com/lumenfund/pledgeflow/internal/errs"
	"github.com/lumenfund/pledgeflow/internal/httpapi"
	"github.com/lumenfund/pledgeflow/internal/money"
)

// CreatePledgeInput is the POST /v1/donations request body.
type CreatePledgeInput struct {
	CampaignRef  string         `json:"campaign_ref" validate:"required"`
	DonorContact string         `json:"donor_contact" validate:"required"`
	Amount       string         `json:"amount" validate:"required"`
	Currency     string         `json:"currency" validate:"required,len=3"`
	Extra        map[string]any `json:"extra"`
}

// UpdateStatusInput is the PATCH /v1/donations/{id}/status request body.
type UpdateStatusInput struct {
	Status           string `json:"status" validate:"required"`
	GatewayIntentRef string `json:"gateway_intent_ref"`
}

// RegisterRoutes wires the donations HTTP surface onto app.
func RegisterRoutes(app *fiber.App, svc *donation.Service) {
	app.Post("/v1/donations", createPledge(svc))
	app.Get("/v1/donations/:id", getPledge(svc))
	app.Patch("/v1/donations/:id/status", updateStatus(svc))
}

func createPledge(svc *donation.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in CreatePledgeInput
		if err := httpapi.ParseAndValidate(c, &in); err != nil {
			return httpapi.WithError(c, errs.UnprocessableError{Code: "validation_failed", Message: err.Error(), Err: err})
		}

		amount, err := money.NewFromString(in.Amount)
		if err != nil {
			return httpapi.WithError(c, errs.UnprocessableError{Code: "invalid_amount", Message: err.Error(), Err: err})
		}

		p, err := svc.CreatePledge(c.Context(), in.CampaignRef, in.DonorContact, amount, in.Currency, in.Extra)
		if err != nil {
			return httpapi.WithError(c, errs.UnprocessableError{Code: "validation_failed", Message: err.Error(), Err: err})
		}

		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

func getPledge(svc *donation.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return httpapi.WithError(c, errs.ValidationError{Code: "invalid_id", Message: "malformed pledge id"})
		}

		p, err := svc.Repo.Get(c.Context(), id)
		if err != nil {
			return httpapi.WithError(c, errs.NotFoundError{EntityType: "pledge", Code: "pledge_not_found", Err: err})
		}

		return c.Status(fiber.StatusOK).JSON(p)
	}
}

func updateStatus(svc *donation.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return httpapi.WithError(c, errs.ValidationError{Code: "invalid_id", Message: "malformed pledge id"})
		}

		var in UpdateStatusInput
		if err := httpapi.ParseAndValidate(c, &in); err != nil {
			return httpapi.WithError(c, err)
		}

		p, err := svc.UpdateStatus(c.Context(), id, donation.Status(in.Status), in.GatewayIntentRef)
		if err != nil {
			if errors.Is(err, donation.ErrPledgeNotFound) {
				return httpapi.WithError(c, errs.NotFoundError{EntityType: "pledge", Code: "pledge_not_found", Err: err})
			}

			return httpapi.WithError(c, errs.ValidationError{Code: "invalid_transition", Message: err.Error(), Err: err})
		}

		return c.Status(fiber.StatusOK).JSON(p)
	}
}
