// Package http is the thin fiber adapter for the aggregation service
// (spec.md §6: GET /v1/totals/campaigns/{id}).
package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumenfund/pledgeflow/internal/aggregation"
	"github.com/lumenfund/pledgeflow/internal/errs"
	"github.com/lumenfund/pledgeflow/internal/httpapi"
)

// RegisterRoutes wires the aggregation HTTP surface onto app.
func RegisterRoutes(app *fiber.App, reader *aggregation.Reader) {
	app.Get("/v1/totals/campaigns/:id", getTotals(reader))
}

func getTotals(reader *aggregation.Reader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		campaignRef := c.Params("id")
		realtime := c.Query("realtime") == "true"

		totals, err := reader.Totals(c.Context(), campaignRef, realtime)
		if err != nil {
			return httpapi.WithError(c, errs.TransientError{Code: "totals_unavailable", Message: err.Error(), Err: err})
		}

		return c.Status(fiber.StatusOK).JSON(totals)
	}
}
