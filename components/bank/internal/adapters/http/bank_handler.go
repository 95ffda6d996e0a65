// Package http is the thin fiber adapter for the bank service (spec.md
// §6: POST /v1/bank/accounts, POST /v1/bank/transfers).
package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lumenfund/pledgeflow/internal/errs"
	"github.com/lumenfund/pledgeflow/internal/httpapi"
	"github.com/lumenfund/pledgeflow/internal/ledger"
	"github.com/lumenfund/pledgeflow/internal/money"
)

// OpenAccountInput is the POST /v1/bank/accounts request body.
type OpenAccountInput struct {
	OwnerRef   string `json:"owner_ref" validate:"required"`
	HolderName string `json:"holder_name" validate:"required"`
	Contact    string `json:"contact"`
	Currency   string `json:"currency" validate:"required,len=3"`
}

// TransferInput is the POST /v1/bank/transfers request body.
type TransferInput struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
	Amount string `json:"amount" validate:"required"`
	Memo   string `json:"memo"`
}

// RegisterRoutes wires the bank HTTP surface onto app.
func RegisterRoutes(app *fiber.App, engine *ledger.Engine) {
	app.Post("/v1/bank/accounts", openAccount(engine))
	app.Post("/v1/bank/transfers", transfer(engine))
}

func openAccount(engine *ledger.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in OpenAccountInput
		if err := httpapi.ParseAndValidate(c, &in); err != nil {
			return httpapi.WithError(c, err)
		}

		acct, err := engine.OpenAccount(c.Context(), ledger.OpenAccountRequest{
			OwnerRef:   in.OwnerRef,
			HolderName: in.HolderName,
			Contact:    in.Contact,
			Currency:   in.Currency,
		})
		if err != nil {
			if errors.Is(err, ledger.ErrOwnerAlreadyHasAccount) {
				return httpapi.WithError(c, errs.ValidationError{Code: "owner_already_has_account", Message: err.Error(), Err: err})
			}

			return httpapi.WithError(c, errs.ValidationError{Code: "invalid_account", Message: err.Error(), Err: err})
		}

		return c.Status(fiber.StatusCreated).JSON(acct)
	}
}

func transfer(engine *ledger.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in TransferInput
		if err := httpapi.ParseAndValidate(c, &in); err != nil {
			return httpapi.WithError(c, err)
		}

		amount, err := money.NewFromString(in.Amount)
		if err != nil {
			return httpapi.WithError(c, errs.ValidationError{Code: "invalid_amount", Message: err.Error(), Err: err})
		}

		result, err := engine.Transfer(c.Context(), ledger.TransferRequest{
			From:           in.From,
			To:             in.To,
			Amount:         amount,
			Memo:           in.Memo,
			IdempotencyKey: httpapi.DeriveIdempotencyKey(c),
			Timestamp:      time.Now().UTC(),
		})
		if err != nil {
			return httpapi.WithError(c, errs.TransientError{Code: "transfer_failed", Message: err.Error(), Err: err})
		}

		status := result.StatusCode
		if status == fiber.StatusOK {
			status = fiber.StatusCreated
		}

		return c.Status(status).JSON(result.Body)
	}
}
