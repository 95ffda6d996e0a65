package httpapi

import (
	"github.com/go-playground/validator"

	"github.com/lumenfund/pledgeflow/internal/errs"
)

var validate = validator.New()

// ParseAndValidate decodes the request body into out and runs struct-tag
// validation, mirroring the teacher's common/mmodel validate-tag usage.
// A failure is surfaced as a errs.ValidationError so WithError maps it to
// 422/400 consistently with the rest of the error taxonomy.
func ParseAndValidate(c interface{ BodyParser(out any) error }, out any) error {
	if err := c.BodyParser(out); err != nil {
		return errs.ValidationError{Code: "malformed_body", Message: err.Error(), Err: err}
	}

	if err := validate.Struct(out); err != nil {
		return errs.ValidationError{Code: "validation_failed", Message: err.Error(), Err: err}
	}

	return nil
}
