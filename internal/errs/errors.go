// Package errs defines the typed error taxonomy shared by every PledgeFlow
// subsystem, grounded on the teacher's common/errors.go. HTTP adapters map
// these to status codes (see internal/httpapi); pollers and consumers
// switch on them to decide retry vs. poison handling.
package errs

import (
	"fmt"
	"strings"
)

// NotFoundError records a missing referenced aggregate (§7 NotFound).
type NotFoundError struct {
	EntityType string
	Code       string
	Message    string
	Err        error
}

func (e NotFoundError) Error() string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}

	if e.EntityType != "" {
		return fmt.Sprintf("%s not found", e.EntityType)
	}

	return "entity not found"
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ValidationError records bad input: amount <= 0, invalid transition,
// same-account transfer, etc. (§7 Validation).
type ValidationError struct {
	EntityType string
	Code       string
	Message    string
	Err        error
}

func (e ValidationError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}

	return e.Message
}

func (e ValidationError) Unwrap() error { return e.Err }

// ConflictError records a version mismatch or unique-key collision
// resolvable locally by retry or idempotency-hit (§7 Conflict).
type ConflictError struct {
	EntityType string
	Code       string
	Message    string
	Err        error
}

func (e ConflictError) Error() string { return e.Message }
func (e ConflictError) Unwrap() error { return e.Err }

// UnprocessableError records a semantically invalid request that is well
// formed but cannot be carried out (e.g. refund on a non-CAPTURED intent).
type UnprocessableError struct {
	EntityType string
	Code       string
	Message    string
	Err        error
}

func (e UnprocessableError) Error() string { return e.Message }
func (e UnprocessableError) Unwrap() error { return e.Err }

// TransientError records a temporarily unavailable downstream (database,
// cache, broker). Pollers and consumers retry these with backoff; inbound
// requests surface them as 5xx (§7 Transient).
type TransientError struct {
	EntityType string
	Code       string
	Message    string
	Err        error
}

func (e TransientError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return e.Message
}

func (e TransientError) Unwrap() error { return e.Err }

// PoisonError records an event that has exhausted its retry budget and
// must move to a dead-letter/DLQ state with an operator alert (§7 Poison).
type PoisonError struct {
	EntityType string
	Code       string
	Message    string
	Err        error
}

func (e PoisonError) Error() string { return e.Message }
func (e PoisonError) Unwrap() error { return e.Err }
