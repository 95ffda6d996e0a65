// Package outbox implements the transactional outbox pipeline (spec.md
// §4.1, Subsystem A): entity insertion and event insertion share one
// relational transaction, and a separate poller drains pending rows to the
// broker at least once.
//
// Grounded on the teacher's
// components/transaction/internal/adapters/postgres/outbox test suite
// (NewMetadataOutbox validation rules, OutboxStatus transition graph,
// SanitizeErrorMessage) generalized from a single metadata-outbox entity
// type to the donation/payment/ledger event kinds this spec needs.
package outbox

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Validation limits mirrored from the teacher's NewMetadataOutbox tests.
const (
	MaxEntityIDLength = 256
	MaxPayloadSize    = 32 * 1024
	DefaultMaxRetries = 10
)

var (
	ErrEntityIDEmpty     = errors.New("outbox: entity id must not be empty")
	ErrEntityIDTooLong   = errors.New("outbox: entity id exceeds maximum length")
	ErrInvalidEventKind  = errors.New("outbox: invalid event kind")
	ErrPayloadNil        = errors.New("outbox: payload must not be nil")
	ErrPayloadTooLarge   = errors.New("outbox: payload exceeds maximum size")
)

// EventKind enumerates the domain events this outbox instance may carry.
// A service registers the kinds it can emit; any other value is rejected.
type EventKind string

// Record is a single pending (or processed) event to emit, sharing a
// relational transaction with the state change it describes (spec.md §3
// OutboxRecord).
type Record struct {
	ID           uuid.UUID
	Seq          int64
	AggregateRef string
	EventKind    EventKind
	Payload      map[string]any
	Status       Status
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ProcessedAt  *time.Time
}

// NewRecord validates and constructs a new pending outbox Record, the
// generalized equivalent of the teacher's NewMetadataOutbox.
func NewRecord(aggregateRef string, kind EventKind, validKinds []EventKind, payload map[string]any) (*Record, error) {
	aggregateRef = strings.TrimSpace(aggregateRef)
	if aggregateRef == "" {
		return nil, ErrEntityIDEmpty
	}

	if len(aggregateRef) > MaxEntityIDLength {
		return nil, ErrEntityIDTooLong
	}

	valid := false

	for _, k := range validKinds {
		if k == kind {
			valid = true
			break
		}
	}

	if !valid {
		return nil, ErrInvalidEventKind
	}

	if payload == nil {
		return nil, ErrPayloadNil
	}

	if estimatePayloadSize(payload) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	now := time.Now().UTC()

	return &Record{
		ID:           uuid.New(),
		AggregateRef: aggregateRef,
		EventKind:    kind,
		Payload:      payload,
		Status:       StatusPending,
		RetryCount:   0,
		MaxRetries:   DefaultMaxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func estimatePayloadSize(payload map[string]any) int {
	size := 0

	for k, v := range payload {
		size += len(k)
		if s, ok := v.(string); ok {
			size += len(s)
		} else {
			size += 16
		}
	}

	return size
}

// RoutingKey returns the "<service>.<event_kind.lower>" routing key used
// to publish this record (spec.md §4.1 step 2).
func (r *Record) RoutingKey(service string) string {
	return service + "." + strings.ToLower(string(r.EventKind))
}

var emailLike = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
var phoneLike = regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)
var ipLike = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)

// SanitizeErrorMessage redacts PII-shaped substrings (emails, phone
// numbers, IPs) from an error message before it is persisted as
// LastError, and truncates overly long messages. Grounded on the
// teacher's SanitizeErrorMessage test.
func SanitizeErrorMessage(msg string) string {
	msg = emailLike.ReplaceAllString(msg, "[REDACTED]")
	msg = phoneLike.ReplaceAllString(msg, "[REDACTED]")
	msg = ipLike.ReplaceAllString(msg, "[REDACTED]")

	const maxLen = 512
	if len(msg) > maxLen {
		msg = msg[:maxLen] + "...[truncated]"
	}

	return msg
}
