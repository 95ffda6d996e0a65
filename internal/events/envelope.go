// Package events implements the bus-consumer scaffolding shared by every
// service (spec.md §4.5, Subsystem E): bind a durable queue, decode the
// envelope, run an idempotent handler, and ack/nack/dead-letter
// accordingly.
//
// Grounded on the teacher's components/audit/internal/bootstrap/consumer.go
// consume loop, generalized from a single hard-coded message type to a
// per-binding Handler and from auto-ack to the manual ack/nack this spec
// requires (spec.md §4.5 steps 1 and 4).
package events

import "time"

// Envelope is the wire format spec.md §6 prescribes for every bus
// message: `{event_type, aggregate_ref, timestamp, payload}`.
type Envelope struct {
	EventType    string         `json:"event_type"`
	AggregateRef string         `json:"aggregate_ref"`
	Timestamp    time.Time      `json:"timestamp"`
	Payload      map[string]any `json:"payload"`
}
