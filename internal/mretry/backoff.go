// Package mretry implements exponential backoff with jitter for outbox
// pollers and bus consumers, grounded on the teacher's
// components/transaction/internal/bootstrap/metadata_outbox.worker_test.go
// (calculateBackoff, DefaultInitialBackoff, DefaultMaxBackoff,
// DefaultMetadataOutboxConfig).
package mretry

import (
	"math/rand"
	"time"
)

// Defaults mirrored from the teacher's retry worker tests.
const (
	DefaultInitialBackoff = time.Second
	DefaultMaxBackoff     = 30 * time.Minute
	DefaultMaxRetries     = 10
)

// Config parameterizes backoff calculation for a single poller/consumer.
type Config struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxRetries     int
}

// DefaultMetadataOutboxConfig returns the teacher-observed default config.
func DefaultMetadataOutboxConfig() Config {
	return Config{
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
		MaxRetries:     DefaultMaxRetries,
	}
}

// WithInitialBackoff returns a copy of c with InitialBackoff overridden.
func (c Config) WithInitialBackoff(d time.Duration) Config {
	c.InitialBackoff = d
	return c
}

// Calculate returns the backoff duration for the given zero-indexed
// attempt number: doubling per attempt from InitialBackoff, capped at
// MaxBackoff, with up to 20% positive jitter to avoid thundering herds.
func (c Config) Calculate(attempt int) time.Duration {
	if attempt <= 0 {
		return c.InitialBackoff
	}

	backoff := c.InitialBackoff

	for i := 0; i < attempt; i++ {
		backoff *= 2

		if backoff >= c.MaxBackoff {
			backoff = c.MaxBackoff
			break
		}
	}

	jitter := time.Duration(rand.Int63n(int64(backoff) / 5))

	total := backoff + jitter
	if total > c.MaxBackoff {
		total = c.MaxBackoff
	}

	return total
}
