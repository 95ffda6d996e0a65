package mretry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate_ZeroAttempt(t *testing.T) {
	c := DefaultMetadataOutboxConfig()
	assert.Equal(t, DefaultInitialBackoff, c.Calculate(0))
}

func TestCalculate_ExponentialGrowth(t *testing.T) {
	c := DefaultMetadataOutboxConfig()

	b1 := c.Calculate(1)
	b2 := c.Calculate(2)
	b3 := c.Calculate(3)

	assert.GreaterOrEqual(t, b1.Seconds(), 2.0)
	assert.LessOrEqual(t, b1.Seconds(), 2.5)

	assert.GreaterOrEqual(t, b2.Seconds(), 4.0)
	assert.GreaterOrEqual(t, b3.Seconds(), 8.0)
}

func TestCalculate_CapsAtMax(t *testing.T) {
	c := DefaultMetadataOutboxConfig()
	assert.LessOrEqual(t, c.Calculate(100), DefaultMaxBackoff)
}

func TestWithInitialBackoff(t *testing.T) {
	c := DefaultMetadataOutboxConfig().WithInitialBackoff(2 * DefaultInitialBackoff)
	assert.Equal(t, 2*DefaultInitialBackoff, c.Calculate(0))
}
