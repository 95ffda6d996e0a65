package webhook_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumenfund/pledgeflow/internal/webhook"
)

func TestStatus_CanTransitionTo_ValidTransitions(t *testing.T) {
	cases := []struct {
		from, to webhook.Status
	}{
		{webhook.StatusInitiated, webhook.StatusAuthorized},
		{webhook.StatusInitiated, webhook.StatusFailed},
		{webhook.StatusAuthorized, webhook.StatusCaptured},
		{webhook.StatusAuthorized, webhook.StatusFailed},
		{webhook.StatusAuthorized, webhook.StatusRefunded},
		{webhook.StatusCaptured, webhook.StatusRefunded},
	}

	for _, c := range cases {
		assert.True(t, c.from.CanTransitionTo(c.to), "%s -> %s should be valid", c.from, c.to)
	}
}

func TestStatus_CanTransitionTo_InvalidTransitions(t *testing.T) {
	cases := []struct {
		from, to webhook.Status
	}{
		{webhook.StatusInitiated, webhook.StatusCaptured},
		{webhook.StatusInitiated, webhook.StatusRefunded},
		{webhook.StatusCaptured, webhook.StatusAuthorized},
		{webhook.StatusFailed, webhook.StatusAuthorized},
		{webhook.StatusRefunded, webhook.StatusCaptured},
	}

	for _, c := range cases {
		assert.False(t, c.from.CanTransitionTo(c.to), "%s -> %s should be invalid", c.from, c.to)
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, webhook.StatusFailed.IsTerminal())
	assert.True(t, webhook.StatusRefunded.IsTerminal())
	assert.False(t, webhook.StatusInitiated.IsTerminal())
	assert.False(t, webhook.StatusAuthorized.IsTerminal())
	assert.False(t, webhook.StatusCaptured.IsTerminal())
}
