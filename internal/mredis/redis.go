// Package mredis wraps a single Redis client connection, grounded on the
// teacher's common/mredis/redis.go.
package mredis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lumenfund/pledgeflow/internal/mlog"
)

// Connection is a hub that deals with Redis connectivity.
type Connection struct {
	ConnectionString string
	Logger           mlog.Logger

	client    *redis.Client
	connected bool
}

// Connect parses the connection string and pings the server.
func (c *Connection) Connect(ctx context.Context) error {
	c.Logger.Info("connecting to redis...")

	opts, err := redis.ParseURL(c.ConnectionString)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	c.client = client
	c.connected = true

	c.Logger.Info("connected to redis")

	return nil
}

// Client returns the redis.Client, connecting lazily if necessary.
func (c *Connection) Client(ctx context.Context) (*redis.Client, error) {
	if !c.connected {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.client, nil
}
