// Package mmongo wraps a Mongo client connection, grounded on the
// teacher's common/mmongo/mongo.go. Used by internal/webhookaudit to keep
// an append-only forensic trail of raw gateway payloads.
package mmongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lumenfund/pledgeflow/internal/mlog"
)

// Connection is a hub that deals with Mongo connectivity.
type Connection struct {
	ConnectionString string
	Database         string
	Logger           mlog.Logger

	client    *mongo.Client
	connected bool
}

// Connect dials Mongo and verifies connectivity with a ping.
func (c *Connection) Connect(ctx context.Context) error {
	c.Logger.Info("connecting to mongodb...")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.ConnectionString))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}

	c.client = client
	c.connected = true

	c.Logger.Info("connected to mongodb")

	return nil
}

// DB returns the configured database handle, connecting lazily.
func (c *Connection) DB(ctx context.Context) (*mongo.Database, error) {
	if !c.connected {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.client.Database(c.Database), nil
}
