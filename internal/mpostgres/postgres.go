// Package mpostgres wraps a primary/replica Postgres connection pair and
// runs schema migrations at startup, grounded on the teacher's
// common/mpostgres/postgres.go.
package mpostgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bxcodec/dbresolver/v2"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lumenfund/pledgeflow/internal/mlog"
)

// Connection is a hub that deals with primary/replica Postgres connections
// for a single service's schema.
type Connection struct {
	PrimaryDSN     string
	ReplicaDSN     string
	MigrationsPath string
	DatabaseName   string
	Logger         mlog.Logger

	db        dbresolver.DB
	connected bool
}

// Connect opens the primary and replica pools, applies pending migrations
// against the primary, and verifies connectivity.
func (c *Connection) Connect() error {
	c.Logger.Info("connecting to postgres...")

	primary, err := sql.Open("pgx", c.PrimaryDSN)
	if err != nil {
		return fmt.Errorf("open primary: %w", err)
	}

	replicaDSN := c.ReplicaDSN
	if replicaDSN == "" {
		replicaDSN = c.PrimaryDSN
	}

	replica, err := sql.Open("pgx", replicaDSN)
	if err != nil {
		return fmt.Errorf("open replica: %w", err)
	}

	resolver := dbresolver.New(
		dbresolver.WithPrimaryDBs(primary),
		dbresolver.WithReplicaDBs(replica),
		dbresolver.WithLoadBalancer(dbresolver.RoundRobinLB),
	)

	if c.MigrationsPath != "" {
		if err := c.migrate(primary); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	if err := resolver.Ping(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	c.db = resolver
	c.connected = true

	c.Logger.Info("connected to postgres")

	return nil
}

func (c *Connection) migrate(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{DatabaseName: c.DatabaseName, SchemaName: "public"})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+c.MigrationsPath, c.DatabaseName, driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

// DB returns the resolver, connecting lazily if necessary.
func (c *Connection) DB(ctx context.Context) (dbresolver.DB, error) {
	if !c.connected {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	return c.db, nil
}
