package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prodsync/prodsync/database"
	"github.com/prodsync/prodsync/database/postgres"
	"github.com/prodsync/prodsync/internal/applier"
	"github.com/prodsync/prodsync/internal/planner"
)

// PostgresService implements SchemaService against live PostgreSQL servers.
// Connections are opened per call: the pipeline is fully sequential and each
// stage may target a different environment.
type PostgresService struct {
	// PingTimeout bounds the connectivity probe
	PingTimeout time.Duration
	// IntrospectTimeout bounds one full schema read
	IntrospectTimeout time.Duration
	// ApplyTimeout bounds the apply transaction
	ApplyTimeout time.Duration
}

// NewPostgresService creates a SchemaService with the default bounds
func NewPostgresService() *PostgresService {
	return &PostgresService{
		PingTimeout:       10 * time.Second,
		IntrospectTimeout: 2 * time.Minute,
		ApplyTimeout:      2 * time.Minute,
	}
}

func (s *PostgresService) open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	return db, nil
}

// Ping verifies connectivity within the probe bound
func (s *PostgresService) Ping(ctx context.Context, databaseURL string) error {
	db, err := s.open(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(ctx, s.PingTimeout)
	defer cancel()

	return db.PingContext(ctx)
}

// Introspect reads the live structural metadata of the public schema
func (s *PostgresService) Introspect(ctx context.Context, databaseURL string) (*database.Schema, error) {
	db, err := s.open(databaseURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(ctx, s.IntrospectTimeout)
	defer cancel()

	return postgres.NewIntrospector().IntrospectSchema(ctx, db)
}

// Apply runs the plan inside a single bounded transaction
func (s *PostgresService) Apply(ctx context.Context, databaseURL string, plan *planner.Plan) error {
	db, err := s.open(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(ctx, s.ApplyTimeout)
	defer cancel()

	return applier.Apply(ctx, db, plan)
}
