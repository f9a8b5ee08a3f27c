package applier

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/prodsync/prodsync/internal/planner"
)

// Conservative bounds so a stuck migration fails fast instead of hanging.
const (
	LockTimeout      = "5s"
	StatementTimeout = "60s"
)

// extensionGuards are idempotent and prepended outside the plan's ordering
// contract: later statements may depend on these extensions existing.
var extensionGuards = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,
	`CREATE EXTENSION IF NOT EXISTS "pgjwt"`,
	`CREATE EXTENSION IF NOT EXISTS "pg_stat_statements"`,
}

// BuildScript renders the exact SQL applied to the target, for the audit
// artifact. The rendered script matches what Apply executes: extension
// guards, one transaction, conservative timeouts, then the plan statements
// in their original order.
func BuildScript(plan *planner.Plan) string {
	var sb strings.Builder

	sb.WriteString("-- Ensure common extensions\n")
	for _, guard := range extensionGuards {
		sb.WriteString(guard)
		sb.WriteString(";\n")
	}
	sb.WriteString("\nBEGIN;\n\n")
	sb.WriteString(fmt.Sprintf("SET LOCAL lock_timeout = '%s';\n", LockTimeout))
	sb.WriteString(fmt.Sprintf("SET LOCAL statement_timeout = '%s';\n\n", StatementTimeout))

	for _, stmt := range plan.Statements {
		sb.WriteString(stmt.SQL)
		sb.WriteString(";\n")
	}

	sb.WriteString("\nCOMMIT;\n")
	return sb.String()
}

// ValidateSyntax parses every statement with the PostgreSQL parser before
// anything touches the target. A plan that does not parse is a fatal error,
// caught while the run is still side-effect free.
func ValidateSyntax(plan *planner.Plan) error {
	for i, stmt := range plan.Statements {
		if _, err := pg_query.Parse(stmt.SQL); err != nil {
			return fmt.Errorf("statement %d (%s) failed to parse: %w", i+1, stmt.Description, err)
		}
	}
	return nil
}

// Apply runs the plan against the target database inside a single
// transaction. Either the whole plan commits or none of it does. An empty
// plan short-circuits to success without opening a transaction.
func Apply(ctx context.Context, db *sql.DB, plan *planner.Plan) error {
	if plan.IsEmpty() {
		return nil
	}

	for _, guard := range extensionGuards {
		if _, err := db.ExecContext(ctx, guard); err != nil {
			return fmt.Errorf("extension guard failed (%s): %w", guard, err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%s'", LockTimeout)); err != nil {
		return fmt.Errorf("failed to set lock_timeout: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%s'", StatementTimeout)); err != nil {
		return fmt.Errorf("failed to set statement_timeout: %w", err)
	}

	for _, stmt := range plan.Statements {
		if _, err := tx.ExecContext(ctx, stmt.SQL); err != nil {
			return fmt.Errorf("%s: %w", stmt.Description, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema changes: %w", err)
	}

	return nil
}
