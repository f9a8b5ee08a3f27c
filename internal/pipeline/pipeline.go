// Package pipeline sequences the staging→production promotion: connectivity
// checks, backup, schema diff/gate/sanitize/apply, code promotion, and
// function redeployment. Stages run strictly in order; a fatal error halts
// everything after it, and nothing already applied is rolled back — recovery
// is a manual restore from the backup artifact.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/prodsync/prodsync/database"
	"github.com/prodsync/prodsync/database/postgres"
	"github.com/prodsync/prodsync/internal/applier"
	"github.com/prodsync/prodsync/internal/backup"
	"github.com/prodsync/prodsync/internal/config"
	"github.com/prodsync/prodsync/internal/functions"
	"github.com/prodsync/prodsync/internal/gitrepo"
	"github.com/prodsync/prodsync/internal/planner"
	"github.com/prodsync/prodsync/internal/runlog"
	"github.com/prodsync/prodsync/internal/sanitize"
	"github.com/prodsync/prodsync/internal/schema"
)

// SchemaService abstracts the relational database behind the schema stages,
// so the pipeline is testable without a live server.
type SchemaService interface {
	// Ping verifies connectivity to the database
	Ping(ctx context.Context, databaseURL string) error

	// Introspect reads the live structural metadata
	Introspect(ctx context.Context, databaseURL string) (*database.Schema, error)

	// Apply runs the plan inside a single bounded transaction
	Apply(ctx context.Context, databaseURL string, plan *planner.Plan) error
}

// Pipeline wires the stages to their external collaborators. Every
// collaborator sits behind a narrow interface.
type Pipeline struct {
	Config   *config.Config
	Run      *RunContext
	DB       SchemaService
	Dumper   backup.Dumper
	Repo     gitrepo.Repository
	Registry functions.Registry
	Deployer functions.Deployer
	Gen      database.SQLGenerator // defaults to the PostgreSQL generator
	Ledger   *runlog.Log           // optional
	Out      io.Writer

	result *Result
}

// Result summarizes one completed (or previewed) run
type Result struct {
	BackupPath           string
	DiffEmpty            bool
	StatementsApplied    int
	StatementsSuppressed int
	Warnings             []string
	Tally                functions.Tally
}

var (
	headerColor  = color.New(color.FgCyan)
	stageColor   = color.New(color.FgYellow)
	okColor      = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow, color.Bold)
	previewColor = color.New(color.FgCyan)
)

// Execute runs all stages in order and returns the run summary. The error,
// when non-nil, is always a *StageError (or ErrInterrupted); the caller is
// expected to terminate with a non-zero status.
func (p *Pipeline) Execute(ctx context.Context) (*Result, error) {
	p.result = &Result{}

	p.printHeader()

	res, err := p.execute(ctx)
	if p.Ledger != nil {
		p.recordRun(err)
	}
	return res, err
}

func (p *Pipeline) execute(ctx context.Context) (*Result, error) {
	if err := p.validateEnvironments(); err != nil {
		return nil, p.fatal(StageValidate, err)
	}

	if err := p.checkpoint(ctx); err != nil {
		return nil, err
	}
	if err := p.checkConnectivity(ctx); err != nil {
		return nil, p.fatal(StageConnectivity, err)
	}

	if err := p.checkpoint(ctx); err != nil {
		return nil, err
	}
	if err := p.createBackup(ctx); err != nil {
		return nil, p.fatal(StageBackup, err)
	}

	if err := p.checkpoint(ctx); err != nil {
		return nil, err
	}
	plan, err := p.computeDiff(ctx)
	if err != nil {
		return nil, p.fatal(StageDiff, err)
	}

	if !plan.IsEmpty() {
		if err := p.checkpoint(ctx); err != nil {
			return nil, err
		}
		if err := p.applySchemaChanges(ctx, plan); err != nil {
			return nil, p.fatal(StageApply, err)
		}
	}

	if err := p.checkpoint(ctx); err != nil {
		return nil, err
	}
	if err := p.promoteCode(ctx); err != nil {
		return nil, p.fatal(StagePromote, err)
	}

	if err := p.checkpoint(ctx); err != nil {
		return nil, err
	}
	if err := p.redeployFunctions(ctx); err != nil {
		return nil, p.fatal(StageFunctions, err)
	}

	p.printSummary()
	return p.result, nil
}

// checkpoint honors cancellation at stage boundaries: an in-flight external
// command may run to completion, but no subsequent stage starts afterwards.
func (p *Pipeline) checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInterrupted, err)
	}
	return nil
}

func (p *Pipeline) printHeader() {
	headerColor.Fprintln(p.Out, "🔄 Staging → Production Sync")
	mode := "LIVE DEPLOYMENT"
	if p.Run.Preview {
		mode = "PREVIEW"
	}
	destructive := "Disabled"
	if p.Run.AllowDestructive {
		destructive = "Enabled"
	}
	fmt.Fprintf(p.Out, "Run:         %s\n", p.Run.RunID)
	fmt.Fprintf(p.Out, "Mode:        %s\n", mode)
	fmt.Fprintf(p.Out, "Destructive: %s\n", destructive)
	fmt.Fprintf(p.Out, "Staging:     %s\n", p.Run.Source.ProjectRef)
	fmt.Fprintf(p.Out, "Production:  %s\n\n", p.Run.Target.ProjectRef)
}

func (p *Pipeline) validateEnvironments() error {
	if err := p.Run.Source.Validate(); err != nil {
		return err
	}
	return p.Run.Target.Validate()
}

func (p *Pipeline) checkConnectivity(ctx context.Context) error {
	stageColor.Fprintln(p.Out, "🔗 Testing database connectivity...")

	if err := p.DB.Ping(ctx, p.Run.Source.DatabaseURL); err != nil {
		return fmt.Errorf("staging database connection failed: %w", err)
	}
	okColor.Fprintln(p.Out, "  ✅ Staging database connection successful")

	if err := p.DB.Ping(ctx, p.Run.Target.DatabaseURL); err != nil {
		return fmt.Errorf("production database connection failed: %w", err)
	}
	okColor.Fprintln(p.Out, "  ✅ Production database connection successful")
	return nil
}

// createBackup snapshots the target before any change. In preview mode it is
// skipped entirely: a preview never satisfies the backup invariant for a
// later live run.
func (p *Pipeline) createBackup(ctx context.Context) error {
	if p.Run.Preview {
		previewColor.Fprintln(p.Out, "💾 [PREVIEW] Would create production backup")
		return nil
	}

	stageColor.Fprintln(p.Out, "💾 Creating production database backup...")

	artifact, err := p.Dumper.Dump(ctx, p.Run.Target.DatabaseURL, p.Run.BackupFile())
	if err != nil {
		return err
	}

	p.result.BackupPath = artifact.Path
	okColor.Fprintf(p.Out, "  ✅ Backup created: %s (%.1f MB)\n", artifact.Path, artifact.SizeMB())
	return nil
}

// computeDiff introspects both environments and produces the gated plan that
// will be applied. A zero-statement diff short-circuits the schema stages;
// that is a frequent, valid outcome, not an error.
func (p *Pipeline) computeDiff(ctx context.Context) (*planner.Plan, error) {
	stageColor.Fprintln(p.Out, "🧮 Generating schema diff (production → staging shape)...")

	sourceSchema, err := p.DB.Introspect(ctx, p.Run.Source.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect staging: %w", err)
	}
	targetSchema, err := p.DB.Introspect(ctx, p.Run.Target.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect production: %w", err)
	}

	diff := schema.DiffSchemas(sourceSchema, targetSchema)
	if diff.IsEmpty() {
		okColor.Fprintln(p.Out, "  ✅ No schema differences found")
		p.result.DiffEmpty = true
		return &planner.Plan{}, nil
	}

	full := planner.GeneratePlan(diff, p.generator())
	gate := planner.Gate(full, p.Run.AllowDestructive)

	if n := len(gate.Suppressed); n > 0 {
		warnColor.Fprintf(p.Out, "  ⚠️  %d destructive statement(s) suppressed; use --allow-destructive to include them\n", n)
		p.result.StatementsSuppressed = n
		p.result.Warnings = append(p.result.Warnings,
			fmt.Sprintf("%d destructive statements suppressed by policy", n))

		// Audit-only diagnostic: the full plan including destructive
		// statements is written for the operator but never applied.
		if err := p.writeArtifact(UnsafeDiffFileName, full.SQL()); err != nil {
			return nil, err
		}
	}

	if err := p.writeArtifact(DiffFileName, gate.Plan.SQL()); err != nil {
		return nil, err
	}

	okColor.Fprintf(p.Out, "  ✅ Schema diff generated (%d statements, %d bytes)\n",
		len(gate.Plan.Statements), gate.Plan.ByteSize())

	return gate.Plan, nil
}

// applySchemaChanges sanitizes the plan and applies it inside one bounded
// transaction. An empty sanitized plan short-circuits to success.
func (p *Pipeline) applySchemaChanges(ctx context.Context, plan *planner.Plan) error {
	stageColor.Fprintln(p.Out, "🧹 Sanitizing schema diff...")

	sanitized := sanitize.Sanitize(plan)
	if err := p.writeArtifact(SanitizedDiffFileName, sanitized.SQL()); err != nil {
		return err
	}

	if sanitized.IsEmpty() {
		okColor.Fprintln(p.Out, "  ✅ No schema changes to apply")
		return nil
	}

	script := applier.BuildScript(sanitized)
	if err := p.writeArtifact(ApplyScriptFileName, script); err != nil {
		return err
	}

	if err := applier.ValidateSyntax(sanitized); err != nil {
		return fmt.Errorf("generated plan is not valid SQL: %w", err)
	}

	if p.Run.Preview {
		previewColor.Fprintln(p.Out, "🚀 [PREVIEW] Would apply schema changes to production:")
		for _, stmt := range sanitized.Statements {
			fmt.Fprintf(p.Out, "    %s\n", stmt.Description)
		}
		return nil
	}

	stageColor.Fprintln(p.Out, "🚀 Applying schema changes to production...")

	if err := p.DB.Apply(ctx, p.Run.Target.DatabaseURL, sanitized); err != nil {
		return err
	}

	p.result.StatementsApplied = len(sanitized.Statements)
	okColor.Fprintln(p.Out, "  ✅ Schema changes applied successfully")
	return nil
}

func (p *Pipeline) promoteCode(ctx context.Context) error {
	src, dst := p.Config.SourceBranch, p.Config.TargetBranch

	if p.Run.Preview {
		previewColor.Fprintf(p.Out, "📦 [PREVIEW] Would deploy code changes (%s → %s)\n", src, dst)
		return nil
	}

	stageColor.Fprintf(p.Out, "📦 Deploying code changes (%s → %s)...\n", src, dst)

	if err := gitrepo.Promote(ctx, p.Repo, src, dst); err != nil {
		return err
	}

	okColor.Fprintln(p.Out, "  ✅ Code deployment successful")
	return nil
}

func (p *Pipeline) redeployFunctions(ctx context.Context) error {
	if p.Run.Preview {
		previewColor.Fprintln(p.Out, "⚡ [PREVIEW] Would deploy functions to production")
		return nil
	}

	stageColor.Fprintln(p.Out, "⚡ Deploying functions to production...")

	// A failed authentication would guarantee every unit fails, so it is
	// fatal; individual unit failures afterwards are not.
	if err := p.Deployer.Authenticate(ctx, p.Run.Target.AccessToken, p.Run.Target.ProjectRef); err != nil {
		return err
	}

	units, err := p.Registry.Units()
	if err != nil {
		return err
	}

	p.result.Tally = functions.RedeployAll(ctx, p.Deployer, units, p.Run.Target.ProjectRef, p.Out)
	okColor.Fprintf(p.Out, "  ✅ Function deployment complete: %d successful, %d failed\n",
		p.result.Tally.Deployed, p.result.Tally.Failed)
	return nil
}

func (p *Pipeline) printSummary() {
	okColor.Fprintln(p.Out, "\n🎉 Deployment Summary")
	fmt.Fprintf(p.Out, "  📅 Timestamp: %s\n", p.Run.Timestamp.Format("2006-01-02 15:04:05"))
	if p.result.BackupPath != "" {
		fmt.Fprintf(p.Out, "  💾 Backup: %s\n", p.result.BackupPath)
	}
	if !p.result.DiffEmpty {
		fmt.Fprintf(p.Out, "  📄 Schema diff: %s\n", filepath.Join(p.Run.BackupDir, DiffFileName))
		fmt.Fprintf(p.Out, "  📄 Sanitized diff: %s\n", filepath.Join(p.Run.BackupDir, SanitizedDiffFileName))
	}
	if p.Run.Preview {
		previewColor.Fprintln(p.Out, "\nℹ️  This was a PREVIEW - no changes were made to production")
	} else {
		okColor.Fprintln(p.Out, "\n✅ All changes have been applied to production")
	}
}

// writeArtifact persists one write-once artifact under the run's backup
// directory. Artifacts are never deleted automatically.
func (p *Pipeline) writeArtifact(name, content string) error {
	if err := os.MkdirAll(p.Run.BackupDir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	path := filepath.Join(p.Run.BackupDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (p *Pipeline) generator() database.SQLGenerator {
	if p.Gen != nil {
		return p.Gen
	}
	return postgres.NewGenerator()
}

func (p *Pipeline) recordRun(runErr error) {
	outcome := "success"
	switch {
	case runErr != nil:
		outcome = "failed"
		var se *StageError
		if errors.As(runErr, &se) {
			outcome = "failed:" + se.Stage
		}
	case p.Run.Preview:
		outcome = "preview"
	}

	entry := runlog.Entry{
		RunID:             p.Run.RunID,
		StartedAt:         p.Run.Timestamp,
		Preview:           p.Run.Preview,
		AllowDestructive:  p.Run.AllowDestructive,
		StatementsApplied: p.result.StatementsApplied,
		StatementsSkipped: p.result.StatementsSuppressed,
		FunctionsDeployed: p.result.Tally.Deployed,
		FunctionsFailed:   p.result.Tally.Failed,
		Outcome:           outcome,
		BackupPath:        p.result.BackupPath,
	}

	if err := p.Ledger.Record(context.Background(), entry); err != nil {
		fmt.Fprintf(p.Out, "  ⚠️  Failed to record run in ledger: %v\n", err)
	}
}
