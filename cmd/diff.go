package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/prodsync/prodsync/database/postgres"
	"github.com/prodsync/prodsync/internal/pipeline"
	"github.com/prodsync/prodsync/internal/planner"
	"github.com/prodsync/prodsync/internal/sanitize"
	"github.com/prodsync/prodsync/internal/schema"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show the schema changes a sync would apply",
	Long: `Introspect both databases and print the SQL that a sync would apply
to production. Nothing is modified.`,
	Example: `  # Print the gated, sanitized plan
  prodsync diff

  # Include destructive statements in the output
  prodsync diff --allow-destructive`,
	Run: runDiff,
}

var diffAllowDestructive bool

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().BoolVar(&diffAllowDestructive, "allow-destructive", false, "Include destructive schema statements")
}

func runDiff(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit()
	source, target := resolveEnvironmentsOrExit(cfg)

	ctx := cmd.Context()
	svc := pipeline.NewPostgresService()

	sourceSchema, err := svc.Introspect(ctx, source.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to introspect staging: %v", err)
	}
	targetSchema, err := svc.Introspect(ctx, target.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to introspect production: %v", err)
	}

	diff := schema.DiffSchemas(sourceSchema, targetSchema)
	if diff.IsEmpty() {
		fmt.Println("✅ No schema differences found")
		return
	}

	full := planner.GeneratePlan(diff, postgres.NewGenerator())
	gate := planner.Gate(full, diffAllowDestructive)
	plan := sanitize.Sanitize(gate.Plan)

	if n := len(gate.Suppressed); n > 0 {
		fmt.Fprintf(os.Stderr, "⚠️  %d destructive statement(s) suppressed; use --allow-destructive to include them\n", n)
	}
	if plan.IsEmpty() {
		fmt.Println("✅ No schema changes to apply")
		return
	}

	fmt.Print(plan.SQL())
}
