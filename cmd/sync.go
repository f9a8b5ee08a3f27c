package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prodsync/prodsync/internal/pipeline"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the full staging → production deployment",
	Long: `Run the full deployment pipeline: connectivity checks, production
backup, schema diff and apply, code branch promotion, and function
redeployment. Stages run strictly in order; the first failure halts the run.

Nothing already applied is rolled back on failure. Recovery is a manual
restore from the backup artifact printed with the error.`,
	Example: `  # Show what would change without touching production
  prodsync sync --preview

  # Deploy, suppressing destructive schema statements (the default)
  prodsync sync

  # Deploy including DROP/destructive statements
  prodsync sync --allow-destructive`,
	Run: runSync,
}

var (
	syncPreview          bool
	syncAllowDestructive bool
)

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVar(&syncPreview, "preview", false, "Show planned changes without modifying production")
	syncCmd.Flags().BoolVar(&syncAllowDestructive, "allow-destructive", false, "Include destructive schema statements in the applied plan")
}

func runSync(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit()
	source, target := resolveEnvironmentsOrExit(cfg)

	if !syncPreview {
		if err := checkBinaries("pg_dump", "git", "supabase"); err != nil {
			log.Fatalf("Preflight failed: %v", err)
		}
	}

	run := pipeline.NewRunContext(cfg, source, target, syncPreview, syncAllowDestructive)
	p := newPipeline(cfg, run)
	if p.Ledger != nil {
		defer func() { _ = p.Ledger.Close() }()
	}

	// Ctrl-C lets the in-flight stage finish, then stops the run.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := p.Execute(ctx); err != nil {
		var se *pipeline.StageError
		if errors.As(err, &se) && se.BackupPath != "" {
			fmt.Fprintf(os.Stderr, "\n❌ Deployment failed during %s: %v\n", se.Stage, se.Err)
			fmt.Fprintf(os.Stderr, "💾 Production backup available for manual restore: %s\n", se.BackupPath)
			os.Exit(1)
		}
		log.Fatalf("Deployment failed: %v", err)
	}
}
