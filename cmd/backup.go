package cmd

import (
	"fmt"
	"log"

	"github.com/prodsync/prodsync/internal/backup"
	"github.com/prodsync/prodsync/internal/config"
	"github.com/prodsync/prodsync/internal/pipeline"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a production database backup",
	Long: `Dump the production database into a fresh timestamped directory under
the backup root. This is the same snapshot a sync takes before applying
schema changes.`,
	Run: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit()
	_, target := resolveEnvironmentsOrExit(cfg)

	if err := checkBinaries("pg_dump"); err != nil {
		log.Fatalf("Preflight failed: %v", err)
	}

	run := pipeline.NewRunContext(cfg, &config.Environment{}, target, false, false)

	artifact, err := backup.NewPgDump().Dump(cmd.Context(), target.DatabaseURL, run.BackupFile())
	if err != nil {
		log.Fatalf("Backup failed: %v", err)
	}

	fmt.Printf("✅ Backup created: %s (%.1f MB)\n", artifact.Path, artifact.SizeMB())
}
