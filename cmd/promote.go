package cmd

import (
	"fmt"
	"log"

	"github.com/prodsync/prodsync/internal/gitrepo"
	"github.com/spf13/cobra"
)

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Merge the source branch into the target branch and push",
	Long: `Promote code without touching the database or functions: merge the
source branch into the target branch, push it, and return to the branch you
started on. The working tree must be clean.`,
	Run: runPromote,
}

func init() {
	rootCmd.AddCommand(promoteCmd)
}

func runPromote(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit()

	if err := checkBinaries("git"); err != nil {
		log.Fatalf("Preflight failed: %v", err)
	}

	repo := gitrepo.NewGitCLI(workDir(cfg))
	if err := gitrepo.Promote(cmd.Context(), repo, cfg.SourceBranch, cfg.TargetBranch); err != nil {
		log.Fatalf("Promotion failed: %v", err)
	}

	fmt.Printf("✅ Promoted %s → %s\n", cfg.SourceBranch, cfg.TargetBranch)
}
