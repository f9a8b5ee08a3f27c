package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/prodsync/prodsync/internal/functions"
	"github.com/spf13/cobra"
)

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "Manage serverless functions",
}

var functionsDeployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Redeploy all functions to production",
	Long: `Redeploy every eligible function to production. Internal units are
skipped; a failing unit is reported and the rest still deploy.`,
	Run: runFunctionsDeploy,
}

var functionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List functions and whether they deploy",
	Run:   runFunctionsList,
}

func init() {
	rootCmd.AddCommand(functionsCmd)
	functionsCmd.AddCommand(functionsDeployCmd)
	functionsCmd.AddCommand(functionsListCmd)
}

func runFunctionsDeploy(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit()
	_, target := resolveEnvironmentsOrExit(cfg)

	if err := checkBinaries("supabase"); err != nil {
		log.Fatalf("Preflight failed: %v", err)
	}

	ctx := cmd.Context()
	deployer := functions.NewSupabaseCLI(workDir(cfg))

	if err := deployer.Authenticate(ctx, target.AccessToken, target.ProjectRef); err != nil {
		log.Fatalf("Authentication failed: %v", err)
	}

	units, err := newRegistry(cfg).Units()
	if err != nil {
		log.Fatalf("Failed to list functions: %v", err)
	}

	tally := functions.RedeployAll(ctx, deployer, units, target.ProjectRef, os.Stdout)
	fmt.Printf("✅ Function deployment complete: %d successful, %d failed\n",
		tally.Deployed, tally.Failed)
	if tally.Failed > 0 {
		os.Exit(1)
	}
}

func runFunctionsList(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit()

	units, err := newRegistry(cfg).Units()
	if err != nil {
		log.Fatalf("Failed to list functions: %v", err)
	}

	for _, unit := range units {
		marker := "deploy"
		if unit.Internal {
			marker = "skip (internal)"
		}
		fmt.Printf("%-32s %s\n", unit.Name, marker)
	}
}
