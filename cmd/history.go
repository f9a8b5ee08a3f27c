package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent deployment runs",
	Run:   runHistory,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit()

	ledger := openLedger(cfg)
	if ledger == nil {
		log.Fatalf("Run history unavailable")
	}
	defer func() { _ = ledger.Close() }()

	entries, err := ledger.Recent(cmd.Context(), historyLimit)
	if err != nil {
		log.Fatalf("Failed to read run history: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("No recorded runs")
		return
	}

	for _, e := range entries {
		fmt.Printf("%s  %-16s  applied=%d skipped=%d functions=%d/%d  %s\n",
			e.StartedAt.Format("2006-01-02 15:04:05"),
			e.Outcome,
			e.StatementsApplied,
			e.StatementsSkipped,
			e.FunctionsDeployed,
			e.FunctionsDeployed+e.FunctionsFailed,
			e.RunID,
		)
	}
}
