package cmd

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/prodsync/prodsync/internal/backup"
	"github.com/prodsync/prodsync/internal/config"
	"github.com/prodsync/prodsync/internal/functions"
	"github.com/prodsync/prodsync/internal/gitrepo"
	"github.com/prodsync/prodsync/internal/pipeline"
	"github.com/prodsync/prodsync/internal/runlog"
)

// ledgerFileName is the run history database inside the backup root
const ledgerFileName = "runs.db"

func loadConfigOrExit() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config file: %v", err)
	}
	return cfg
}

func resolveEnvironmentsOrExit(cfg *config.Config) (source, target *config.Environment) {
	source, target, err := config.ResolveEnvironments(cfg)
	if err != nil {
		log.Fatalf("Failed to resolve environments: %v", err)
	}
	return source, target
}

// workDir returns the directory external commands run in: the directory
// holding prodsync.toml when one was found, the working directory otherwise.
func workDir(cfg *config.Config) string {
	if dir := cfg.ConfigDir(); dir != "" {
		return dir
	}
	return "."
}

// checkBinaries verifies required external commands are on PATH before any
// stage runs, so a missing tool fails up front instead of mid-pipeline.
func checkBinaries(names ...string) error {
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			return fmt.Errorf("required command %q not found in PATH", name)
		}
	}
	return nil
}

// newRegistry picks the function source: an explicit manifest when configured,
// otherwise the functions directory listing.
func newRegistry(cfg *config.Config) functions.Registry {
	base := workDir(cfg)
	if cfg.FunctionsManifest != "" {
		return functions.NewManifestRegistry(filepath.Join(base, cfg.FunctionsManifest))
	}
	return functions.NewDirectoryRegistry(filepath.Join(base, cfg.FunctionsDir))
}

// openLedger opens the run history database under the backup root. A ledger
// failure is reported but never blocks a deployment.
func openLedger(cfg *config.Config) *runlog.Log {
	root := filepath.Join(workDir(cfg), cfg.BackupRoot)
	if err := os.MkdirAll(root, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Cannot create backup root for run history: %v\n", err)
		return nil
	}
	ledger, err := runlog.Open(filepath.Join(root, ledgerFileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Cannot open run history: %v\n", err)
		return nil
	}
	return ledger
}

// newPipeline wires the real collaborators for a full run
func newPipeline(cfg *config.Config, run *pipeline.RunContext) *pipeline.Pipeline {
	dir := workDir(cfg)
	return &pipeline.Pipeline{
		Config:   cfg,
		Run:      run,
		DB:       pipeline.NewPostgresService(),
		Dumper:   backup.NewPgDump(),
		Repo:     gitrepo.NewGitCLI(dir),
		Registry: newRegistry(cfg),
		Deployer: functions.NewSupabaseCLI(dir),
		Ledger:   openLedger(cfg),
		Out:      os.Stdout,
	}
}
