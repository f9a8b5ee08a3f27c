package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/prodsync/prodsync/internal/config"
)

// RunContext is the immutable per-invocation record. It is created once at
// startup and only ever read afterwards.
type RunContext struct {
	RunID            string
	Timestamp        time.Time
	Preview          bool
	AllowDestructive bool
	Source           *config.Environment
	Target           *config.Environment
	BackupDir        string
}

// NewRunContext builds the run record. The backup directory name is derived
// from the timestamp so every run gets its own artifact directory.
func NewRunContext(cfg *config.Config, source, target *config.Environment, preview, allowDestructive bool) *RunContext {
	now := time.Now()
	return &RunContext{
		RunID:            uuid.NewString(),
		Timestamp:        now,
		Preview:          preview,
		AllowDestructive: allowDestructive,
		Source:           source,
		Target:           target,
		BackupDir:        filepath.Join(cfg.BackupRoot, fmt.Sprintf("%s_sync", now.Format("20060102_150405"))),
	}
}

// Artifact file names inside the backup directory
const (
	BackupFileName        = "prod_full.sql"
	DiffFileName          = "schema_diff.sql"
	UnsafeDiffFileName    = "schema_diff_unsafe.sql"
	SanitizedDiffFileName = "schema_diff_sanitized.sql"
	ApplyScriptFileName   = "apply_changes.sql"
)

// BackupFile returns the path of this run's database dump
func (r *RunContext) BackupFile() string {
	return filepath.Join(r.BackupDir, BackupFileName)
}
