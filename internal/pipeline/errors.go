package pipeline

import (
	"errors"
	"fmt"
)

// Stage names used in errors and progress output
const (
	StageValidate     = "validate"
	StageConnectivity = "connectivity"
	StageBackup       = "backup"
	StageDiff         = "diff"
	StageApply        = "apply"
	StagePromote      = "promote"
	StageFunctions    = "functions"
)

var (
	// ErrInterrupted indicates the run was cancelled between stages.
	// No stage after the cancellation point was started.
	ErrInterrupted = errors.New("run interrupted")
)

// StageError is a fatal pipeline error. It halts every subsequent stage and
// carries the backup artifact path when one exists, since restoring from the
// backup is the only recovery mechanism.
type StageError struct {
	Stage      string
	BackupPath string
	Err        error
}

func (e *StageError) Error() string {
	if e.BackupPath != "" {
		return fmt.Sprintf("%s stage failed: %v (backup available at %s)", e.Stage, e.Err, e.BackupPath)
	}
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// fatal wraps err as a StageError for the given stage
func (p *Pipeline) fatal(stage string, err error) *StageError {
	se := &StageError{Stage: stage, Err: err}
	if p.result != nil {
		se.BackupPath = p.result.BackupPath
	}
	return se
}
