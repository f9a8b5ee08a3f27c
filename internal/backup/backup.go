// Package backup creates the pre-change snapshot of the target database.
// A successful Artifact is the recovery mechanism for every later stage;
// no schema change is applied without one.
package backup

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Artifact is a full logical dump, keyed by the run's backup directory.
// Write-once: it is never modified or deleted after creation.
type Artifact struct {
	Path string
	Size int64
}

// Dumper performs a full logical export of one database
type Dumper interface {
	Dump(ctx context.Context, databaseURL, destPath string) (*Artifact, error)
}

// PgDump shells out to pg_dump. The exported file is plain SQL so the
// operator can restore with psql without extra tooling.
type PgDump struct {
	// Timeout bounds the dump; exceeding it is fatal, not retried
	Timeout time.Duration
}

// NewPgDump creates a pg_dump-backed Dumper with a minutes-scale bound
func NewPgDump() *PgDump {
	return &PgDump{Timeout: 5 * time.Minute}
}

// Dump exports the database at databaseURL to destPath
func (d *PgDump) Dump(ctx context.Context, databaseURL, destPath string) (*Artifact, error) {
	args, password, err := dumpArgs(databaseURL, destPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "pg_dump", args...)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+password)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("pg_dump timed out after %s", d.Timeout)
		}
		return nil, fmt.Errorf("pg_dump failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return nil, fmt.Errorf("backup file missing after dump: %w", err)
	}

	return &Artifact{Path: destPath, Size: info.Size()}, nil
}

// dumpArgs translates a postgres:// URL into pg_dump arguments.
// The password travels via PGPASSWORD, never on the command line.
func dumpArgs(databaseURL, destPath string) ([]string, string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid database URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return nil, "", fmt.Errorf("unsupported database URL scheme %q", u.Scheme)
	}

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	dbname := strings.TrimPrefix(u.Path, "/")
	if dbname == "" {
		return nil, "", fmt.Errorf("database URL %q does not name a database", redact(u))
	}

	user := ""
	password := ""
	if u.User != nil {
		user = u.User.Username()
		password, _ = u.User.Password()
	}

	args := []string{
		"-h", host,
		"-p", port,
		"-d", dbname,
		"--no-owner",
		"-f", destPath,
	}
	if user != "" {
		args = append(args, "-U", user)
	}

	return args, password, nil
}

// redact strips credentials from a URL for error messages
func redact(u *url.URL) string {
	c := *u
	c.User = nil
	return c.String()
}

// SizeMB formats the artifact size for the summary output
func (a *Artifact) SizeMB() float64 {
	return float64(a.Size) / (1024 * 1024)
}
