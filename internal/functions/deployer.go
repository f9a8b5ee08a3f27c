package functions

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Deployer is the narrow surface the redeployment stage needs from the
// function-deploy service. Authenticate establishes credentials and links the
// target project once; Deploy pushes a single unit.
type Deployer interface {
	Authenticate(ctx context.Context, token, projectRef string) error
	Deploy(ctx context.Context, name, projectRef string) error
}

// SupabaseCLI implements Deployer by shelling out to the supabase CLI
type SupabaseCLI struct {
	workDir string

	// AuthTimeout bounds login and project link; a stalled login is a
	// fatal stage failure
	AuthTimeout time.Duration

	// DeployTimeout bounds each unit's deploy; a timeout is recorded as
	// that unit's failure, not a fatal error
	DeployTimeout time.Duration
}

// NewSupabaseCLI creates a CLI-backed Deployer rooted at workDir
func NewSupabaseCLI(workDir string) *SupabaseCLI {
	return &SupabaseCLI{
		workDir:       workDir,
		AuthTimeout:   60 * time.Second,
		DeployTimeout: 60 * time.Second,
	}
}

func (s *SupabaseCLI) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "supabase", args...)
	cmd.Dir = s.workDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("supabase %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Authenticate logs in with the access token and links the project
func (s *SupabaseCLI) Authenticate(ctx context.Context, token, projectRef string) error {
	ctx, cancel := context.WithTimeout(ctx, s.AuthTimeout)
	defer cancel()

	if err := s.run(ctx, "login", "--token", token); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("login timed out after %s", s.AuthTimeout)
		}
		return fmt.Errorf("login failed: %w", err)
	}
	if err := s.run(ctx, "link", "--project-ref", projectRef); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("project link timed out after %s", s.AuthTimeout)
		}
		return fmt.Errorf("project link failed: %w", err)
	}
	return nil
}

// Deploy redeploys one function to the linked project
func (s *SupabaseCLI) Deploy(ctx context.Context, name, projectRef string) error {
	ctx, cancel := context.WithTimeout(ctx, s.DeployTimeout)
	defer cancel()

	err := s.run(ctx, "functions", "deploy", name, "--project-ref", projectRef)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("deploy of %s timed out after %s", name, s.DeployTimeout)
	}
	return err
}
