package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Repository is the narrow surface the promotion stage needs from version
// control. Implementations must not auto-resolve merge conflicts.
type Repository interface {
	// CurrentBranch returns the name of the checked-out branch
	CurrentBranch(ctx context.Context) (string, error)

	// IsDirty reports uncommitted or untracked changes in the working tree
	IsDirty(ctx context.Context) (bool, error)

	// BranchExists reports whether the named local branch exists
	BranchExists(ctx context.Context, branch string) (bool, error)

	// Fetch updates remote-tracking state from origin
	Fetch(ctx context.Context) error

	// Checkout switches the working tree to the named branch
	Checkout(ctx context.Context, branch string) error

	// Merge merges the named branch into the current branch without
	// interaction; a conflict is an error
	Merge(ctx context.Context, branch string) error

	// Push pushes the named branch to origin
	Push(ctx context.Context, branch string) error
}

// GitCLI implements Repository by shelling out to git
type GitCLI struct {
	workDir string

	// CommandTimeout bounds each git invocation; fetch and push go over
	// the network and must fail fast rather than hang the stage
	CommandTimeout time.Duration
}

// NewGitCLI creates a Repository rooted at workDir
func NewGitCLI(workDir string) *GitCLI {
	return &GitCLI{
		workDir:        workDir,
		CommandTimeout: 2 * time.Minute,
	}
}

func (g *GitCLI) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.CommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("git %s timed out after %s", strings.Join(args, " "), g.CommandTimeout)
		}
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// CurrentBranch returns the checked-out branch name
func (g *GitCLI) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// IsDirty reports uncommitted or untracked changes
func (g *GitCLI) IsDirty(ctx context.Context) (bool, error) {
	out, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// BranchExists reports whether the named local branch exists
func (g *GitCLI) BranchExists(ctx context.Context, branch string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, g.CommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--verify", "refs/heads/"+branch)
	cmd.Dir = g.workDir
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return false, nil
		}
		return false, fmt.Errorf("git rev-parse --verify %s: %w", branch, err)
	}
	return true, nil
}

// Fetch updates remote-tracking state from origin
func (g *GitCLI) Fetch(ctx context.Context) error {
	_, err := g.run(ctx, "fetch", "origin")
	return err
}

// Checkout switches to the named branch
func (g *GitCLI) Checkout(ctx context.Context, branch string) error {
	_, err := g.run(ctx, "checkout", branch)
	return err
}

// Merge merges branch into the current branch without opening an editor
func (g *GitCLI) Merge(ctx context.Context, branch string) error {
	_, err := g.run(ctx, "merge", branch, "--no-edit")
	return err
}

// Push pushes branch to origin
func (g *GitCLI) Push(ctx context.Context, branch string) error {
	_, err := g.run(ctx, "push", "origin", branch)
	return err
}
