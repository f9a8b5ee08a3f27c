package gitrepo

import (
	"context"
	"fmt"
)

// Promote merges sourceBranch into targetBranch and pushes the result to
// origin. The working tree must be clean before anything is touched; a dirty
// tree aborts with no fetch, checkout, merge, or push issued. Whatever branch
// was active beforehand is restored on both success and failure, unless it
// already was the target branch.
func Promote(ctx context.Context, repo Repository, sourceBranch, targetBranch string) error {
	dirty, err := repo.IsDirty(ctx)
	if err != nil {
		return fmt.Errorf("failed to check working tree: %w", err)
	}
	if dirty {
		return fmt.Errorf("uncommitted changes detected; commit or stash them before promoting")
	}

	originalBranch, err := repo.CurrentBranch(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve current branch: %w", err)
	}

	exists, err := repo.BranchExists(ctx, targetBranch)
	if err != nil {
		return fmt.Errorf("failed to check branch %s: %w", targetBranch, err)
	}
	if !exists {
		return fmt.Errorf("branch %s not found", targetBranch)
	}

	if err := repo.Fetch(ctx); err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if err := repo.Checkout(ctx, targetBranch); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", targetBranch, err)
	}

	// From here on the active branch has changed; put it back regardless
	// of how the merge and push go.
	restore := func() {
		if originalBranch != targetBranch {
			_ = repo.Checkout(ctx, originalBranch)
		}
	}

	if err := repo.Merge(ctx, sourceBranch); err != nil {
		restore()
		return fmt.Errorf("merge of %s into %s failed: %w", sourceBranch, targetBranch, err)
	}

	if err := repo.Push(ctx, targetBranch); err != nil {
		restore()
		return fmt.Errorf("push of %s failed: %w", targetBranch, err)
	}

	restore()
	return nil
}
