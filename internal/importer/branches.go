package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/hublift/hublift/internal/github"
	"github.com/hublift/hublift/internal/gitrepo"
)

// restoredBranches tracks which refs the reconciler created for one
// pull request, so cleanup removes exactly those and nothing else.
type restoredBranches struct {
	source bool
	target bool
}

// restoreBranches makes sure both refs needed to diff the pull request
// exist, creating throwaway branches at the recorded SHAs when absent.
// The remote branch is routinely deleted after merge, so this is the
// only way to materialize the diff. The returned tracker is valid even
// when an error is returned, so cleanup can still run.
func (im *Import) restoreBranches(ctx context.Context, pr *github.PullRequest) (*restoredBranches, error) {
	restored := &restoredBranches{}

	created, err := im.ensureBranch(ctx, pr.Head.Ref, pr.Head.SHA)
	if err != nil {
		return restored, fmt.Errorf("failed to restore source branch %s: %w", pr.Head.Ref, err)
	}
	restored.source = created

	created, err = im.ensureBranch(ctx, pr.Base.Ref, pr.Base.SHA)
	if err != nil {
		return restored, fmt.Errorf("failed to restore target branch %s: %w", pr.Base.Ref, err)
	}
	restored.target = created

	return restored, nil
}

// ensureBranch creates name at sha when missing. Reports whether this
// call created it.
func (im *Import) ensureBranch(ctx context.Context, name, sha string) (bool, error) {
	exists, err := im.repo.BranchExists(ctx, name)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := im.repo.CreateBranch(ctx, name, sha); err != nil {
		return false, err
	}
	return true, nil
}

// cleanupRestoredBranches removes the branches restoreBranches created,
// unless the pull request is still open: branches of open requests are
// real, user-visible branches and stay. Runs whether or not the rest of
// the request's processing succeeded.
func (im *Import) cleanupRestoredBranches(ctx context.Context, pr *github.PullRequest, restored *restoredBranches) {
	if pr.Open() {
		return
	}
	if restored.source {
		im.removeBranch(ctx, pr.Head.Ref)
	}
	if restored.target {
		im.removeBranch(ctx, pr.Base.Ref)
	}
}

// removeBranch deletes a restored branch. A ref that already vanished
// is recorded as a non-fatal warning; either way cleanup of the sibling
// branch proceeds.
func (im *Import) removeBranch(ctx context.Context, name string) {
	if err := im.repo.DeleteBranch(ctx, name); err != nil {
		if errors.Is(err, gitrepo.ErrBranchNotFound) {
			im.recordError(KindBranch, "", fmt.Sprintf("could not clean up restored branch: %s", name))
			return
		}
		im.recordError(KindBranch, "", err.Error())
	}
}
