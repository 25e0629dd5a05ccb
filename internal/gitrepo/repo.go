// Package gitrepo drives the local git storage for imported projects.
//
// Each project owns a bare repository under a common storage root; the
// companion wiki, when imported, lives next to it with a ".wiki.git"
// suffix. All operations shell out to the git binary.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrBranchNotFound is returned when deleting a branch whose ref no
// longer exists. Callers treat this as a non-fatal cleanup condition.
var ErrBranchNotFound = errors.New("branch not found")

// ErrRepositoryNotExported is returned when a remote repository exists
// in name only and has never been populated. GitHub wikis behave this
// way when the wiki feature is enabled but no page was ever written.
var ErrRepositoryNotExported = errors.New("repository not exported")

// Repository is the git storage of one project.
type Repository struct {
	storagePath string // Root directory holding all project repositories
	path        string // Project path, e.g. "namespace/name"
}

// New returns the repository handle for a project path under the
// storage root. Nothing is touched on disk until Create.
func New(storagePath, path string) *Repository {
	return &Repository{storagePath: storagePath, path: path}
}

// Dir returns the on-disk location of the bare repository.
func (r *Repository) Dir() string {
	return filepath.Join(r.storagePath, r.path+".git")
}

// wikiDir returns the on-disk location of the companion wiki repository.
func (r *Repository) wikiDir() string {
	return filepath.Join(r.storagePath, r.path+".wiki.git")
}

// git runs a git command against the bare repository and returns its
// combined output.
func (r *Repository) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", r.Dir()}, args...)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// Exists reports whether the bare repository has been created.
func (r *Repository) Exists() bool {
	info, err := os.Stat(r.Dir())
	return err == nil && info.IsDir()
}

// Create initializes the bare repository. Creating an existing
// repository is a no-op.
func (r *Repository) Create(ctx context.Context) error {
	if r.Exists() {
		return nil
	}
	if err := os.MkdirAll(r.Dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create repository directory: %w", err)
	}
	cmd := exec.CommandContext(ctx, "git", "init", "--bare", "--quiet", r.Dir())
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git init: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// AddMirrorRemote registers url as a mirror-type fetch remote. If the
// remote already exists its URL is updated instead.
func (r *Repository) AddMirrorRemote(ctx context.Context, name, url string) error {
	if _, err := r.git(ctx, "remote", "add", "--mirror=fetch", name, url); err != nil {
		if _, seturlErr := r.git(ctx, "remote", "set-url", name, url); seturlErr != nil {
			return err
		}
	}
	return nil
}

// FetchRemote fetches all refs from the named remote. With forced set,
// non-fast-forward ref updates are accepted.
func (r *Repository) FetchRemote(ctx context.Context, name string, forced bool) error {
	args := []string{"fetch", "--quiet", "--prune", "--tags", name}
	if forced {
		args = append(args, "--force")
	}
	_, err := r.git(ctx, args...)
	return err
}

// BranchExists reports whether refs/heads/name exists.
func (r *Repository) BranchExists(ctx context.Context, name string) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", r.Dir(),
		"show-ref", "--verify", "--quiet", "refs/heads/"+name)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, fmt.Errorf("git show-ref: %w", err)
	}
	return true, nil
}

// CreateBranch points refs/heads/name at the given commit SHA.
func (r *Repository) CreateBranch(ctx context.Context, name, sha string) error {
	_, err := r.git(ctx, "branch", name, sha)
	return err
}

// DeleteBranch removes refs/heads/name. Deleting a branch that no
// longer exists returns ErrBranchNotFound.
func (r *Repository) DeleteBranch(ctx context.Context, name string) error {
	exists, err := r.BranchExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrBranchNotFound, name)
	}
	_, err = r.git(ctx, "branch", "-D", name)
	return err
}

// WikiExists reports whether the companion wiki repository has been
// created locally.
func (r *Repository) WikiExists() bool {
	info, err := os.Stat(r.wikiDir())
	return err == nil && info.IsDir()
}

// ImportWiki mirror-clones the companion wiki from sourceURL. A remote
// that was never populated surfaces as ErrRepositoryNotExported.
func (r *Repository) ImportWiki(ctx context.Context, sourceURL string) error {
	cmd := exec.CommandContext(ctx, "git", "clone", "--mirror", "--quiet", sourceURL, r.wikiDir())
	out, err := cmd.CombinedOutput()
	if err != nil {
		if strings.Contains(string(out), "repository not exported") {
			return fmt.Errorf("%w: %s", ErrRepositoryNotExported, sourceURL)
		}
		return fmt.Errorf("git clone: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// contentCacheDir is where rendered repository content is cached.
func (r *Repository) contentCacheDir() string {
	return filepath.Join(r.Dir(), "info", "content-cache")
}

// InvalidateContentCache drops any cached rendering of repository
// content so subsequent reads reflect freshly imported refs.
func (r *Repository) InvalidateContentCache() error {
	if err := os.RemoveAll(r.contentCacheDir()); err != nil {
		return fmt.Errorf("failed to invalidate content cache: %w", err)
	}
	return nil
}
