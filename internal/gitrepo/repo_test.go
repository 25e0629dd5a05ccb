package gitrepo

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// newSourceRepo creates a non-bare repository with one commit and
// returns its path and head SHA.
func newSourceRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	run := func(args ...string) string {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
		return strings.TrimSpace(string(out))
	}

	run("init", "--quiet", "--initial-branch=master", ".")
	run("commit", "--allow-empty", "-m", "initial")
	sha := run("rev-parse", "HEAD")
	return dir, sha
}

func TestCreateIsIdempotent(t *testing.T) {
	repo := New(t.TempDir(), "acme/widgets")
	ctx := context.Background()

	if err := repo.Create(ctx); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !repo.Exists() {
		t.Fatal("Exists() = false after Create")
	}
	if err := repo.Create(ctx); err != nil {
		t.Fatalf("second Create: %v", err)
	}
}

func TestMirrorFetchAndBranches(t *testing.T) {
	source, sha := newSourceRepo(t)
	repo := New(t.TempDir(), "acme/widgets")
	ctx := context.Background()

	if err := repo.Create(ctx); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.AddMirrorRemote(ctx, "github", source); err != nil {
		t.Fatalf("AddMirrorRemote: %v", err)
	}
	// Re-registering the same remote updates the URL instead of failing.
	if err := repo.AddMirrorRemote(ctx, "github", source); err != nil {
		t.Fatalf("AddMirrorRemote twice: %v", err)
	}
	if err := repo.FetchRemote(ctx, "github", true); err != nil {
		t.Fatalf("FetchRemote: %v", err)
	}

	exists, err := repo.BranchExists(ctx, "master")
	if err != nil {
		t.Fatalf("BranchExists: %v", err)
	}
	if !exists {
		t.Error("BranchExists(master) = false after mirror fetch")
	}

	if err := repo.CreateBranch(ctx, "feature", sha); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	exists, err = repo.BranchExists(ctx, "feature")
	if err != nil {
		t.Fatalf("BranchExists: %v", err)
	}
	if !exists {
		t.Error("BranchExists(feature) = false after CreateBranch")
	}

	if err := repo.DeleteBranch(ctx, "feature"); err != nil {
		t.Fatalf("DeleteBranch: %v", err)
	}
	exists, err = repo.BranchExists(ctx, "feature")
	if err != nil {
		t.Fatalf("BranchExists: %v", err)
	}
	if exists {
		t.Error("BranchExists(feature) = true after DeleteBranch")
	}
}

func TestDeleteMissingBranch(t *testing.T) {
	repo := New(t.TempDir(), "acme/widgets")
	ctx := context.Background()

	if err := repo.Create(ctx); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.DeleteBranch(ctx, "never-existed")
	if !errors.Is(err, ErrBranchNotFound) {
		t.Errorf("DeleteBranch = %v, want ErrBranchNotFound", err)
	}
}

func TestImportWiki(t *testing.T) {
	source, _ := newSourceRepo(t)
	repo := New(t.TempDir(), "acme/widgets")
	ctx := context.Background()

	if repo.WikiExists() {
		t.Fatal("WikiExists() = true before import")
	}
	if err := repo.ImportWiki(ctx, source); err != nil {
		t.Fatalf("ImportWiki: %v", err)
	}
	if !repo.WikiExists() {
		t.Error("WikiExists() = false after import")
	}
}

func TestInvalidateContentCache(t *testing.T) {
	repo := New(t.TempDir(), "acme/widgets")
	ctx := context.Background()

	if err := repo.Create(ctx); err != nil {
		t.Fatalf("Create: %v", err)
	}
	cacheDir := repo.contentCacheDir()
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		t.Fatalf("mkdir cache: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cacheDir, "readme.html"), []byte("stale"), 0o644); err != nil {
		t.Fatalf("write cache file: %v", err)
	}

	if err := repo.InvalidateContentCache(); err != nil {
		t.Fatalf("InvalidateContentCache: %v", err)
	}
	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Error("content cache dir still present after invalidation")
	}
}
