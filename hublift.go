// Package hublift provides a minimal public API for running imports
// programmatically.
//
// Most integrations should shell out to the hublift CLI. This package
// exports only the essential types and functions needed for Go programs
// that want to drive an import or read the record database directly.
package hublift

import (
	"context"

	"github.com/hublift/hublift/internal/github"
	"github.com/hublift/hublift/internal/gitrepo"
	"github.com/hublift/hublift/internal/importer"
	"github.com/hublift/hublift/internal/store"
	"github.com/hublift/hublift/internal/store/sqlite"
)

// Core record types
type (
	Project      = store.Project
	User         = store.User
	Label        = store.Label
	Milestone    = store.Milestone
	MergeRequest = store.MergeRequest
	Issue        = store.Issue
	Note         = store.Note
	Release      = store.Release
)

// Store is the record database interface.
type Store = store.Store

// ImportError is one failure record from a run.
type ImportError = importer.Error

// Open opens (creating if necessary) a hublift record database.
func Open(ctx context.Context, dbPath string) (Store, error) {
	return sqlite.New(ctx, dbPath)
}

// RunOptions configures a programmatic import run.
type RunOptions struct {
	// Token is the GitHub access token.
	Token string
	// Owner and Repo name the GitHub repository.
	Owner, Repo string
	// StoragePath is the root directory for git repository storage.
	StoragePath string
	// Releases enables the release import stage.
	Releases bool
}

// Run imports the GitHub repository into project, writing records
// through recordStore. The returned slice holds one entry per item that
// failed; an empty slice means a clean run.
func Run(ctx context.Context, recordStore Store, project *Project, opts RunOptions) []ImportError {
	client := github.NewClient(opts.Token, opts.Owner, opts.Repo)
	repo := gitrepo.New(opts.StoragePath, project.PathWithNamespace())

	return importer.New(project, recordStore, repo, client, importer.Options{
		RepoPath:      client.RepoPath(),
		RemoteURL:     client.RemoteURL(),
		WikiRemoteURL: client.WikiRemoteURL(),
		Releases:      opts.Releases,
	}).Execute(ctx)
}
