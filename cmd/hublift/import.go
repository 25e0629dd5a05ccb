package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hublift/hublift/internal/config"
	"github.com/hublift/hublift/internal/github"
	"github.com/hublift/hublift/internal/gitrepo"
	"github.com/hublift/hublift/internal/importer"
	"github.com/hublift/hublift/internal/store"
	"github.com/hublift/hublift/internal/store/sqlite"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Run an import of the configured GitHub repository",
	Long: `Runs the full import pipeline: repository mirror, labels, milestones,
pull requests with their comments and diff branches, issues, optionally
releases, and the wiki. Re-running is safe; items already imported are
skipped.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().String("repo", "", "GitHub repository (owner/name)")
	importCmd.Flags().String("token", "", "GitHub access token (or HUBLIFT_TOKEN)")
	importCmd.Flags().String("project", "", "Local project path (namespace/name, default: same as repo)")
	importCmd.Flags().String("data-dir", "", "Data directory for the database and git storage")
	importCmd.Flags().String("api-endpoint", "", "GitHub API base URL (for GitHub Enterprise)")
	importCmd.Flags().Duration("timeout", 0, "Per-request API timeout")
	importCmd.Flags().Bool("releases", false, "Also import releases")

	rootCmd.AddCommand(importCmd)
}

// resolveConfig layers flags and HUBLIFT_* environment variables over
// the config file. Flags win over environment, environment over file.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("HUBLIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"repo", "token", "project", "data-dir", "api-endpoint", "timeout", "releases"} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(key)); err != nil {
			return nil, err
		}
	}

	if s := v.GetString("repo"); s != "" {
		cfg.Repo = s
	}
	if s := v.GetString("token"); s != "" {
		cfg.Token = s
	}
	if s := v.GetString("project"); s != "" {
		cfg.Project = s
	}
	if s := v.GetString("data-dir"); s != "" {
		cfg.DataDir = s
	}
	if s := v.GetString("api-endpoint"); s != "" {
		cfg.APIEndpoint = s
	}
	if d := v.GetDuration("timeout"); d != 0 {
		cfg.Timeout = config.Duration(d)
	}
	if v.GetBool("releases") {
		cfg.Releases = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	recordStore, err := sqlite.New(ctx, cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = recordStore.Close() }()

	project, err := ensureProject(ctx, recordStore, cfg)
	if err != nil {
		return err
	}

	owner, name, _ := splitRepo(cfg.Repo)
	client := github.NewClient(cfg.Token, owner, name)
	if cfg.APIEndpoint != "" {
		client = client.WithBaseURL(cfg.APIEndpoint)
	}
	if cfg.Timeout != 0 {
		client = client.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Timeout)})
	}

	repo := gitrepo.New(cfg.RepoStoragePath(), project.PathWithNamespace())

	opts := importer.Options{
		RepoPath:      client.RepoPath(),
		RemoteURL:     client.RemoteURL(),
		WikiRemoteURL: client.WikiRemoteURL(),
		Releases:      cfg.Releases,
	}

	start := time.Now()
	errs := importer.New(project, recordStore, repo, client, opts).Execute(ctx)

	// A run with failed items is still a completed run. The command
	// fails only on orchestration faults above, never on the ledger.
	return reportResult(os.Stdout, cfg.Repo, errs, start)
}

// ensureProject returns the target project, creating it together with a
// bootstrap owner account on first run.
func ensureProject(ctx context.Context, recordStore store.Store, cfg *config.Config) (*store.Project, error) {
	namespace, name := cfg.ProjectPath()

	project, err := recordStore.ProjectByPath(ctx, namespace, name)
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("looking up project: %w", err)
	}

	ownerID, err := ensureOwner(ctx, recordStore)
	if err != nil {
		return nil, err
	}

	project = &store.Project{Namespace: namespace, Name: name, CreatorID: ownerID}
	if err := recordStore.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	if !quietFlag && !jsonOutput {
		fmt.Printf("Created project %s\n", project.PathWithNamespace())
	}
	return project, nil
}

// ensureOwner finds or creates the local account that owns imported
// records whose remote author has no local match.
func ensureOwner(ctx context.Context, recordStore store.Store) (int64, error) {
	if email := ownerEmail(); email != "" {
		if id, err := recordStore.UserByAnyEmail(ctx, email); err == nil {
			return id, nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return 0, fmt.Errorf("looking up owner: %w", err)
		}
	}

	owner := &store.User{
		Username: ownerUsername(),
		Email:    ownerEmail(),
	}
	if err := recordStore.CreateUser(ctx, owner); err != nil {
		return 0, fmt.Errorf("creating owner account: %w", err)
	}
	return owner.ID, nil
}

func splitRepo(repoPath string) (owner, name string, ok bool) {
	parts := strings.SplitN(repoPath, "/", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
