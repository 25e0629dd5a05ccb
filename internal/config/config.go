// Package config loads the hublift configuration file. Flags and
// HUBLIFT_* environment variables layer on top of it; the file holds
// the durable settings a run needs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const ConfigFileName = "hublift.yaml"

// Duration reads and writes "30s" style strings in yaml.
type Duration time.Duration

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the on-disk configuration.
type Config struct {
	// Repo is the GitHub repository coordinate, "owner/name".
	Repo string `yaml:"repo"`

	// Token is the GitHub access token. Usually left empty here and
	// supplied via HUBLIFT_TOKEN instead; tokens in files leak.
	Token string `yaml:"token,omitempty"`

	// APIEndpoint overrides the GitHub API base URL, for GitHub
	// Enterprise installs. Empty means api.github.com.
	APIEndpoint string `yaml:"api_endpoint,omitempty"`

	// Project is the local project path, "namespace/name". Empty means
	// reuse the repo coordinate.
	Project string `yaml:"project,omitempty"`

	// DataDir holds the record database and the git repository storage.
	DataDir string `yaml:"data_dir,omitempty"`

	// Timeout bounds each API request. Zero means the client default.
	Timeout Duration `yaml:"timeout,omitempty"`

	// Releases enables the release import stage.
	Releases bool `yaml:"releases,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DataDir: ".hublift",
	}
}

// Path returns the config file path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}

// Load reads the config file from dir. A missing file is not an error;
// the defaults are returned.
func Load(dir string) (*Config, error) {
	data, err := os.ReadFile(Path(dir)) // #nosec G304 - controlled path
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes the config file into dir.
func (c *Config) Save(dir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(Path(dir), data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks the settings an import run cannot do without.
func (c *Config) Validate() error {
	if c.Repo == "" {
		return fmt.Errorf("repo is required (owner/name)")
	}
	if owner, name, ok := splitPath(c.Repo); !ok || owner == "" || name == "" {
		return fmt.Errorf("invalid repo %q: want owner/name", c.Repo)
	}
	if c.Token == "" {
		return fmt.Errorf("token is required (set HUBLIFT_TOKEN or the token key)")
	}
	if c.Project != "" {
		if ns, name, ok := splitPath(c.Project); !ok || ns == "" || name == "" {
			return fmt.Errorf("invalid project %q: want namespace/name", c.Project)
		}
	}
	return nil
}

// ProjectPath returns the local project coordinate, falling back to the
// repo coordinate when none is configured.
func (c *Config) ProjectPath() (namespace, name string) {
	path := c.Project
	if path == "" {
		path = c.Repo
	}
	namespace, name, _ = splitPath(path)
	return namespace, name
}

// DatabasePath returns the record database location under DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "hublift.db")
}

// RepoStoragePath returns the git repository storage root under DataDir.
func (c *Config) RepoStoragePath() string {
	return filepath.Join(c.DataDir, "repositories")
}

func splitPath(path string) (first, second string, ok bool) {
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
