// Package config holds the synchronization parameters for this fork and the
// stage marker written between the two workflow stages. The parameters are
// hardcoded for this repository/upstream pair; a repo-local TOML file and one
// environment variable can override them so sibling grammar forks can reuse
// the same binary.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	// UpstreamEnvVar overrides the upstream remote/branch reference.
	UpstreamEnvVar = "FORKSYNC_UPSTREAM"

	// OverrideFile is the optional repo-local configuration file.
	OverrideFile = ".forksync.toml"

	defaultUpstreamRef = "upstream/master"
	defaultPatchDir    = "patches"
)

// Config describes one fork's synchronization parameters.
type Config struct {
	// UpstreamRef is the remote-tracking reference being synchronized with.
	UpstreamRef string `toml:"upstream_ref"`

	// PatchDir is the repository-relative directory holding the stored
	// patch files, applied in lexical filename order.
	PatchDir string `toml:"patch_dir"`

	// DownstreamPaths is the fixed allow-list of fork-owned paths. Only
	// these paths are ever reverted or diffed by the workflow.
	DownstreamPaths []string `toml:"downstream_paths"`

	// VerifyBranch is the disposable branch stage 1 replays patches on.
	VerifyBranch string `toml:"verify_branch"`

	// TargetBranch marks stage-1 completion; stage 2 runs on it.
	TargetBranch string `toml:"target_branch"`
}

// Default returns the hardcoded parameters for this fork.
func Default() *Config {
	return &Config{
		UpstreamRef: defaultUpstreamRef,
		PatchDir:    defaultPatchDir,
		DownstreamPaths: []string{
			"grammar.js",
			"src/scanner.c",
			"queries",
			"test/corpus",
		},
		VerifyBranch: "forksync/verify",
		TargetBranch: "forksync/merge",
	}
}

// Load builds the effective configuration for the repository at repoDir:
// hardcoded defaults, then the optional override file, then the environment
// variable. A missing override file is not an error.
func Load(repoDir string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(repoDir, OverrideFile))
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", OverrideFile, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read %s: %w", OverrideFile, err)
	}

	if ref := os.Getenv(UpstreamEnvVar); ref != "" {
		cfg.UpstreamRef = ref
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.UpstreamRef == "" {
		return fmt.Errorf("upstream reference cannot be empty")
	}
	if c.PatchDir == "" {
		return fmt.Errorf("patch directory cannot be empty")
	}
	if len(c.DownstreamPaths) == 0 {
		return fmt.Errorf("downstream path list cannot be empty")
	}
	if c.VerifyBranch == c.TargetBranch {
		return fmt.Errorf("verify branch and target branch must differ")
	}
	return nil
}
