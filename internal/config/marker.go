package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// MarkerFile is the stage marker written into the git directory when stage 1
// succeeds. Stage 2 refuses to run without it, so a hand-created target
// branch cannot skip verification.
const MarkerFile = "forksync-state.toml"

// Marker records what stage 1 verified.
type Marker struct {
	// UpstreamCommit is the upstream head at verification time.
	UpstreamCommit string `toml:"upstream_commit"`

	// MergeBase is the common ancestor the patches were verified against.
	MergeBase string `toml:"merge_base"`

	// StartBranch is the fork branch stage 1 ran from.
	StartBranch string `toml:"start_branch"`

	// VerifiedAt is when stage 1 completed.
	VerifiedAt time.Time `toml:"verified_at"`
}

func markerPath(gitDir string) string {
	return filepath.Join(gitDir, MarkerFile)
}

// LoadMarker reads the stage marker from gitDir. A missing marker returns
// (nil, nil): the caller decides whether that is an error.
func LoadMarker(gitDir string) (*Marker, error) {
	data, err := os.ReadFile(markerPath(gitDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stage marker: %w", err)
	}

	var m Marker
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse stage marker: %w", err)
	}
	return &m, nil
}

// Save writes the stage marker into gitDir.
func (m *Marker) Save(gitDir string) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal stage marker: %w", err)
	}
	return os.WriteFile(markerPath(gitDir), data, 0644)
}

// RemoveMarker deletes the stage marker. Removing an absent marker is not an
// error.
func RemoveMarker(gitDir string) error {
	err := os.Remove(markerPath(gitDir))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stage marker: %w", err)
	}
	return nil
}
