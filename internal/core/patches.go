package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// PatchSet is the ordered series of stored patch files. Order is lexical by
// filename and is significant: the files replay as commits in that order.
type PatchSet struct {
	// Dir is the absolute path of the patch directory.
	Dir string

	// Files holds the base names in application order.
	Files []string
}

// LoadPatchSet lists the .patch files under dir. An absent directory or an
// empty set is an error: the workflow has nothing to verify without patches.
func LoadPatchSet(dir string) (*PatchSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read patch directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) == ".patch" {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .patch files in %s", dir)
	}
	sort.Strings(files)

	return &PatchSet{Dir: dir, Files: files}, nil
}

// Snapshot copies the patch files into a fresh temporary directory and
// returns it. Replay always runs from the snapshot, so the stored patches
// cannot be damaged by a run that goes wrong mid-apply.
func (p *PatchSet) Snapshot() (*Snapshot, error) {
	dir, err := os.MkdirTemp("", "forksync-patches-")
	if err != nil {
		return nil, fmt.Errorf("failed to create patch snapshot directory: %w", err)
	}

	snap := &Snapshot{Dir: dir}
	for _, name := range p.Files {
		data, err := os.ReadFile(filepath.Join(p.Dir, name))
		if err != nil {
			snap.Remove()
			return nil, fmt.Errorf("failed to read patch %s: %w", name, err)
		}
		dst := filepath.Join(dir, name)
		if err := os.WriteFile(dst, data, 0644); err != nil {
			snap.Remove()
			return nil, fmt.Errorf("failed to snapshot patch %s: %w", name, err)
		}
		snap.Files = append(snap.Files, dst)
	}
	return snap, nil
}

// Snapshot is a temporary copy of a patch set.
type Snapshot struct {
	// Dir is the temporary directory holding the copies.
	Dir string

	// Files holds the absolute paths of the copies in application order.
	Files []string
}

// Remove deletes the snapshot directory.
func (s *Snapshot) Remove() error {
	return os.RemoveAll(s.Dir)
}
