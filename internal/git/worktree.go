package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// RestorePaths resets the given paths, in both the index and the working
// tree, to their content at ref. Paths absent from ref's tree end up
// deleted rather than left at their current content.
func (s *Session) RestorePaths(ctx context.Context, ref string, paths []string) error {
	// Drop the current content first so that files ref does not carry
	// are removed instead of surviving the restore.
	rmArgs := append([]string{"rm", "-r", "-q", "--ignore-unmatch", "--"}, paths...)
	if _, err := s.run(ctx, rmArgs...); err != nil {
		return err
	}

	for _, p := range paths {
		if !s.PathExistsAt(ctx, ref, p) {
			continue
		}
		_, err := s.run(ctx, "restore", "--source="+ref, "--staged", "--worktree", "--", p)
		if err != nil {
			return err
		}
	}
	return nil
}

// HasStagedChanges reports whether the index differs from HEAD.
func (s *Session) HasStagedChanges(ctx context.Context) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--cached", "--quiet")
	cmd.Dir = s.Dir
	return runQuietDiff(cmd)
}

// Commit records the staged changes with the given message. Author and
// committer identity come from the repository configuration.
func (s *Session) Commit(ctx context.Context, message string) error {
	_, err := s.run(ctx, "commit", "--quiet", "-m", message)
	return err
}

// MergePreferLocal merges ref into the current branch, resolving any
// conflicting hunks in favor of the local content. Non-conflicting changes
// from ref merge in normally.
func (s *Session) MergePreferLocal(ctx context.Context, ref, message string) error {
	_, err := s.run(ctx, "merge", "--strategy-option=ours", "--no-edit", "-m", message, ref)
	return err
}

// DiffPathsQuiet reports whether the two refs differ over exactly the given
// path set.
func (s *Session) DiffPathsQuiet(ctx context.Context, a, b string, paths []string) (bool, error) {
	args := append([]string{"diff", "--quiet", a, b, "--"}, paths...)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.Dir
	return runQuietDiff(cmd)
}

// runQuietDiff interprets git's --quiet diff convention: exit 0 means no
// difference, exit 1 means a difference, anything else is a real failure.
func runQuietDiff(cmd *exec.Cmd) (bool, error) {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return false, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}

	msg := strings.TrimSpace(stderr.String())
	if msg != "" {
		return false, fmt.Errorf("git diff: %w: %s", err, msg)
	}
	return false, fmt.Errorf("git diff: %w", err)
}
