// Package git drives the git command-line tool against a single repository
// checkout. Every operation shells out to the git binary with the working
// directory pinned to the session's repository, so nothing depends on the
// ambient process directory and tests can run against isolated fixture
// repositories.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Session is an exclusive handle on one repository checkout. Concurrent runs
// against the same checkout are not supported.
type Session struct {
	// Dir is the directory git runs in. It may be any directory inside
	// the repository; use Toplevel to re-root at the working tree root.
	Dir string
}

// NewSession returns a session rooted at dir.
func NewSession(dir string) *Session {
	return &Session{Dir: dir}
}

// run executes git with the given arguments and returns trimmed stdout.
// Stderr of a failed command is folded into the returned error.
func (s *Session) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Toplevel returns the absolute path of the working tree root.
func (s *Session) Toplevel(ctx context.Context) (string, error) {
	return s.run(ctx, "rev-parse", "--show-toplevel")
}

// GitDir returns the absolute path of the repository's git directory.
func (s *Session) GitDir(ctx context.Context) (string, error) {
	return s.run(ctx, "rev-parse", "--absolute-git-dir")
}

// IsClean reports whether the working tree and index have no changes and no
// untracked files.
func (s *Session) IsClean(ctx context.Context) (bool, error) {
	out, err := s.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out == "", nil
}

// CurrentBranch returns the checked-out branch name, or "" for detached HEAD.
func (s *Session) CurrentBranch(ctx context.Context) (string, error) {
	return s.run(ctx, "branch", "--show-current")
}
