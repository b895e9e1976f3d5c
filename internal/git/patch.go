package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ReplayError reports a failed mailbox application. The repository is left
// mid-am so the operator can inspect and resolve it; Output carries git's
// own diagnosis of which patch stopped and why.
type ReplayError struct {
	Output string
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("patch application stopped: %s", e.Output)
}

// ApplyMailbox replays the given patch files, in order, as commits on the
// current branch using three-way application. On failure the partially
// applied state is left untouched and a *ReplayError is returned.
func (s *Session) ApplyMailbox(ctx context.Context, patches []string) error {
	args := append([]string{"am", "--3way"}, patches...)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		out := strings.TrimSpace(stderr.String())
		if out == "" {
			out = strings.TrimSpace(stdout.String())
		}
		if out == "" {
			out = err.Error()
		}
		return &ReplayError{Output: out}
	}
	return nil
}
