package core

import (
	"context"
	"fmt"

	"github.com/vkalnins/forksync/internal/config"
	"github.com/vkalnins/forksync/internal/git"
)

// usageErrorf builds a precondition failure. These fire before any mutation.
func usageErrorf(format string, args ...interface{}) *ExitError {
	return &ExitError{Code: ExitUsage, Err: fmt.Errorf(format, args...)}
}

// preflight runs the checks shared by both stages: the working tree and
// index must be clean, and the configured upstream reference must resolve.
func preflight(ctx context.Context, cfg *config.Config, sess *git.Session) error {
	clean, err := sess.IsClean(ctx)
	if err != nil {
		return err
	}
	if !clean {
		return usageErrorf("working tree is not clean; commit or stash your changes first")
	}

	if !sess.RefExists(ctx, cfg.UpstreamRef) {
		return usageErrorf("upstream reference '%s' not found; add the remote and fetch it, or set %s",
			cfg.UpstreamRef, config.UpstreamEnvVar)
	}

	return nil
}

// shortID returns the first 12 characters of a commit ID.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
