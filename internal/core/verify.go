package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/vkalnins/forksync/internal/config"
	"github.com/vkalnins/forksync/internal/git"
)

// VerifyResult describes a successful stage-1 run.
type VerifyResult struct {
	StartBranch      string
	UpstreamCommit   string
	UpstreamDescribe string
	MergeBase        string
	PatchCount       int
}

// Verify runs stage 1: on a disposable branch, revert the downstream-owned
// paths to the merge-base with upstream, replay the stored patches, and
// check that the result matches the fork branch over exactly that path set.
// On success the repository is left on the newly created target branch with
// a stage marker recorded, and no scratch branches or temporary files
// remain.
func Verify(ctx context.Context, cfg *config.Config, sess *git.Session) (*VerifyResult, error) {
	if err := preflight(ctx, cfg, sess); err != nil {
		return nil, err
	}

	if sess.BranchExists(ctx, cfg.TargetBranch) {
		return nil, usageErrorf(
			"branch '%s' already exists: verification has already run; switch to it to integrate, or delete it with 'git branch -D %s' to verify again",
			cfg.TargetBranch, cfg.TargetBranch)
	}
	if sess.BranchExists(ctx, cfg.VerifyBranch) {
		return nil, usageErrorf(
			"leftover branch '%s' from an earlier run; inspect it, then delete it with 'git branch -D %s'",
			cfg.VerifyBranch, cfg.VerifyBranch)
	}

	start, err := sess.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	if start == "" {
		return nil, usageErrorf("HEAD is detached; switch to the fork branch before running forksync")
	}

	upstream, err := sess.RevParse(ctx, cfg.UpstreamRef)
	if err != nil {
		return nil, err
	}
	base, err := sess.MergeBase(ctx, "HEAD", cfg.UpstreamRef)
	if err != nil {
		return nil, err
	}

	patches, err := LoadPatchSet(filepath.Join(sess.Dir, cfg.PatchDir))
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: err}
	}
	snap, err := patches.Snapshot()
	if err != nil {
		return nil, err
	}

	// Everything past this point mutates the repository.
	if err := sess.SwitchCreate(ctx, cfg.VerifyBranch); err != nil {
		snap.Remove()
		return nil, err
	}

	if err := sess.RestorePaths(ctx, base, cfg.DownstreamPaths); err != nil {
		snap.Remove()
		return nil, err
	}
	staged, err := sess.HasStagedChanges(ctx)
	if err != nil {
		snap.Remove()
		return nil, err
	}
	if staged {
		msg := fmt.Sprintf("Revert downstream paths to merge-base %s", shortID(base))
		if err := sess.Commit(ctx, msg); err != nil {
			snap.Remove()
			return nil, err
		}
	}

	if err := sess.ApplyMailbox(ctx, snap.Files); err != nil {
		// The partially applied state and the snapshot stay in place
		// for inspection.
		return nil, &ExitError{
			Code: ExitReplay,
			Err:  fmt.Errorf("replay failed on branch '%s': %w", cfg.VerifyBranch, err),
			Remediation: []string{
				"# inspect the failed application, then clean up:",
				"git am --abort",
				"git switch " + start,
				"git branch -D " + cfg.VerifyBranch,
				"# pristine patch snapshot kept at " + snap.Dir,
			},
		}
	}

	changed, err := sess.DiffPathsQuiet(ctx, start, cfg.VerifyBranch, cfg.DownstreamPaths)
	if err != nil {
		snap.Remove()
		return nil, err
	}
	if changed {
		// The verification branch stays for inspection.
		snap.Remove()
		return nil, &ExitError{
			Code: ExitStale,
			Err: fmt.Errorf("stored patches are stale: replaying them does not reproduce branch '%s'",
				start),
			Remediation: []string{
				"# inspect the residual delta:",
				fmt.Sprintf("git diff %s %s -- %s", start, cfg.VerifyBranch, strings.Join(cfg.DownstreamPaths, " ")),
				"# then regenerate the stored patches:",
				"git switch " + start,
				"git branch -D " + cfg.VerifyBranch,
				fmt.Sprintf("rm -f %s/*.patch", cfg.PatchDir),
				fmt.Sprintf("git format-patch --output-directory %s %s", cfg.PatchDir, shortID(base)),
				fmt.Sprintf("git add %s && git commit -m 'Regenerate upstream patches'", cfg.PatchDir),
			},
		}
	}

	// Patches check out. Clean up the scratch state and mark success.
	if err := sess.Switch(ctx, start); err != nil {
		snap.Remove()
		return nil, err
	}
	if err := sess.DeleteBranch(ctx, cfg.VerifyBranch); err != nil {
		snap.Remove()
		return nil, err
	}
	if err := snap.Remove(); err != nil {
		return nil, fmt.Errorf("failed to remove patch snapshot: %w", err)
	}

	if err := sess.SwitchCreate(ctx, cfg.TargetBranch); err != nil {
		return nil, err
	}

	gitDir, err := sess.GitDir(ctx)
	if err != nil {
		return nil, err
	}
	marker := &config.Marker{
		UpstreamCommit: upstream,
		MergeBase:      base,
		StartBranch:    start,
		VerifiedAt:     time.Now().UTC(),
	}
	if err := marker.Save(gitDir); err != nil {
		return nil, err
	}

	describe, err := sess.Describe(ctx, upstream)
	if err != nil {
		describe = shortID(upstream)
	}

	return &VerifyResult{
		StartBranch:      start,
		UpstreamCommit:   upstream,
		UpstreamDescribe: describe,
		MergeBase:        base,
		PatchCount:       len(patches.Files),
	}, nil
}
