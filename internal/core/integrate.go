package core

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vkalnins/forksync/internal/config"
	"github.com/vkalnins/forksync/internal/git"
)

// IntegrateResult describes a successful stage-2 run.
type IntegrateResult struct {
	StartBranch      string
	UpstreamCommit   string
	UpstreamDescribe string
	PatchCount       int
}

// Integrate runs stage 2 on the target branch produced by Verify: merge the
// upstream head while preferring local content on conflicting hunks, reset
// the downstream-owned paths to the upstream state, and replay the stored
// patches on top. Replay conflicts are not auto-resolved; the repository is
// left mid-application for the operator.
func Integrate(ctx context.Context, cfg *config.Config, sess *git.Session) (*IntegrateResult, error) {
	if err := preflight(ctx, cfg, sess); err != nil {
		return nil, err
	}

	current, err := sess.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	if current != cfg.TargetBranch {
		return nil, usageErrorf("integration must run on branch '%s' (currently on '%s')",
			cfg.TargetBranch, current)
	}

	gitDir, err := sess.GitDir(ctx)
	if err != nil {
		return nil, err
	}
	marker, err := config.LoadMarker(gitDir)
	if err != nil {
		return nil, err
	}
	if marker == nil {
		return nil, usageErrorf(
			"no stage marker found: branch '%s' was not produced by a verification run; delete it and run forksync from the fork branch",
			cfg.TargetBranch)
	}

	// The marker must describe this branch: the merge-base against the
	// upstream commit it recorded has to match what it verified.
	base, err := sess.MergeBase(ctx, "HEAD", marker.UpstreamCommit)
	if err != nil {
		return nil, usageErrorf(
			"stage marker no longer matches the repository (upstream commit %s unreachable); re-run verification",
			shortID(marker.UpstreamCommit))
	}
	if base != marker.MergeBase {
		return nil, usageErrorf(
			"stage marker no longer matches branch '%s' (merge-base moved since verification); delete the branch and re-run verification",
			cfg.TargetBranch)
	}

	upstream, err := sess.RevParse(ctx, cfg.UpstreamRef)
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

	describe, err := sess.Describe(ctx, upstream)
	if err != nil {
		describe = shortID(upstream)
	}

	mergeMsg := fmt.Sprintf("Merge upstream %s", describe)
	if err := sess.MergePreferLocal(ctx, cfg.UpstreamRef, mergeMsg); err != nil {
		snap.Remove()
		return nil, err
	}

	if err := sess.RestorePaths(ctx, upstream, cfg.DownstreamPaths); err != nil {
		snap.Remove()
		return nil, err
	}
	staged, err := sess.HasStagedChanges(ctx)
	if err != nil {
		snap.Remove()
		return nil, err
	}
	if staged {
		msg := fmt.Sprintf("Reset downstream paths to upstream %s", describe)
		if err := sess.Commit(ctx, msg); err != nil {
			snap.Remove()
			return nil, err
		}
	}

	if err := sess.ApplyMailbox(ctx, snap.Files); err != nil {
		// Conflicts here are expected when upstream moved under the
		// patches. The operator resolves them in place.
		return nil, &ExitError{
			Code: ExitReplay,
			Err:  fmt.Errorf("replay against upstream %s stopped: %w", describe, err),
			Remediation: []string{
				"# resolve the conflicts, then continue the application:",
				"git status",
				"git am --continue",
				"# repeat until every patch is applied, then regenerate the stored patches:",
				fmt.Sprintf("rm -f %s/*.patch", cfg.PatchDir),
				fmt.Sprintf("git format-patch --output-directory %s %s", cfg.PatchDir, shortID(upstream)),
				fmt.Sprintf("git add %s && git commit -m 'Regenerate upstream patches'", cfg.PatchDir),
				"# the stage marker is consumed by hand once integration is finished:",
				"rm " + filepath.Join(gitDir, config.MarkerFile),
				"# pristine patch snapshot kept at " + snap.Dir,
			},
		}
	}

	if err := snap.Remove(); err != nil {
		return nil, fmt.Errorf("failed to remove patch snapshot: %w", err)
	}
	if err := config.RemoveMarker(gitDir); err != nil {
		return nil, err
	}

	return &IntegrateResult{
		StartBranch:      marker.StartBranch,
		UpstreamCommit:   upstream,
		UpstreamDescribe: describe,
		PatchCount:       len(patches.Files),
	}, nil
}
