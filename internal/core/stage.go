package core

import "github.com/vkalnins/forksync/internal/config"

// Stage identifies which half of the workflow a run performs.
type Stage int

const (
	// StageVerify proves the stored patches reconstruct the fork's
	// downstream state from the merge-base with upstream.
	StageVerify Stage = iota

	// StageIntegrate merges the newer upstream commit and replays the
	// verified patches on top.
	StageIntegrate
)

func (s Stage) String() string {
	switch s {
	case StageVerify:
		return "verify"
	case StageIntegrate:
		return "integrate"
	default:
		return "unknown"
	}
}

// DetectStage returns the stage implied by the checked-out branch: being on
// the target branch means a prior run completed verification, so the next
// run integrates. Everything else verifies.
func DetectStage(currentBranch string, cfg *config.Config) Stage {
	if currentBranch == cfg.TargetBranch {
		return StageIntegrate
	}
	return StageVerify
}
