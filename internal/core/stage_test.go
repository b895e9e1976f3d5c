package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vkalnins/forksync/internal/config"
)

func TestDetectStage(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		name   string
		branch string
		want   Stage
	}{
		{"fork branch", "main", StageVerify},
		{"master", "master", StageVerify},
		{"detached head", "", StageVerify},
		{"verify scratch branch", cfg.VerifyBranch, StageVerify},
		{"target branch", cfg.TargetBranch, StageIntegrate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectStage(tt.branch, cfg))
		})
	}
}

func TestDetectStage_CustomTargetBranch(t *testing.T) {
	cfg := config.Default()
	cfg.TargetBranch = "sync/ready"

	assert.Equal(t, StageIntegrate, DetectStage("sync/ready", cfg))
	assert.Equal(t, StageVerify, DetectStage("forksync/merge", cfg))
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "verify", StageVerify.String())
	assert.Equal(t, "integrate", StageIntegrate.String())
	assert.Equal(t, "unknown", Stage(99).String())
}
