package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultVoting().Weights, cfg.Voting.Weights)
	assert.InDelta(t, 10.0, cfg.Voting.EscalationThreshold, 1e-9)
	assert.False(t, cfg.Voting.AllowDuplicateVotes)
	assert.Equal(t, 15*time.Minute, cfg.Voting.ReconcileInterval)
	assert.Equal(t, 1000, cfg.Realtime.QueueSize)
	assert.Equal(t, "wardwatch:events", cfg.Redis.Channel)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("VOTE_WEIGHT_OTHER_WARD_RESIDENT", "0.25")
	t.Setenv("VOTE_ALLOW_DUPLICATES", "true")
	t.Setenv("VOTE_ESCALATION_THRESHOLD", "3.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 0.25, cfg.Voting.Weights.OtherWardResident, 1e-9)
	assert.True(t, cfg.Voting.AllowDuplicateVotes)
	assert.InDelta(t, 3.5, cfg.Voting.EscalationThreshold, 1e-9)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
voting:
  escalation_threshold: 4
  weights:
    community_leader: 2.5
realtime:
  workers: 2
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 4.0, cfg.Voting.EscalationThreshold, 1e-9)
	assert.InDelta(t, 2.5, cfg.Voting.Weights.CommunityLeader, 1e-9)
	assert.Equal(t, 2, cfg.Realtime.Workers)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestVotingValidate(t *testing.T) {
	v := DefaultVoting()
	require.NoError(t, v.Validate())

	v.Weights.Staff = -1
	v.EscalationThreshold = 0
	err := v.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "voting.weights.staff")
	assert.Contains(t, err.Error(), "escalation_threshold")
}
