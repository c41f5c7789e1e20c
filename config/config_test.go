package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConstants(t *testing.T) {
	c := DefaultConstants()
	assert.Equal(t, uint64(500), c.NameCost)
	assert.Equal(t, uint64(100), c.MinWork)
	assert.Equal(t, uint64(100000), c.MaxWork)
	assert.Equal(t, 0.025, c.WorkFactor)
	assert.Equal(t, 60, c.SecondsPerBlock)
	assert.Equal(t, "t", c.AddressPrefix)
}

func TestLoadMiningForcesStakingOff(t *testing.T) {
	t.Setenv("MINING_ENABLED", "true")
	t.Setenv("STAKING_ENABLED", "true")

	c := Load()

	assert.True(t, c.MiningEnabled)
	assert.False(t, c.StakingEnabled)
}

func TestLoadStakingHonouredWhenMiningOff(t *testing.T) {
	t.Setenv("MINING_ENABLED", "false")
	t.Setenv("STAKING_ENABLED", "true")

	c := Load()

	assert.False(t, c.MiningEnabled)
	assert.True(t, c.StakingEnabled)
}

func TestLoadFreeNonceSubmissionDisabledInProduction(t *testing.T) {
	t.Setenv("NODE_ENV", "production")
	t.Setenv("FREE_NONCE_SUBMISSION", "true")

	c := Load()

	assert.False(t, c.FreeNonceSubmission)
}

func TestLoadFreeNonceSubmissionHonouredOutsideProduction(t *testing.T) {
	t.Setenv("NODE_ENV", "development")
	t.Setenv("FREE_NONCE_SUBMISSION", "true")

	c := Load()

	assert.True(t, c.FreeNonceSubmission)
}

func TestLoadValidatorPenaltyDefaultsToNameCost(t *testing.T) {
	c := Load()
	assert.Equal(t, c.NameCost, c.ValidatorPenalty)
}

func TestLoadValidatorPenaltyOverride(t *testing.T) {
	t.Setenv("VALIDATOR_PENALTY", "750")
	c := Load()
	assert.Equal(t, uint64(750), c.ValidatorPenalty)
}
