package faststate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeedsWorkToMaxWork(t *testing.T) {
	fs := New(100000, true, false)
	assert.Equal(t, uint64(100000), fs.Work())
	assert.Equal(t, "", fs.Validator())
}

func TestMiningStakingMutualExclusion(t *testing.T) {
	fs := New(100000, true, false)
	require.True(t, fs.MiningEnabled())
	require.False(t, fs.StakingEnabled())

	fs.SetStakingEnabled(true)
	assert.True(t, fs.StakingEnabled())
	assert.False(t, fs.MiningEnabled())

	fs.SetMiningEnabled(true)
	assert.True(t, fs.MiningEnabled())
	assert.False(t, fs.StakingEnabled())
}

func TestSampleWorkCapsRingAt1440(t *testing.T) {
	fs := New(100, false, false)
	now := time.Now().UTC()

	for i := 0; i < 1500; i++ {
		fs.SampleWork(now.Add(time.Duration(i) * time.Minute))
	}

	samples := fs.WorkOverTime()
	assert.Len(t, samples, 1440)
}

func TestSampleWorkNewestFirst(t *testing.T) {
	fs := New(100, false, false)
	t1 := time.Now().UTC()
	t2 := t1.Add(time.Minute)

	fs.SampleWork(t1)
	fs.SampleWork(t2)

	samples := fs.WorkOverTime()
	require.Len(t, samples, 2)
	assert.True(t, samples[0].Time.Equal(t2))
	assert.True(t, samples[1].Time.Equal(t1))
}

func TestSetWork(t *testing.T) {
	fs := New(100, false, false)
	fs.SetWork(55)
	assert.Equal(t, uint64(55), fs.Work())
}
