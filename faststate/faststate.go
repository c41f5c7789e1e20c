// Package faststate implements the fast state store: process-wide mutable
// values that are never persisted and are recomputed from scratch on
// restart. A single RWMutex guards the whole struct; every field is small
// and writes are process-serial.
package faststate

import (
	"sync"
	"time"
)

const ringCap = 1440 // 24h of one-per-minute samples

// WorkSample is one entry of the work-over-time ring.
type WorkSample struct {
	Work uint64    `json:"work"`
	Time time.Time `json:"time"`
}

// FastState holds the node's hot key/value surface.
type FastState struct {
	mu sync.RWMutex

	work           uint64
	validator      string
	miningEnabled  bool
	stakingEnabled bool
	motd           string
	motdDate       time.Time
	genesisGenned  bool
	workOverTime   []WorkSample // newest first, len <= ringCap
}

// New seeds the store: validator defaults to empty, work defaults to
// maxWork.
func New(maxWork uint64, miningEnabled, stakingEnabled bool) *FastState {
	return &FastState{
		work:           maxWork,
		validator:      "",
		miningEnabled:  miningEnabled,
		stakingEnabled: stakingEnabled,
	}
}

func (f *FastState) Work() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.work
}

func (f *FastState) SetWork(w uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.work = w
}

func (f *FastState) Validator() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.validator
}

func (f *FastState) SetValidator(addr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validator = addr
}

func (f *FastState) MiningEnabled() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.miningEnabled
}

func (f *FastState) StakingEnabled() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stakingEnabled
}

// SetMiningEnabled toggles mining, forcing staking off.
func (f *FastState) SetMiningEnabled(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.miningEnabled = v
	if v {
		f.stakingEnabled = false
	}
}

// SetStakingEnabled toggles staking, forcing mining off.
func (f *FastState) SetStakingEnabled(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stakingEnabled = v
	if v {
		f.miningEnabled = false
	}
}

func (f *FastState) MOTD() (string, time.Time) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.motd, f.motdDate
}

func (f *FastState) SetMOTD(motd string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.motd = motd
	f.motdDate = at
}

func (f *FastState) GenesisGenned() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.genesisGenned
}

func (f *FastState) SetGenesisGenned(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genesisGenned = v
}

// SampleWork pushes a new newest-first entry onto the ring, truncating to
// ringCap entries.
func (f *FastState) SampleWork(at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workOverTime = append([]WorkSample{{Work: f.work, Time: at}}, f.workOverTime...)
	if len(f.workOverTime) > ringCap {
		f.workOverTime = f.workOverTime[:ringCap]
	}
}

// WorkOverTime returns a copy of the ring, newest first.
func (f *FastState) WorkOverTime() []WorkSample {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]WorkSample, len(f.workOverTime))
	copy(out, f.workOverTime)
	return out
}
