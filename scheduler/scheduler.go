// Package scheduler owns the node's background ticks: the work-over-time
// sampler, auth-log pruning, and validator selection. One goroutine per
// concern, each selecting over its own ticker and ctx.Done().
package scheduler

import (
	"context"
	"time"

	"github.com/allymonies/tenebra/core/staking"
	"github.com/allymonies/tenebra/faststate"
	"github.com/allymonies/tenebra/store"
	"github.com/allymonies/tenebra/ulogger"
)

type Scheduler struct {
	store           *store.Store
	fast            *faststate.FastState
	staking         *staking.Engine
	secondsPerBlock int
	stakingEnabled  func() bool
	logger          ulogger.Logger
}

func New(s *store.Store, fast *faststate.FastState, stakingEngine *staking.Engine, secondsPerBlock int, stakingEnabled func() bool, logger ulogger.Logger) *Scheduler {
	return &Scheduler{
		store: s, fast: fast, staking: stakingEngine,
		secondsPerBlock: secondsPerBlock, stakingEnabled: stakingEnabled, logger: logger,
	}
}

// Start launches the three ticks as independently cancellable goroutines
// and returns immediately; each tick runs until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.runWorkSampler(ctx)
	go s.runAuthLogPruner(ctx)
	go s.runValidatorSelection(ctx)
}

func (s *Scheduler) runWorkSampler(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.fast.SampleWork(now.UTC())
		}
	}
}

func (s *Scheduler) runAuthLogPruner(ctx context.Context) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := s.store.PruneAuthLog(ctx, now.UTC())
			if err != nil {
				s.logger.Errorf("auth log prune failed: %v", err)
				continue
			}
			if n > 0 {
				s.logger.Infof("pruned %d stale auth log entries", n)
			}
		}
	}
}

// runValidatorSelection ticks every seconds_per_block while staking is
// enabled. A failed tick is logged and skipped; the scheduler itself
// never aborts.
func (s *Scheduler) runValidatorSelection(ctx context.Context) {
	t := time.NewTicker(time.Duration(s.secondsPerBlock) * time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !s.stakingEnabled() {
				continue
			}
			if err := s.staking.Tick(ctx); err != nil {
				s.logger.Errorf("validator selection tick failed: %v", err)
			}
		}
	}
}
