package staking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allymonies/tenebra/core/address"
	"github.com/allymonies/tenebra/errors"
	"github.com/allymonies/tenebra/events"
	"github.com/allymonies/tenebra/faststate"
	"github.com/allymonies/tenebra/hashutil"
	"github.com/allymonies/tenebra/store"
	"github.com/allymonies/tenebra/ulogger"
)

func newTestStaking(t *testing.T, validatorPenalty uint64) (*Engine, *store.Store, *faststate.FastState) {
	t.Helper()
	logger := ulogger.New("test")
	s, err := store.New(context.Background(), logger, "sqlitememory://"+t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	fast := faststate.New(100000, false, true)
	ledger := address.New(s, logger)
	bus := events.NewBus(logger)
	return New(s, ledger, fast, bus, validatorPenalty, logger), s, fast
}

func TestDepositMovesBalanceToStake(t *testing.T) {
	e, s, _ := newTestStaking(t, 500)
	ctx := context.Background()
	staker := hashutil.MakeV2Address("stakerkey")
	require.NoError(t, s.WithTx(ctx, func(tx *store.Tx) error {
		return tx.Credit(ctx, staker, 1000, time.Now().UTC())
	}))

	updated, err := e.Deposit(ctx, "127.0.0.1", "stakerkey", 300)
	require.NoError(t, err)
	assert.Equal(t, uint64(700), updated.Balance)
	assert.Equal(t, uint64(300), updated.Stake)
	assert.True(t, updated.StakeActive)
}

func TestDepositRejectsInsufficientBalance(t *testing.T) {
	e, _, _ := newTestStaking(t, 500)
	_, err := e.Deposit(context.Background(), "127.0.0.1", "poorstakerkey", 300)
	require.Error(t, err)

	var ee *errors.Error
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, errors.ERR_INSUFFICIENT_FUNDS, ee.Code)
}

func TestWithdrawMovesStakeBackToBalance(t *testing.T) {
	e, s, _ := newTestStaking(t, 500)
	ctx := context.Background()
	staker := hashutil.MakeV2Address("withdrawkey")
	require.NoError(t, s.WithTx(ctx, func(tx *store.Tx) error {
		return tx.Credit(ctx, staker, 1000, time.Now().UTC())
	}))
	_, err := e.Deposit(ctx, "127.0.0.1", "withdrawkey", 400)
	require.NoError(t, err)

	updated, err := e.Withdraw(ctx, "127.0.0.1", "withdrawkey", 400)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), updated.Balance)
	assert.Equal(t, uint64(0), updated.Stake)
	assert.False(t, updated.StakeActive)
}

func TestWithdrawPartialKeepsStakeActive(t *testing.T) {
	e, s, _ := newTestStaking(t, 500)
	ctx := context.Background()
	staker := hashutil.MakeV2Address("partialwithdrawkey")
	require.NoError(t, s.WithTx(ctx, func(tx *store.Tx) error {
		return tx.Credit(ctx, staker, 1000, time.Now().UTC())
	}))
	_, err := e.Deposit(ctx, "127.0.0.1", "partialwithdrawkey", 400)
	require.NoError(t, err)

	updated, err := e.Withdraw(ctx, "127.0.0.1", "partialwithdrawkey", 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), updated.Stake)
	assert.True(t, updated.StakeActive)
}

func TestWithdrawRejectsInsufficientStake(t *testing.T) {
	e, s, _ := newTestStaking(t, 500)
	ctx := context.Background()
	staker := hashutil.MakeV2Address("understakedkey")
	require.NoError(t, s.WithTx(ctx, func(tx *store.Tx) error {
		return tx.Credit(ctx, staker, 1000, time.Now().UTC())
	}))
	_, err := e.Deposit(ctx, "127.0.0.1", "understakedkey", 100)
	require.NoError(t, err)

	_, err = e.Withdraw(ctx, "127.0.0.1", "understakedkey", 200)
	require.Error(t, err)

	var ee *errors.Error
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, errors.ERR_INSUFFICIENT_FUNDS, ee.Code)
}

func TestTickPenalizesPreviousValidatorAndSelectsNew(t *testing.T) {
	e, s, fast := newTestStaking(t, 200)
	ctx := context.Background()

	stakerA := hashutil.MakeV2Address("tickstakera")
	stakerB := hashutil.MakeV2Address("tickstakerb")
	require.NoError(t, s.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.Credit(ctx, stakerA, 1000, time.Now().UTC()); err != nil {
			return err
		}
		return tx.Credit(ctx, stakerB, 1000, time.Now().UTC())
	}))
	_, err := e.Deposit(ctx, "127.0.0.1", "tickstakera", 500)
	require.NoError(t, err)
	_, err = e.Deposit(ctx, "127.0.0.1", "tickstakerb", 500)
	require.NoError(t, err)

	fast.SetValidator(stakerA)

	require.NoError(t, e.Tick(ctx))

	row, err := s.GetAddress(ctx, stakerA)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), row.Penalty)
	assert.Equal(t, uint64(300), row.Stake)
	assert.False(t, row.StakeActive)

	// stakerA is penalized out of the active pool, leaving stakerB as the
	// only eligible staker, so the lottery must pick it deterministically.
	assert.Equal(t, stakerB, fast.Validator())
}

func TestTickSelectsNoValidatorWhenNoStakers(t *testing.T) {
	e, _, fast := newTestStaking(t, 200)
	require.NoError(t, e.Tick(context.Background()))
	assert.Equal(t, "", fast.Validator())
}

func TestPenalizeNeverDropsStakeBelowZero(t *testing.T) {
	e, s, fast := newTestStaking(t, 10000)
	ctx := context.Background()
	staker := hashutil.MakeV2Address("smallstakerkey")
	require.NoError(t, s.WithTx(ctx, func(tx *store.Tx) error {
		return tx.Credit(ctx, staker, 1000, time.Now().UTC())
	}))
	_, err := e.Deposit(ctx, "127.0.0.1", "smallstakerkey", 50)
	require.NoError(t, err)

	fast.SetValidator(staker)
	require.NoError(t, e.Tick(ctx))

	row, err := s.GetAddress(ctx, staker)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), row.Stake)
	assert.Equal(t, uint64(50), row.Penalty)
	assert.False(t, row.StakeActive)
}
