package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allymonies/tenebra/ulogger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := ulogger.New("test")
	s, err := New(context.Background(), logger, "sqlitememory://"+t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGetAddress(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := s.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.CreateAddress(ctx, "ttestaddress", "somehash", now)
		return err
	})
	require.NoError(t, err)

	a, err := s.GetAddress(ctx, "ttestaddress")
	require.NoError(t, err)
	assert.Equal(t, "ttestaddress", a.Address)
	assert.Equal(t, "somehash", a.PrivateKeyHash)
	assert.Equal(t, uint64(0), a.Balance)
}

func TestGetAddressNotFoundReturnsErrNoRows(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetAddress(context.Background(), "tmissing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCreditCreatesRowWhenAbsent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx *Tx) error {
		return tx.Credit(ctx, "tnewrecipient", 100, time.Now().UTC())
	})
	require.NoError(t, err)

	a, err := s.GetAddress(ctx, "tnewrecipient")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), a.Balance)
	assert.Equal(t, uint64(100), a.TotalIn)
}

func TestCreditAndDebitExistingRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.CreateAddress(ctx, "tsenderaddr", "", now)
		return err
	}))
	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		return tx.Credit(ctx, "tsenderaddr", 500, now)
	}))
	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		return tx.Debit(ctx, "tsenderaddr", 200)
	}))

	a, err := s.GetAddress(ctx, "tsenderaddr")
	require.NoError(t, err)
	assert.Equal(t, uint64(300), a.Balance)
	assert.Equal(t, uint64(500), a.TotalIn)
	assert.Equal(t, uint64(200), a.TotalOut)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.CreateAddress(ctx, "trollback", "", time.Now().UTC()); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	_, err = s.GetAddress(ctx, "trollback")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListStakersOrderedAndFiltered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		for _, addr := range []string{"tbbbbbbbbb", "taaaaaaaaa", "tccccccccc"} {
			if _, err := tx.CreateAddress(ctx, addr, "", now); err != nil {
				return err
			}
		}
		if err := tx.AdjustStake(ctx, "tbbbbbbbbb", 100, true); err != nil {
			return err
		}
		if err := tx.AdjustStake(ctx, "taaaaaaaaa", 50, true); err != nil {
			return err
		}
		// inactive stake must be excluded
		return tx.AdjustStake(ctx, "tccccccccc", 10, false)
	}))

	var stakers []string
	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		list, err := tx.ListStakers(ctx)
		if err != nil {
			return err
		}
		for _, a := range list {
			stakers = append(stakers, a.Address)
		}
		return nil
	}))

	assert.Equal(t, []string{"taaaaaaaaa", "tbbbbbbbbb"}, stakers)
}

func TestListPenalizedOrderedByPenaltyDesc(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		for _, addr := range []string{"tlowpenalty", "thighpenalty"} {
			if _, err := tx.CreateAddress(ctx, addr, "", now); err != nil {
				return err
			}
		}
		if err := tx.AdjustPenalty(ctx, "tlowpenalty", 10); err != nil {
			return err
		}
		return tx.AdjustPenalty(ctx, "thighpenalty", 90)
	}))

	list, err := s.ListPenalized(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "thighpenalty", list[0].Address)
	assert.Equal(t, "tlowpenalty", list[1].Address)
}

func TestIsUniqueViolationOnDuplicateAddress(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.CreateAddress(ctx, "tduplicate1", "", now)
		return err
	}))

	err := s.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.CreateAddress(ctx, "tduplicate1", "", now)
		return err
	})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}
