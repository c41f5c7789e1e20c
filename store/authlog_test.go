package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allymonies/tenebra/model"
)

func TestRecentAuthLogDedupWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.InsertAuthLog(ctx, &model.AuthLogEntry{
		IP: "127.0.0.1", Address: "taddress1", Time: now, Type: "auth",
	}))

	dup, err := s.RecentAuthLog(ctx, "127.0.0.1", "taddress1", "auth", now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = s.RecentAuthLog(ctx, "127.0.0.1", "taddress1", "auth", now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestRecentAuthLogDistinguishesType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.InsertAuthLog(ctx, &model.AuthLogEntry{
		IP: "127.0.0.1", Address: "taddress2", Time: now, Type: "auth",
	}))

	dup, err := s.RecentAuthLog(ctx, "127.0.0.1", "taddress2", "mining", now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestPruneAuthLogDeletesOldEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.InsertAuthLog(ctx, &model.AuthLogEntry{
		IP: "127.0.0.1", Address: "toldaddress", Time: now.Add(-40 * 24 * time.Hour), Type: "auth",
	}))
	require.NoError(t, s.InsertAuthLog(ctx, &model.AuthLogEntry{
		IP: "127.0.0.1", Address: "tfreshaddress", Time: now, Type: "auth",
	}))

	n, err := s.PruneAuthLog(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	dup, err := s.RecentAuthLog(ctx, "127.0.0.1", "tfreshaddress", "auth", now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestCountPenalizedAddresses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.CreateAddress(ctx, "tpenalizedaddr", "", now); err != nil {
			return err
		}
		return tx.AdjustPenalty(ctx, "tpenalizedaddr", 50)
	}))

	n, err := s.CountPenalizedAddresses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
