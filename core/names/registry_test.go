package names

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allymonies/tenebra/config"
	"github.com/allymonies/tenebra/core/address"
	"github.com/allymonies/tenebra/errors"
	"github.com/allymonies/tenebra/events"
	"github.com/allymonies/tenebra/hashutil"
	"github.com/allymonies/tenebra/store"
	"github.com/allymonies/tenebra/ulogger"
)

func newTestRegistry(t *testing.T) (*Registry, *address.Ledger, *store.Store) {
	t.Helper()
	logger := ulogger.New("test")
	s, err := store.New(context.Background(), logger, "sqlitememory://"+t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ledger := address.New(s, logger)
	bus := events.NewBus(logger)
	cfg := config.DefaultConstants()
	return New(s, ledger, bus, cfg, logger), ledger, s
}

func fund(t *testing.T, ctx context.Context, s *store.Store, addr string, amount uint64) {
	t.Helper()
	require.NoError(t, s.WithTx(ctx, func(tx *store.Tx) error {
		return tx.Credit(ctx, addr, amount, time.Now().UTC())
	}))
}

func TestPurchaseRejectsInvalidName(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	_, err := r.Purchase(context.Background(), "127.0.0.1", "somekey", "Not-Valid!")
	require.Error(t, err)

	var ee *errors.Error
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, errors.ERR_INVALID_PARAMETER, ee.Code)
}

func TestPurchaseRejectsInsufficientFunds(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	_, err := r.Purchase(context.Background(), "127.0.0.1", "poorkey", "available")
	require.Error(t, err)

	var ee *errors.Error
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, errors.ERR_INSUFFICIENT_FUNDS, ee.Code)
}

func TestPurchaseSucceedsAndDebitsCost(t *testing.T) {
	r, _, s := newTestRegistry(t)
	ctx := context.Background()
	buyer := hashutil.MakeV2Address("richkey")
	fund(t, ctx, s, buyer, 1000)

	n, err := r.Purchase(ctx, "127.0.0.1", "richkey", "myname")
	require.NoError(t, err)
	assert.Equal(t, "myname", n.Name)
	assert.Equal(t, buyer, n.Owner)

	a, err := s.GetAddress(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000-r.Cost()), a.Balance)
}

func TestPurchaseRejectsAlreadyTakenName(t *testing.T) {
	r, _, s := newTestRegistry(t)
	ctx := context.Background()
	buyer := hashutil.MakeV2Address("richkey2")
	fund(t, ctx, s, buyer, 1000)

	_, err := r.Purchase(ctx, "127.0.0.1", "richkey2", "takenname")
	require.NoError(t, err)

	_, err = r.Purchase(ctx, "127.0.0.1", "richkey2", "takenname")
	require.Error(t, err)

	var ee *errors.Error
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, errors.ERR_NAME_TAKEN, ee.Code)
}

func TestTransferRejectsNonOwner(t *testing.T) {
	r, _, s := newTestRegistry(t)
	ctx := context.Background()
	owner := hashutil.MakeV2Address("ownerkey")
	fund(t, ctx, s, owner, 1000)

	_, err := r.Purchase(ctx, "127.0.0.1", "ownerkey", "transfername")
	require.NoError(t, err)

	other := hashutil.MakeV2Address("otherkey")
	_, err = r.Transfer(ctx, "127.0.0.1", "otherkey", "transfername", other)
	require.Error(t, err)

	var ee *errors.Error
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, errors.ERR_NOT_NAME_OWNER, ee.Code)
}

func TestTransferSucceedsForOwner(t *testing.T) {
	r, _, s := newTestRegistry(t)
	ctx := context.Background()
	owner := hashutil.MakeV2Address("ownerkey2")
	fund(t, ctx, s, owner, 1000)

	_, err := r.Purchase(ctx, "127.0.0.1", "ownerkey2", "transfername2")
	require.NoError(t, err)

	recipient := hashutil.MakeV2Address("recipientkey")
	updated, err := r.Transfer(ctx, "127.0.0.1", "ownerkey2", "transfername2", recipient)
	require.NoError(t, err)
	assert.Equal(t, recipient, updated.Owner)
}

func TestUpdateASetsRecordAndWritesTransaction(t *testing.T) {
	r, _, s := newTestRegistry(t)
	ctx := context.Background()
	owner := hashutil.MakeV2Address("arecordkey")
	fund(t, ctx, s, owner, 1000)

	_, err := r.Purchase(ctx, "127.0.0.1", "arecordkey", "arecordname")
	require.NoError(t, err)

	updated, err := r.UpdateA(ctx, "127.0.0.1", "arecordkey", "arecordname", "example.com")
	require.NoError(t, err)
	require.NotNil(t, updated.A)
	assert.Equal(t, "example.com", *updated.A)

	rows, err := s.ListTransactions(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].To)
	assert.Equal(t, "name_a_record", rows[0].Type)
	require.NotNil(t, rows[0].Op)
	assert.Equal(t, "example.com", *rows[0].Op)
}

func TestResolvePaymentTargetParsesMetanameAndSuffix(t *testing.T) {
	r, _, s := newTestRegistry(t)
	ctx := context.Background()
	owner := hashutil.MakeV2Address("resolvekey")
	fund(t, ctx, s, owner, 1000)

	_, err := r.Purchase(ctx, "127.0.0.1", "resolvekey", "resolvable")
	require.NoError(t, err)

	resolved, metaname, name, matched, err := r.ResolvePaymentTarget(ctx, "donation@resolvable.tst")
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Equal(t, "donation", metaname)
	assert.Equal(t, "resolvable", name)
	assert.Equal(t, owner, resolved)
}

func TestResolvePaymentTargetIgnoresNonMatchingSuffix(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	_, _, _, matched, err := r.ResolvePaymentTarget(context.Background(), "tsomeaddress")
	require.NoError(t, err)
	assert.False(t, matched)
}
