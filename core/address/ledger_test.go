package address

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allymonies/tenebra/errors"
	"github.com/allymonies/tenebra/store"
	"github.com/allymonies/tenebra/ulogger"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	logger := ulogger.New("test")
	s, err := store.New(context.Background(), logger, "sqlitememory://"+t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return New(s, logger)
}

func TestVerifyCreatesAddressOnFirstSeen(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	ok, row, err := l.Verify(ctx, "127.0.0.1", "tbrandnewaddr", "mykey")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tbrandnewaddr", row.Address)
}

func TestVerifySetsPrivateKeyHashWhenUncredited(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	// A credit creates the row without a private-key hash.
	err := l.store.WithTx(ctx, func(tx *store.Tx) error {
		return tx.Credit(ctx, "tuncreditedaddr", 100, time.Now().UTC())
	})
	require.NoError(t, err)

	ok, row, err := l.Verify(ctx, "127.0.0.1", "tuncreditedaddr", "firstkey")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, row.PrivateKeyHash)
}

func TestVerifyRejectsWrongKeyOnCreditedAddress(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, _, err := l.Verify(ctx, "127.0.0.1", "tcreditedaddr", "correctkey")
	require.NoError(t, err)

	ok, _, err := l.Verify(ctx, "127.0.0.1", "tcreditedaddr", "wrongkey")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetReturnsAddressNotFound(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Get(context.Background(), "tmissingaddr")
	require.Error(t, err)

	var ee *errors.Error
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, errors.ERR_ADDRESS_NOT_FOUND, ee.Code)
}

func TestListReturnsTotalCount(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, _, _ = l.Verify(ctx, "127.0.0.1", "taddressone", "key1")
	_, _, _ = l.Verify(ctx, "127.0.0.1", "taddresstwo", "key2")

	rows, total, err := l.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, rows, 2)
}
