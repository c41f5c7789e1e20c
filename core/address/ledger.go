// Package address implements the address ledger: auth, lazy creation,
// and read access. Balance mutations happen only through the transaction
// and block engines, never through a raw setter here.
package address

import (
	"context"
	"database/sql"
	"time"

	"github.com/allymonies/tenebra/errors"
	"github.com/allymonies/tenebra/hashutil"
	"github.com/allymonies/tenebra/model"
	"github.com/allymonies/tenebra/store"
	"github.com/allymonies/tenebra/ulogger"
)

type Ledger struct {
	store  *store.Store
	logger ulogger.Logger
}

func New(s *store.Store, logger ulogger.Logger) *Ledger {
	return &Ledger{store: s, logger: logger}
}

// Authenticate reports whether the claimed address/private-key pair is
// valid. It satisfies events.Authenticator.
func (l *Ledger) Authenticate(ctx context.Context, ip, claimedAddress, privateKey string) (bool, error) {
	ok, _, err := l.Verify(ctx, ip, claimedAddress, privateKey)
	return ok, err
}

// Verify runs the full contract and returns the resulting row.
func (l *Ledger) Verify(ctx context.Context, ip, claimedAddress, privateKey string) (bool, *model.Address, error) {
	h := hashutil.Sha256Hex(claimedAddress + privateKey)
	now := time.Now().UTC()

	var authed bool
	var row *model.Address

	err := l.store.WithTx(ctx, func(tx *store.Tx) error {
		existing, err := tx.GetAddress(ctx, claimedAddress)
		switch {
		case err == sql.ErrNoRows:
			created, err := tx.CreateAddress(ctx, claimedAddress, h, now)
			if err != nil {
				return err
			}
			authed, row = true, created
			return nil

		case err != nil:
			return err

		case existing.PrivateKeyHash == "":
			if err := tx.SetPrivateKeyHash(ctx, claimedAddress, h); err != nil {
				return err
			}
			existing.PrivateKeyHash = h
			authed, row = true, existing
			return nil

		default:
			authed = !existing.Locked && existing.PrivateKeyHash == h
			row = existing
			return nil
		}
	})
	if err != nil {
		return false, nil, errors.New(errors.ERR_SERVER_ERROR, "verify address: %v", err)
	}

	l.logAuth(ctx, ip, claimedAddress, "auth", authed, now)

	return authed, row, nil
}

// VerifyMining records a mining-use entry in the same audit trail as
// Verify's auth entries.
func (l *Ledger) VerifyMining(ctx context.Context, ip, address string, accepted bool) {
	l.logAuth(ctx, ip, address, "mining", accepted, time.Now().UTC())
}

func (l *Ledger) logAuth(ctx context.Context, ip, address, typ string, success bool, now time.Time) {
	dup, err := l.store.RecentAuthLog(ctx, ip, address, typ, now)
	if err != nil {
		l.logger.Errorf("auth log dedup check failed: %v", err)
		return
	}
	if dup {
		return
	}
	entry := &model.AuthLogEntry{IP: ip, Address: address, Time: now, Type: typ}
	if err := l.store.InsertAuthLog(ctx, entry); err != nil {
		l.logger.Errorf("auth log insert failed: %v", err)
	}
}

func (l *Ledger) Get(ctx context.Context, address string) (*model.Address, error) {
	a, err := l.store.GetAddress(ctx, address)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ERR_ADDRESS_NOT_FOUND, "address not found")
	}
	if err != nil {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "get address: %v", err)
	}
	return a, nil
}

func (l *Ledger) List(ctx context.Context, limit, offset int) ([]*model.Address, int, error) {
	rows, err := l.store.ListAddresses(ctx, limit, offset)
	if err != nil {
		return nil, 0, errors.New(errors.ERR_SERVER_ERROR, "list addresses: %v", err)
	}
	total, err := l.store.CountAddresses(ctx)
	if err != nil {
		return nil, 0, errors.New(errors.ERR_SERVER_ERROR, "count addresses: %v", err)
	}
	return rows, total, nil
}

func (l *Ledger) ListRich(ctx context.Context, limit, offset int) ([]*model.Address, error) {
	rows, err := l.store.ListAddressesRich(ctx, limit, offset)
	if err != nil {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "list rich addresses: %v", err)
	}
	return rows, nil
}
