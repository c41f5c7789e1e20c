package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/allymonies/tenebra/model"
)

func scanAddress(row interface {
	Scan(dest ...interface{}) error
}) (*model.Address, error) {
	a := &model.Address{}
	var pkHash sql.NullString
	if err := row.Scan(&a.Address, &a.Balance, &a.TotalIn, &a.TotalOut, &a.Stake,
		&a.Penalty, &a.StakeActive, &a.Locked, &pkHash, &a.FirstSeen); err != nil {
		return nil, err
	}
	a.PrivateKeyHash = pkHash.String
	return a, nil
}

const addressColumns = `address, balance, totalin, totalout, stake, penalty, stake_active, locked, privatekey_hash, firstseen`

// GetAddress fetches a single address row. Returns sql.ErrNoRows if absent.
func (s *Store) GetAddress(ctx context.Context, address string) (*model.Address, error) {
	q := s.rebind(`SELECT ` + addressColumns + ` FROM addresses WHERE address = $1`)
	row := s.db.QueryRowContext(ctx, q, address)
	return scanAddress(row)
}

// ListAddresses returns a page of addresses ordered by first-seen.
func (s *Store) ListAddresses(ctx context.Context, limit, offset int) ([]*model.Address, error) {
	q := s.rebind(`SELECT ` + addressColumns + ` FROM addresses ORDER BY firstseen ASC LIMIT $1 OFFSET $2`)
	return s.queryAddresses(ctx, q, limit, offset)
}

// ListAddressesRich returns a page ordered by balance descending.
func (s *Store) ListAddressesRich(ctx context.Context, limit, offset int) ([]*model.Address, error) {
	q := s.rebind(`SELECT ` + addressColumns + ` FROM addresses ORDER BY balance DESC, address ASC LIMIT $1 OFFSET $2`)
	return s.queryAddresses(ctx, q, limit, offset)
}

func (s *Store) queryAddresses(ctx context.Context, q string, limit, offset int) ([]*model.Address, error) {
	rows, err := s.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountAddresses returns the total number of addresses (for pagination).
func (s *Store) CountAddresses(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM addresses`).Scan(&n)
	return n, err
}

// GetAddress, inside a transaction, with the same row shape as the
// top-level read — used by engines that need a consistent read-then-write
// under the active transaction.
func (tx *Tx) GetAddress(ctx context.Context, address string) (*model.Address, error) {
	q := tx.rebind(`SELECT ` + addressColumns + ` FROM addresses WHERE address = $1`)
	row := tx.tx.QueryRowContext(ctx, q, address)
	return scanAddress(row)
}

// CreateAddress inserts a new lazily-created address row.
func (tx *Tx) CreateAddress(ctx context.Context, address, privateKeyHash string, now time.Time) (*model.Address, error) {
	q := tx.rebind(`INSERT INTO addresses (address, balance, totalin, totalout, stake, penalty, stake_active, locked, privatekey_hash, firstseen)
		VALUES ($1, 0, 0, 0, 0, 0, FALSE, FALSE, $2, $3)`)
	if _, err := tx.tx.ExecContext(ctx, q, address, nullableString(privateKeyHash), now); err != nil {
		return nil, err
	}
	return &model.Address{Address: address, PrivateKeyHash: privateKeyHash, FirstSeen: now}, nil
}

// SetPrivateKeyHash fills in the auth secret for an address that was
// created by a credit and has never authenticated.
func (tx *Tx) SetPrivateKeyHash(ctx context.Context, address, hash string) error {
	q := tx.rebind(`UPDATE addresses SET privatekey_hash = $1 WHERE address = $2`)
	_, err := tx.tx.ExecContext(ctx, q, hash, address)
	return err
}

// Credit increments balance and totalin by amount, creating the row with
// those values if it doesn't exist yet.
func (tx *Tx) Credit(ctx context.Context, address string, amount uint64, now time.Time) error {
	existing, err := tx.GetAddress(ctx, address)
	if err != nil {
		if err == sql.ErrNoRows {
			q := tx.rebind(`INSERT INTO addresses (address, balance, totalin, totalout, stake, penalty, stake_active, locked, privatekey_hash, firstseen)
				VALUES ($1, $2, $3, 0, 0, 0, FALSE, FALSE, NULL, $4)`)
			_, err := tx.tx.ExecContext(ctx, q, address, amount, amount, now)
			return err
		}
		return err
	}
	q := tx.rebind(`UPDATE addresses SET balance = balance + $1, totalin = totalin + $2 WHERE address = $3`)
	_, err = tx.tx.ExecContext(ctx, q, amount, amount, existing.Address)
	return err
}

// Debit decrements balance and increments totalout on an existing row.
// Callers must have already validated sufficient funds.
func (tx *Tx) Debit(ctx context.Context, address string, amount uint64) error {
	q := tx.rebind(`UPDATE addresses SET balance = balance - $1, totalout = totalout + $2 WHERE address = $3`)
	_, err := tx.tx.ExecContext(ctx, q, amount, amount, address)
	return err
}

// AdjustStake applies deltaStake (positive or negative) to stake and sets
// stake_active, used by the staking engine for deposit/withdraw/penalize.
func (tx *Tx) AdjustStake(ctx context.Context, address string, deltaStake int64, stakeActive bool) error {
	q := tx.rebind(`UPDATE addresses SET stake = stake + $1, stake_active = $2 WHERE address = $3`)
	_, err := tx.tx.ExecContext(ctx, q, deltaStake, stakeActive, address)
	return err
}

// AdjustBalanceForStake applies deltaBalance for deposit/withdraw, which
// move value between balance and stake without touching totalin/totalout
// (stake is not a transfer counterparty in the conservation sense; the
// paired staking transaction row is the auditable record instead).
func (tx *Tx) AdjustBalanceForStake(ctx context.Context, address string, deltaBalance int64) error {
	q := tx.rebind(`UPDATE addresses SET balance = balance + $1 WHERE address = $2`)
	_, err := tx.tx.ExecContext(ctx, q, deltaBalance, address)
	return err
}

// AdjustPenalty increments penalty by delta (always non-negative in
// practice; penalize() is the only caller).
func (tx *Tx) AdjustPenalty(ctx context.Context, address string, delta uint64) error {
	q := tx.rebind(`UPDATE addresses SET penalty = penalty + $1 WHERE address = $2`)
	_, err := tx.tx.ExecContext(ctx, q, delta, address)
	return err
}

// ListStakers returns every address with stake > 0 and stake_active,
// ordered deterministically for the weighted-lottery cumulative sum.
func (tx *Tx) ListStakers(ctx context.Context) ([]*model.Address, error) {
	q := tx.rebind(`SELECT ` + addressColumns + ` FROM addresses WHERE stake > 0 AND stake_active = TRUE ORDER BY address ASC`)
	rows, err := tx.tx.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListPenalized returns addresses currently carrying a nonzero penalty,
// ordered highest-penalty-first (GET /staking/penalties).
func (s *Store) ListPenalized(ctx context.Context, limit, offset int) ([]*model.Address, error) {
	q := s.rebind(`SELECT ` + addressColumns + ` FROM addresses WHERE penalty > 0 ORDER BY penalty DESC, address ASC LIMIT $1 OFFSET $2`)
	return s.queryAddresses(ctx, q, limit, offset)
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
