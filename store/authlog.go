package store

import (
	"context"
	"time"

	"github.com/allymonies/tenebra/model"
)

// RecentAuthLog reports whether an (ip, address, type) triple has been
// logged within the last 30 minutes, used to dedup-suppress repeated
// attempts.
func (s *Store) RecentAuthLog(ctx context.Context, ip, address, typ string, now time.Time) (bool, error) {
	q := s.rebind(`SELECT COUNT(*) FROM auth_log WHERE ip = $1 AND address = $2 AND type = $3 AND time > $4`)
	var n int
	err := s.db.QueryRowContext(ctx, q, ip, address, typ, now.Add(-30*time.Minute)).Scan(&n)
	return n > 0, err
}

// InsertAuthLog appends an entry.
func (s *Store) InsertAuthLog(ctx context.Context, e *model.AuthLogEntry) error {
	q := s.rebind(`INSERT INTO auth_log (ip, address, time, type, useragent, origin) VALUES ($1, $2, $3, $4, $5, $6)`)
	_, err := s.db.ExecContext(ctx, q, e.IP, e.Address, e.Time, e.Type, e.UserAgent, e.Origin)
	return err
}

// PruneAuthLog deletes entries older than 30 days, driven by the
// scheduler's hourly tick.
func (s *Store) PruneAuthLog(ctx context.Context, now time.Time) (int64, error) {
	q := s.rebind(`DELETE FROM auth_log WHERE time < $1`)
	res, err := s.db.ExecContext(ctx, q, now.Add(-30*24*time.Hour))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountPenalizedAddresses returns the number of addresses currently
// carrying a nonzero penalty, the penalty-bonus term in the block reward
// formula.
func (s *Store) CountPenalizedAddresses(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM addresses WHERE penalty > 0`).Scan(&n)
	return n, err
}

func (tx *Tx) CountPenalizedAddresses(ctx context.Context) (int, error) {
	var n int
	err := tx.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM addresses WHERE penalty > 0`).Scan(&n)
	return n, err
}
