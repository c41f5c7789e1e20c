package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/allymonies/tenebra/model"
)

const nameColumns = `name, owner, original_owner, registered, updated, a, unpaid`

func scanName(row interface {
	Scan(dest ...interface{}) error
}) (*model.Name, error) {
	n := &model.Name{}
	var a sql.NullString
	if err := row.Scan(&n.Name, &n.Owner, &n.OriginalOwner, &n.Registered, &n.Updated, &a, &n.Unpaid); err != nil {
		return nil, err
	}
	if a.Valid {
		v := a.String
		n.A = &v
	}
	return n, nil
}

// GetName fetches a name by its lowercase key, sql.ErrNoRows if absent.
func (s *Store) GetName(ctx context.Context, name string) (*model.Name, error) {
	q := s.rebind(`SELECT ` + nameColumns + ` FROM names WHERE name = $1`)
	return scanName(s.db.QueryRowContext(ctx, q, name))
}

// ListNames returns a page ordered by registration time.
func (s *Store) ListNames(ctx context.Context, limit, offset int) ([]*model.Name, error) {
	q := s.rebind(`SELECT ` + nameColumns + ` FROM names ORDER BY registered ASC LIMIT $1 OFFSET $2`)
	rows, err := s.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Name
	for rows.Next() {
		n, err := scanName(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountNames returns the total registered name count.
func (s *Store) CountNames(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM names`).Scan(&n)
	return n, err
}

// CountUnpaidNames returns the "name bonus": the count of names whose
// unpaid counter is still > 0.
func (s *Store) CountUnpaidNames(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM names WHERE unpaid > 0`).Scan(&n)
	return n, err
}

// CountNamesByOwner returns how many names the given address currently
// owns, for the GET /addresses/:a?fetchNames join.
func (s *Store) CountNamesByOwner(ctx context.Context, owner string) (int, error) {
	q := s.rebind(`SELECT COUNT(*) FROM names WHERE owner = $1`)
	var n int
	err := s.db.QueryRowContext(ctx, q, owner).Scan(&n)
	return n, err
}

func (tx *Tx) GetName(ctx context.Context, name string) (*model.Name, error) {
	q := tx.rebind(`SELECT ` + nameColumns + ` FROM names WHERE name = $1`)
	return scanName(tx.tx.QueryRowContext(ctx, q, name))
}

// InsertName registers a brand new name; owner and original_owner start
// equal.
func (tx *Tx) InsertName(ctx context.Context, name, owner string, now time.Time, unpaid uint32) error {
	q := tx.rebind(`INSERT INTO names (name, owner, original_owner, registered, updated, a, unpaid)
		VALUES ($1, $2, $3, $4, $5, NULL, $6)`)
	_, err := tx.tx.ExecContext(ctx, q, name, owner, owner, now, now, unpaid)
	return err
}

// TransferName changes ownership.
func (tx *Tx) TransferName(ctx context.Context, name, newOwner string, now time.Time) error {
	q := tx.rebind(`UPDATE names SET owner = $1, updated = $2 WHERE name = $3`)
	_, err := tx.tx.ExecContext(ctx, q, newOwner, now, name)
	return err
}

// UpdateNameA sets the A record.
func (tx *Tx) UpdateNameA(ctx context.Context, name, a string, now time.Time) error {
	q := tx.rebind(`UPDATE names SET a = $1, updated = $2 WHERE name = $3`)
	_, err := tx.tx.ExecContext(ctx, q, a, now, name)
	return err
}

// DecrementUnpaidNames decrements unpaid by 1 on every name with
// unpaid > 0, saturating at 0. Runs once per produced block.
func (tx *Tx) DecrementUnpaidNames(ctx context.Context) error {
	_, err := tx.tx.ExecContext(ctx, `UPDATE names SET unpaid = unpaid - 1 WHERE unpaid > 0`)
	return err
}

// CountUnpaidNames returns the current name bonus within the transaction,
// used by the block engine before computing block value.
func (tx *Tx) CountUnpaidNames(ctx context.Context) (int, error) {
	var n int
	err := tx.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM names WHERE unpaid > 0`).Scan(&n)
	return n, err
}
