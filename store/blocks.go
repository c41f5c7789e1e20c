package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/allymonies/tenebra/model"
)

const blockColumns = `id, hash, address, nonce, time, difficulty, value, useragent, origin`

func scanBlock(row interface {
	Scan(dest ...interface{}) error
}) (*model.Block, error) {
	b := &model.Block{}
	var hash, useragent, origin sql.NullString
	if err := row.Scan(&b.ID, &hash, &b.Address, &b.Nonce, &b.Time, &b.Difficulty, &b.Value, &useragent, &origin); err != nil {
		return nil, err
	}
	if hash.Valid {
		h := hash.String
		b.Hash = &h
	}
	b.UserAgent = useragent.String
	b.Origin = origin.String
	return b, nil
}

// GetLastBlock returns the highest-id block, or sql.ErrNoRows if the
// chain has no genesis yet.
func (s *Store) GetLastBlock(ctx context.Context) (*model.Block, error) {
	q := `SELECT ` + blockColumns + ` FROM blocks ORDER BY id DESC LIMIT 1`
	row := s.db.QueryRowContext(ctx, q)
	return scanBlock(row)
}

// GetBlock fetches a block by height.
func (s *Store) GetBlock(ctx context.Context, height uint64) (*model.Block, error) {
	q := s.rebind(`SELECT ` + blockColumns + ` FROM blocks WHERE id = $1`)
	row := s.db.QueryRowContext(ctx, q, height)
	return scanBlock(row)
}

// ListBlocks returns a page ordered newest-first.
func (s *Store) ListBlocks(ctx context.Context, limit, offset int) ([]*model.Block, error) {
	q := s.rebind(`SELECT ` + blockColumns + ` FROM blocks ORDER BY id DESC LIMIT $1 OFFSET $2`)
	rows, err := s.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CountBlocks returns the chain height (number of blocks produced).
func (s *Store) CountBlocks(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocks`).Scan(&n)
	return n, err
}

// GetLastBlock, under a transaction, for the submit-block
// read-then-write sequence.
func (tx *Tx) GetLastBlock(ctx context.Context) (*model.Block, error) {
	q := `SELECT ` + blockColumns + ` FROM blocks ORDER BY id DESC LIMIT 1`
	row := tx.tx.QueryRowContext(ctx, q)
	return scanBlock(row)
}

// InsertBlock inserts the next block row. Returns store.IsUniqueViolation
// on a hash collision, surfaced by the block engine as SolutionDuplicate.
func (tx *Tx) InsertBlock(ctx context.Context, id uint64, hash, address string, nonce []byte, at time.Time, difficulty uint64, value uint32) error {
	q := tx.rebind(`INSERT INTO blocks (id, hash, address, nonce, time, difficulty, value, useragent, origin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, NULL)`)
	_, err := tx.tx.ExecContext(ctx, q, id, hash, address, nonce, at, difficulty, value)
	return err
}
