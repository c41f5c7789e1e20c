package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/allymonies/tenebra/model"
)

const txColumns = `id, from_address, to_address, value, time, name, op, sent_metaname, sent_name, useragent, origin`

func scanTx(row interface {
	Scan(dest ...interface{}) error
}) (*model.Transaction, error) {
	t := &model.Transaction{}
	var from, name, op, sentMeta, sentName, useragent, origin sql.NullString
	if err := row.Scan(&t.ID, &from, &t.To, &t.Value, &t.Time, &name, &op, &sentMeta, &sentName, &useragent, &origin); err != nil {
		return nil, err
	}
	if from.Valid {
		v := from.String
		t.From = &v
	}
	if name.Valid {
		v := name.String
		t.Name = &v
	}
	if op.Valid {
		v := op.String
		t.Op = &v
	}
	if sentMeta.Valid {
		v := sentMeta.String
		t.SentMetaname = &v
	}
	if sentName.Valid {
		v := sentName.String
		t.SentName = &v
	}
	t.UserAgent = useragent.String
	t.Origin = origin.String
	t.Classify()
	return t, nil
}

// GetTransaction fetches a single transaction by id.
func (s *Store) GetTransaction(ctx context.Context, id uint64) (*model.Transaction, error) {
	q := s.rebind(`SELECT ` + txColumns + ` FROM transactions WHERE id = $1`)
	return scanTx(s.db.QueryRowContext(ctx, q, id))
}

// ListTransactions returns a page ordered newest-first.
func (s *Store) ListTransactions(ctx context.Context, limit, offset int) ([]*model.Transaction, error) {
	q := s.rebind(`SELECT ` + txColumns + ` FROM transactions ORDER BY id DESC LIMIT $1 OFFSET $2`)
	return s.queryTxs(ctx, q, limit, offset)
}

// ListTransactionsForAddress returns a page of transactions where address
// is either sender or recipient.
func (s *Store) ListTransactionsForAddress(ctx context.Context, address string, limit, offset int) ([]*model.Transaction, error) {
	q := s.rebind(`SELECT ` + txColumns + ` FROM transactions WHERE from_address = $1 OR to_address = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`)
	rows, err := s.db.QueryContext(ctx, q, address, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTxs(rows)
}

// CountTransactionsForAddress returns how many transactions involve the
// address as either sender or recipient.
func (s *Store) CountTransactionsForAddress(ctx context.Context, address string) (int, error) {
	q := s.rebind(`SELECT COUNT(*) FROM transactions WHERE from_address = $1 OR to_address = $1`)
	var n int
	err := s.db.QueryRowContext(ctx, q, address).Scan(&n)
	return n, err
}

// ListTransactionsByName returns a page of transactions carrying the
// given name, newest first.
func (s *Store) ListTransactionsByName(ctx context.Context, name string, limit, offset int) ([]*model.Transaction, error) {
	q := s.rebind(`SELECT ` + txColumns + ` FROM transactions WHERE name = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`)
	rows, err := s.db.QueryContext(ctx, q, name, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTxs(rows)
}

// CountTransactionsByName returns how many transactions carry the name.
func (s *Store) CountTransactionsByName(ctx context.Context, name string) (int, error) {
	q := s.rebind(`SELECT COUNT(*) FROM transactions WHERE name = $1`)
	var n int
	err := s.db.QueryRowContext(ctx, q, name).Scan(&n)
	return n, err
}

// ListTransactionsByMetadata returns a page of transactions whose op
// field contains the query substring, newest first.
func (s *Store) ListTransactionsByMetadata(ctx context.Context, query string, limit, offset int) ([]*model.Transaction, error) {
	q := s.rebind(`SELECT ` + txColumns + ` FROM transactions WHERE op LIKE $1 ESCAPE '\' ORDER BY id DESC LIMIT $2 OFFSET $3`)
	rows, err := s.db.QueryContext(ctx, q, "%"+escapeLike(query)+"%", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTxs(rows)
}

// CountTransactionsByMetadata returns how many transactions' op field
// contains the query substring.
func (s *Store) CountTransactionsByMetadata(ctx context.Context, query string) (int, error) {
	q := s.rebind(`SELECT COUNT(*) FROM transactions WHERE op LIKE $1 ESCAPE '\'`)
	var n int
	err := s.db.QueryRowContext(ctx, q, "%"+escapeLike(query)+"%").Scan(&n)
	return n, err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *Store) queryTxs(ctx context.Context, q string, limit, offset int) ([]*model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTxs(rows)
}

func collectTxs(rows *sql.Rows) ([]*model.Transaction, error) {
	var out []*model.Transaction
	for rows.Next() {
		t, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// InsertTransaction appends a transaction row and returns its assigned id.
func (tx *Tx) InsertTransaction(ctx context.Context, t *model.Transaction) (uint64, error) {
	if t.Time.IsZero() {
		t.Time = time.Now().UTC()
	}

	var q string
	var id uint64

	if tx.engine == Postgres {
		q = `INSERT INTO transactions (from_address, to_address, value, time, name, op, sent_metaname, sent_name, useragent, origin)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
		err := tx.tx.QueryRowContext(ctx, q, t.From, t.To, t.Value, t.Time, t.Name, t.Op, t.SentMetaname, t.SentName, t.UserAgent, t.Origin).Scan(&id)
		if err != nil {
			return 0, err
		}
	} else {
		q = tx.rebind(`INSERT INTO transactions (from_address, to_address, value, time, name, op, sent_metaname, sent_name, useragent, origin)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
		res, err := tx.tx.ExecContext(ctx, q, t.From, t.To, t.Value, t.Time, t.Name, t.Op, t.SentMetaname, t.SentName, t.UserAgent, t.Origin)
		if err != nil {
			return 0, err
		}
		last, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		id = uint64(last)
	}

	t.ID = id
	t.Classify()
	return id, nil
}
