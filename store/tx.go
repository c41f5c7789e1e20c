package store

import (
	"context"
	"database/sql"
)

// Tx wraps an in-flight database transaction plus the dialect helpers
// needed by callers, so the engines can run their mutations through
// WithTx without re-deriving placeholder style per call.
type Tx struct {
	tx     *sql.Tx
	engine Engine
}

func (t *Tx) ph(i int) string {
	s := &Store{engine: t.engine}
	return s.ph(i)
}

func (t *Tx) rebind(query string) string {
	s := &Store{engine: t.engine}
	return s.rebind(query)
}

// WithTx runs fn inside a single DB transaction: every side effect
// commits or none does. A panic or returned error rolls back; otherwise
// the transaction commits.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	tx := &Tx{tx: sqlTx, engine: s.engine}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
			return
		}
		err = sqlTx.Commit()
	}()

	err = fn(tx)
	return err
}
