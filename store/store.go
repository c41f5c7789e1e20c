// Package store implements the persistent store: a relational table set
// for addresses, blocks, transactions, names, and the auth log, reachable
// over either PostgreSQL or SQLite, dispatched by URL scheme.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/allymonies/tenebra/ulogger"
	"github.com/labstack/gommon/random"
	"github.com/ordishs/gocore"
)

// Engine identifies the SQL dialect in use.
type Engine string

const (
	Postgres     Engine = "postgres"
	Sqlite       Engine = "sqlite"
	SqliteMemory Engine = "sqlitememory"
)

// Store wraps a *sql.DB plus dialect-specific placeholder formatting.
type Store struct {
	db     *sql.DB
	engine Engine
	logger ulogger.Logger
}

// New opens a store for storeURL, one of "postgres://...", "sqlite://name"
// or "sqlitememory://name", and applies the embedded schema.
func New(ctx context.Context, logger ulogger.Logger, storeURL string) (*Store, error) {
	u, err := url.Parse(storeURL)
	if err != nil {
		return nil, fmt.Errorf("invalid store url: %w", err)
	}

	var db *sql.DB
	var engine Engine

	switch u.Scheme {
	case "postgres":
		db, err = initPostgres(logger, u)
		engine = Postgres
	case "sqlite":
		db, err = initSqlite(logger, u, false)
		engine = Sqlite
	case "sqlitememory":
		db, err = initSqlite(logger, u, true)
		engine = SqliteMemory
	default:
		return nil, fmt.Errorf("unknown store scheme: %s", u.Scheme)
	}
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, engine: engine, logger: logger}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func initPostgres(logger ulogger.Logger, u *url.URL) (*sql.DB, error) {
	dbName := strings.TrimPrefix(u.Path, "/")
	user, password := "", ""
	if u.User != nil {
		user = u.User.Username()
		password, _ = u.User.Password()
	}
	port := u.Port()
	dbInfo := fmt.Sprintf("user=%s password=%s dbname=%s sslmode=disable host=%s port=%s",
		user, password, dbName, u.Hostname(), port)

	db, err := sql.Open("postgres", dbInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres db: %w", err)
	}
	logger.Infof("using postgres db: %s@%s:%s/%s", user, u.Hostname(), port, dbName)

	idleConns, _ := gocore.Config().GetInt("store_postgresMaxIdleConns", 10)
	db.SetMaxIdleConns(idleConns)
	maxOpenConns, _ := gocore.Config().GetInt("store_postgresMaxOpenConns", 80)
	db.SetMaxOpenConns(maxOpenConns)

	return db, nil
}

func initSqlite(logger ulogger.Logger, u *url.URL, memory bool) (*sql.DB, error) {
	var filename string

	if memory {
		filename = fmt.Sprintf("file:%s?mode=memory&cache=shared", random.String(16))
	} else {
		folder, _ := gocore.Config().Get("dataFolder", "data")
		if err := os.MkdirAll(folder, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data folder %s: %w", folder, err)
		}
		name := strings.TrimPrefix(u.Path, "/")
		if name == "" {
			name = u.Hostname()
		}
		abs, err := filepath.Abs(filepath.Join(folder, name+".db"))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve sqlite path: %w", err)
		}
		filename = fmt.Sprintf("%s?cache=shared&_pragma=busy_timeout=5000&_pragma=journal_mode=WAL", abs)
	}

	logger.Infof("using sqlite db: %s", filename)

	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not enable foreign keys: %w", err)
	}

	return db, nil
}

// DB exposes the underlying handle for callers that need raw access.
func (s *Store) DB() *sql.DB { return s.db }

// Engine reports the active SQL dialect.
func (s *Store) Engine() Engine { return s.engine }

func (s *Store) Close() error { return s.db.Close() }

// ph returns the positional placeholder for argument index i (1-based),
// "$1" style for postgres, "?" for sqlite.
func (s *Store) ph(i int) string {
	if s.engine == Postgres {
		return "$" + strconv.Itoa(i)
	}
	return "?"
}

// rebind rewrites a query written with $1,$2,... placeholders into the
// active dialect's placeholder style.
func (s *Store) rebind(query string) string {
	if s.engine == Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			j := i + 1
			for j < len(query) && query[j] >= '0' && query[j] <= '9' {
				j++
			}
			b.WriteByte('?')
			i = j - 1
			n++
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
