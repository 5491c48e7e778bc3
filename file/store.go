package file

import (
	"context"
	"log/slog"
	"time"

	dircache "github.com/bornholm/go-dircache"
	"github.com/bornholm/go-dircache/persistent"
	"github.com/pkg/errors"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitemigration"
	"zombiezen.com/go/sqlite/sqlitex"
)

// DefaultOperationTimeout bounds every store operation, waiting for a free
// connection included.
const DefaultOperationTimeout = 10 * time.Second

// Store is a [persistent.Store] backed by a sqlite database. Entries carry
// their own expiration instant and read as missing once it is reached.
type Store struct {
	pool    *sqlitex.Pool
	now     func() time.Time
	timeout time.Duration
}

type StoreOptionFunc func(s *Store)

// WithOperationTimeout bounds each store operation. Operations still running
// when it elapses are interrupted.
func WithOperationTimeout(timeout time.Duration) StoreOptionFunc {
	return func(s *Store) {
		s.timeout = timeout
	}
}

// WithStoreClock replaces the time source used to compute and check
// expiration instants.
func WithStoreClock(now func() time.Time) StoreOptionFunc {
	return func(s *Store) {
		s.now = now
	}
}

// Get implements [persistent.Store].
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	defer s.pool.Put(conn)

	var (
		value     []byte
		expiresAt int64
		expirable bool
		found     bool
	)

	err = sqlitex.Execute(conn, `
		SELECT value, expires_at FROM entries
		WHERE key = ?
	`, &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			value = make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, value)
			if stmt.ColumnType(1) != sqlite.TypeNull {
				expirable = true
				expiresAt = stmt.ColumnInt64(1)
			}
			found = true
			return nil
		},
	})
	if err != nil {
		return nil, wrapError(err)
	}

	if !found {
		return nil, errors.WithStack(dircache.ErrNotFound)
	}

	if expirable && s.now().UnixNano() >= expiresAt {
		err = sqlitex.Execute(conn, `
			DELETE FROM entries
			WHERE key = ? AND expires_at = ?
		`, &sqlitex.ExecOptions{
			Args: []any{key, expiresAt},
		})
		if err != nil {
			slog.DebugContext(ctx, "could not purge expired entry", slog.String("key", key), slog.Any("error", err))
		}

		return nil, errors.WithStack(dircache.ErrNotFound)
	}

	return value, nil
}

// Set implements [persistent.Store].
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return wrapError(err)
	}
	defer s.pool.Put(conn)

	var expiresAt any
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).UnixNano()
	}

	err = sqlitex.Execute(conn, `
		INSERT INTO entries (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, &sqlitex.ExecOptions{
		Args: []any{key, value, expiresAt},
	})
	if err != nil {
		return wrapError(err)
	}

	return nil
}

// Delete implements [persistent.Store].
func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return wrapError(err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `
		DELETE FROM entries
		WHERE key = ?
	`, &sqlitex.ExecOptions{
		Args: []any{key},
	})
	if err != nil {
		return wrapError(err)
	}

	if conn.Changes() == 0 {
		return errors.WithStack(dircache.ErrNotFound)
	}

	return nil
}

// Keys implements [persistent.Store].
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	defer s.pool.Put(conn)

	keys := make([]string, 0)

	err = sqlitex.Execute(conn, `SELECT key FROM entries`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			keys = append(keys, stmt.ColumnText(0))
			return nil
		},
	})
	if err != nil {
		return nil, wrapError(err)
	}

	return keys, nil
}

// Clear implements [persistent.Store].
func (s *Store) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return wrapError(err)
	}
	defer s.pool.Put(conn)

	if err := sqlitex.Execute(conn, `DELETE FROM entries`, nil); err != nil {
		return wrapError(err)
	}

	return nil
}

// Close implements [persistent.Store].
func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// wrapError flags busy and locked database errors as transient.
func wrapError(err error) error {
	switch sqlite.ErrCode(err).ToPrimary() {
	case sqlite.ResultBusy, sqlite.ResultLocked:
		return errors.Wrap(persistent.ErrContention, err.Error())
	default:
		return errors.WithStack(err)
	}
}

var schema = sqlitemigration.Schema{
	Migrations: []string{
		`CREATE TABLE IF NOT EXISTS entries (
				key TEXT PRIMARY KEY,  -- Cached directory path
				value BLOB NOT NULL,   -- Encoded listing
				expires_at INTEGER     -- Expiration instant (Unix nanoseconds), NULL if the entry never expires
			);
		`,
	},
}

// NewStore opens the database at dbPath and applies the schema migrations
// before returning. An unusable database is reported immediately.
func NewStore(dbPath string, funcs ...StoreOptionFunc) (*Store, error) {
	s := &Store{
		now:     time.Now,
		timeout: DefaultOperationTimeout,
	}

	for _, fn := range funcs {
		fn(s)
	}

	pool, err := sqlitex.NewPool(dbPath, sqlitex.PoolOptions{
		Flags: sqlite.OpenCreate | sqlite.OpenReadWrite | sqlite.OpenWAL,
		PrepareConn: func(conn *sqlite.Conn) error {
			return sqlitex.ExecScript(conn, `PRAGMA busy_timeout = 1000;`)
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not open database '%s'", dbPath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	conn, err := pool.Take(ctx)
	if err != nil {
		pool.Close()
		return nil, errors.Wrapf(err, "could not open database '%s'", dbPath)
	}

	err = sqlitemigration.Migrate(ctx, conn, schema)
	pool.Put(conn)

	if err != nil {
		pool.Close()
		return nil, errors.Wrapf(err, "could not migrate database '%s'", dbPath)
	}

	s.pool = pool

	return s, nil
}

var _ persistent.Store = &Store{}
