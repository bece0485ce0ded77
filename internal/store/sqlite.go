package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/i474232898/whats-the-weather/internal/weather"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_state (
	id             INTEGER PRIMARY KEY CHECK (id = 1),
	last_call_time INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS city_entries (
	city_id  INTEGER PRIMARY KEY,
	current  BLOB,
	forecast BLOB
);`

// SQLiteStore persists the weather cache in a single SQLite file.
type SQLiteStore struct {
	path     string
	recreate bool
	db       *sql.DB
}

// NewSQLiteStore returns a store for the cache database at path. The file
// is opened (and created) on first Load or Save. When recreate is true a
// corrupt database is deleted and replaced by an empty one; otherwise an
// error wrapping weather.ErrStorageCorruption is returned.
func NewSQLiteStore(path string, recreate bool) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("cache path is required")
	}
	return &SQLiteStore{path: filepath.Clean(path), recreate: recreate}, nil
}

// ensureOpen opens the database once, recovering from corruption when
// configured to.
func (s *SQLiteStore) ensureOpen() error {
	if s.db != nil {
		return nil
	}
	err := s.open()
	if err == nil || !isCorrupt(err) || !s.recreate {
		return err
	}
	return s.reset(err)
}

func (s *SQLiteStore) open() error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", s.path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return classify("ping sqlite db", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return classify("apply schema", err)
	}
	s.db = db
	return nil
}

// reset throws the database file away and starts over with an empty one.
func (s *SQLiteStore) reset(cause error) error {
	log.Printf("WARN: recreating weather cache %s: %v", s.path, cause)
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
	for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
		if err := os.Remove(s.path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove corrupt cache: %w", err)
		}
	}
	return s.open()
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Load reads the cache. An empty database is initialised with
// weather.NewCacheState and written back before returning.
func (s *SQLiteStore) Load(ctx context.Context) (weather.CacheState, error) {
	state, err := s.load(ctx)
	if err == nil || !isCorrupt(err) || !s.recreate {
		return state, err
	}
	if err := s.reset(err); err != nil {
		return weather.CacheState{}, err
	}
	return s.load(ctx)
}

func (s *SQLiteStore) load(ctx context.Context) (weather.CacheState, error) {
	if err := ctx.Err(); err != nil {
		return weather.CacheState{}, err
	}
	if err := s.ensureOpen(); err != nil {
		return weather.CacheState{}, err
	}

	var raw any
	err := s.db.QueryRowContext(ctx, `SELECT last_call_time FROM cache_state WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		fresh := weather.NewCacheState()
		if err := s.Save(ctx, fresh); err != nil {
			return weather.CacheState{}, err
		}
		log.Printf("INFO: initialised weather cache at %s", s.path)
		return fresh, nil
	}
	if err != nil {
		return weather.CacheState{}, classify("read cache state", err)
	}
	// Anything but an integer was not written by Save.
	nanos, ok := raw.(int64)
	if !ok {
		return weather.CacheState{}, fmt.Errorf("%w: last_call_time holds %T, want integer", weather.ErrStorageCorruption, raw)
	}

	state := weather.CacheState{
		LastCallTime: fromNanos(nanos),
		Entries:      make(map[int64]weather.CityWeatherEntry),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT city_id, current, forecast FROM city_entries ORDER BY city_id`)
	if err != nil {
		return weather.CacheState{}, classify("read city entries", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e                 weather.CityWeatherEntry
			current, forecast []byte
		)
		if err := rows.Scan(&e.CityID, &current, &forecast); err != nil {
			return weather.CacheState{}, fmt.Errorf("%w: scan city entry: %v", weather.ErrStorageCorruption, err)
		}
		e.Current = current
		e.Forecast = forecast
		state.Entries[e.CityID] = e
	}
	if err := rows.Err(); err != nil {
		return weather.CacheState{}, classify("read city entries", err)
	}

	return state, nil
}

// Save replaces the last call time and every entry in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, state weather.CacheState) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureOpen(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin cache transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO cache_state (id, last_call_time) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET last_call_time = excluded.last_call_time`,
		toNanos(state.LastCallTime),
	); err != nil {
		return classify("write cache state", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM city_entries`); err != nil {
		return classify("clear city entries", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO city_entries (city_id, current, forecast) VALUES (?, ?, ?)`)
	if err != nil {
		return classify("prepare city entry insert", err)
	}
	defer stmt.Close()

	for id, e := range state.Entries {
		if _, err = stmt.ExecContext(ctx, id, nullableBlob(e.Current), nullableBlob(e.Forecast)); err != nil {
			return classify("write city entry", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return classify("commit cache transaction", err)
	}
	return nil
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// nullableBlob keeps unset slots as SQL NULL so they load back as nil.
func nullableBlob(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

func classify(op string, err error) error {
	if isCorruptCode(err) {
		return fmt.Errorf("%w: %s: %v", weather.ErrStorageCorruption, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isCorrupt(err error) bool {
	return errors.Is(err, weather.ErrStorageCorruption)
}

func isCorruptCode(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_CORRUPT, sqlite3lib.SQLITE_NOTADB:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "file is not a database") ||
		strings.Contains(message, "database disk image is malformed")
}

var _ weather.Store = (*SQLiteStore)(nil)
