// Package cache provides a SQLite-backed response cache for external
// lookups. Entries are keyed by service tag and request key and expire
// after a per-entry TTL. The cache is purely an optimization: callers
// work identically without one.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Fetch is a keyed text fetcher, typically a wrapped HTTP GET.
type Fetch func(ctx context.Context, key string) (string, error)

// Memoize wraps fetch so results are remembered in the cache under tag.
// A nil cache returns fetch unchanged.
func Memoize(c *Cache, tag string, ttl time.Duration, fetch Fetch) Fetch {
	if c == nil {
		return fetch
	}
	return func(ctx context.Context, key string) (string, error) {
		return c.Remember(tag, key, ttl, func() (string, error) {
			return fetch(ctx, key)
		})
	}
}

// Cache stores fetched response text with an expiry timestamp.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates a cache database at the given path. Rows whose
// TTL elapsed are pruned on open.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	c := &Cache{db: db, now: time.Now}
	if _, err := db.Exec("DELETE FROM responses WHERE expires_at <= ?", c.now().Unix()); err != nil {
		db.Close()
		return nil, fmt.Errorf("pruning cache: %w", err)
	}
	return c, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS responses (
			tag        TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			PRIMARY KEY (tag, key)
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Get returns the value cached under (tag, key), if present and not
// expired.
func (c *Cache) Get(tag, key string) (string, bool, error) {
	var value string
	var expires int64
	err := c.db.QueryRow(
		"SELECT value, expires_at FROM responses WHERE tag = ? AND key = ?",
		tag, key).Scan(&value, &expires)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading cache: %w", err)
	}
	if c.now().Unix() >= expires {
		return "", false, nil
	}
	return value, true, nil
}

// Put stores value under (tag, key) for ttl, replacing any previous
// value.
func (c *Cache) Put(tag, key, value string, ttl time.Duration) error {
	expires := c.now().Add(ttl).Unix()
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO responses (tag, key, value, expires_at)
		VALUES (?, ?, ?, ?)
	`, tag, key, value, expires)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Remember returns the value cached under (tag, key), calling fetch and
// storing its result on a miss. A fetch error is returned as-is and
// nothing is cached.
func (c *Cache) Remember(tag, key string, ttl time.Duration, fetch func() (string, error)) (string, error) {
	value, ok, err := c.Get(tag, key)
	if err != nil {
		return "", err
	}
	if ok {
		return value, nil
	}

	value, err = fetch()
	if err != nil {
		return "", err
	}
	if err := c.Put(tag, key, value, ttl); err != nil {
		return "", err
	}
	return value, nil
}
