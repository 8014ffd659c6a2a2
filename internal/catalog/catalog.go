// Package catalog is the sqlite bookkeeping table of which (crate, version)
// pairs have been ingested, per spec §4.7. It never stores the index
// itself — the in-memory registry.Index remains the sole source of truth
// for search — it only answers "have we already fetched this, and when"
// so a restarted daemon and the `status` command don't have to walk the
// in-memory index or re-fetch from docs.rs to find out.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Catalog struct {
	conn *sql.DB
}

// Entry is one bookkeeping row: a crate@version that has been ingested.
type Entry struct {
	Name       string
	Version    string
	IngestedAt time.Time
	ItemCount  int
}

func Open(dbPath string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	c := &Catalog{conn: conn}
	if err := c.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing catalog schema: %w", err)
	}
	return c, nil
}

func (c *Catalog) Close() error {
	return c.conn.Close()
}

func (c *Catalog) initSchema() error {
	_, err := c.conn.Exec(`CREATE TABLE IF NOT EXISTS crates (
		name TEXT NOT NULL,
		version TEXT NOT NULL,
		ingested_at TIMESTAMP NOT NULL,
		item_count INTEGER NOT NULL,
		PRIMARY KEY (name, version)
	)`)
	return err
}

// Upsert records that (name, version) was ingested with itemCount items,
// replacing any prior record for the same (name, version).
func (c *Catalog) Upsert(name, version string, itemCount int) error {
	_, err := c.conn.Exec(
		`INSERT INTO crates (name, version, ingested_at, item_count) VALUES (?, ?, ?, ?)
		 ON CONFLICT (name, version) DO UPDATE SET ingested_at = excluded.ingested_at, item_count = excluded.item_count`,
		name, version, time.Now().UTC(), itemCount,
	)
	if err != nil {
		return fmt.Errorf("upserting catalog entry: %w", err)
	}
	return nil
}

// List returns every catalog entry, ordered by name then version.
func (c *Catalog) List() ([]Entry, error) {
	rows, err := c.conn.Query(`SELECT name, version, ingested_at, item_count FROM crates ORDER BY name, version`)
	if err != nil {
		return nil, fmt.Errorf("listing catalog: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Version, &e.IngestedAt, &e.ItemCount); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the catalog entry for (name, version), or nil if absent.
func (c *Catalog) Get(name, version string) (*Entry, error) {
	var e Entry
	err := c.conn.QueryRow(
		`SELECT name, version, ingested_at, item_count FROM crates WHERE name = ? AND version = ?`,
		name, version,
	).Scan(&e.Name, &e.Version, &e.IngestedAt, &e.ItemCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting catalog entry: %w", err)
	}
	return &e, nil
}
