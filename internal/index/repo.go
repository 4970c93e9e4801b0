package index

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// DefaultLimit bounds search results when the caller passes no limit.
const DefaultLimit = 20

// PageRow represents a row in the pages table.
type PageRow struct {
	URL         string
	Collection  string
	Title       string
	Description string
	Body        string
	Checksum    string
}

// SearchResult represents one search hit.
type SearchResult struct {
	URL        string
	Collection string
	Title      string
	Excerpt    string
}

// UpsertPage inserts or replaces a page and its FTS entry within a transaction.
func (db *DB) UpsertPage(p PageRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	// Upsert pages table (includes body for fallback search).
	_, err = tx.Exec(`
		INSERT INTO pages (url, collection, title, description, body, checksum)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			collection  = excluded.collection,
			title       = excluded.title,
			description = excluded.description,
			body        = excluded.body,
			checksum    = excluded.checksum
	`, p.URL, p.Collection, p.Title, p.Description, p.Body, p.Checksum)
	if err != nil {
		return fmt.Errorf("index: upsert page: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

// DeletePage removes a page and its FTS entry.
func (db *DB) DeletePage(url string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, url); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM pages WHERE url = ?`, url); err != nil {
		return fmt.Errorf("index: delete page: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a page, or empty string if not found.
func (db *DB) GetChecksum(url string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM pages WHERE url = ?`, url).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns the checksum of every indexed page keyed by URL.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT url, checksum FROM pages`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var url, cs string
		if err := rows.Scan(&url, &cs); err != nil {
			return nil, err
		}
		out[url] = cs
	}
	return out, rows.Err()
}

// Search returns pages matching every term of query, best match first.
// An empty collection searches all collections. A query without terms
// yields no results.
func (db *DB) Search(query, collection string, limit int) ([]SearchResult, error) {
	terms := Terms(query)
	if len(terms) == 0 {
		return []SearchResult{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return db.search(terms, collection, limit)
}

// Terms splits a user query into lower-cased word tokens. Punctuation and
// query operators are discarded, so the result is safe to quote into FTS
// and LIKE patterns.
func Terms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	defer rows.Close()
	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.URL, &r.Collection, &r.Title, &r.Excerpt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
