//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(_ *sql.DB, _ string) error {
	// FTS5 not available; full-text search uses LIKE fallback on the pages table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ PageRow) error {
	// Body is already stored in the pages table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) error { return nil }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// search performs a LIKE-based search (fallback when FTS5 is not compiled
// in). Every term must appear in the title, description or body; title hits
// rank first.
func (db *DB) search(terms []string, collection string, limit int) ([]SearchResult, error) {
	var where []string
	args := []any{}
	for _, t := range terms {
		like := "%" + likeEscaper.Replace(t) + "%"
		where = append(where, `(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	titleLike := "%" + likeEscaper.Replace(terms[0]) + "%"
	args = append(args, collection, collection, titleLike, limit)

	rows, err := db.conn.Query(`
		SELECT url, collection, title, body
		FROM pages
		WHERE `+strings.Join(where, " AND ")+`
		  AND (? = '' OR collection = ?)
		ORDER BY (title LIKE ? ESCAPE '\') DESC, url
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Excerpt = excerpt(results[i].Excerpt, terms[0])
	}
	return results, nil
}
