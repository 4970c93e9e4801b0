//go:build sqlite_fts5

package index

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// initFTS creates the FTS5 table. A tokenizer change rebuilds the table and
// clears the page checksums so the next sync re-indexes everything.
func initFTS(conn *sql.DB, tokenizer string) error {
	var current string
	err := conn.QueryRow(`SELECT value FROM index_meta WHERE key = 'tokenizer'`).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if current != "" && current != tokenizer {
		if _, err := conn.Exec(`DROP TABLE IF EXISTS pages_fts; UPDATE pages SET checksum = '';`); err != nil {
			return err
		}
	}
	_, err = conn.Exec(fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS pages_fts USING fts5(
			url UNINDEXED,
			collection UNINDEXED,
			title,
			description,
			body,
			tokenize = '%s'
		);
	`, tokenizer))
	if err != nil {
		return err
	}
	_, err = conn.Exec(`INSERT INTO index_meta (key, value) VALUES ('tokenizer', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, tokenizer)
	return err
}

func ftsUpsert(tx *sql.Tx, p PageRow) error {
	if err := ftsDelete(tx, p.URL); err != nil {
		return err
	}
	_, err := tx.Exec(`INSERT INTO pages_fts (url, collection, title, description, body) VALUES (?, ?, ?, ?, ?)`,
		p.URL, p.Collection, p.Title, p.Description, p.Body)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, url string) error {
	if _, err := tx.Exec(`DELETE FROM pages_fts WHERE url = ?`, url); err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	return nil
}

// matchExpr quotes every term and enables prefix matching on the last one,
// so partially typed words still match.
func matchExpr(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	quoted[len(quoted)-1] += "*"
	return strings.Join(quoted, " ")
}

// search performs an FTS5 full-text search ranked by bm25, title weighted
// above description above body.
func (db *DB) search(terms []string, collection string, limit int) ([]SearchResult, error) {
	rows, err := db.conn.Query(`
		SELECT url,
		       collection,
		       title,
		       snippet(pages_fts, 4, '', '', '…', 24)
		FROM pages_fts
		WHERE pages_fts MATCH ?
		  AND (? = '' OR collection = ?)
		ORDER BY bm25(pages_fts, 0.0, 0.0, 10.0, 4.0, 1.0), url
		LIMIT ?
	`, matchExpr(terms), collection, collection, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
