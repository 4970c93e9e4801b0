package index

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "evomics-test.db"), "english")
	require.NoError(t, err, "Open")
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	require.NoError(t, db.conn.QueryRow(`SELECT count(*) FROM pages`).Scan(&count), "pages table missing")
}

func TestOpen_UnknownLanguage(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "x.db"), "not a language!")
	require.Error(t, err)
}

func TestTokenizer(t *testing.T) {
	cases := map[string]string{
		"english": "porter unicode61 remove_diacritics 2",
		"English": "porter unicode61 remove_diacritics 2",
		"en-GB":   "porter unicode61 remove_diacritics 2",
		"":        "porter unicode61 remove_diacritics 2",
		"german":  "unicode61 remove_diacritics 2",
		"fr":      "unicode61 remove_diacritics 2",
	}
	for lang, want := range cases {
		got, err := Tokenizer(lang)
		require.NoError(t, err, "Tokenizer(%q)", lang)
		assert.Equal(t, want, got, "Tokenizer(%q)", lang)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := PageRow{
		URL:        "/unix/setup/install",
		Collection: "unix",
		Title:      "Installing the tools",
		Body:       "Use conda for reproducible environments.",
		Checksum:   "abc123",
	}
	require.NoError(t, db.UpsertPage(row))

	cs, err := db.GetChecksum("/unix/setup/install")
	require.NoError(t, err)
	require.Equal(t, "abc123", cs)
}

func TestDeletePage(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.UpsertPage(PageRow{URL: "/unix/del", Collection: "unix", Title: "Gone", Body: "vanishing", Checksum: "x"}))
	require.NoError(t, db.DeletePage("/unix/del"))

	cs, _ := db.GetChecksum("/unix/del")
	require.Empty(t, cs, "deleted page still has a checksum")
	results, _ := db.Search("vanishing", "", 10)
	require.Empty(t, results, "deleted page still searchable")
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.UpsertPage(PageRow{URL: "/r", Collection: "r", Title: "Old", Body: "original text", Checksum: "1"}))
	require.NoError(t, db.UpsertPage(PageRow{URL: "/r", Collection: "r", Title: "New", Body: "replacement text", Checksum: "2"}))

	cs, _ := db.GetChecksum("/r")
	require.Equal(t, "2", cs)

	old, _ := db.Search("original", "", 10)
	require.Empty(t, old, "old content should be gone")
	results, _ := db.Search("replacement", "", 10)
	require.Len(t, results, 1)
	require.Equal(t, "New", results[0].Title)
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("/nonexistent")
	require.NoError(t, err)
	require.Empty(t, cs)
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.UpsertPage(PageRow{URL: "/unix/s", Collection: "unix", Title: "Search Me", Body: "uniqueword appears here", Checksum: "1"}))

	results, err := db.Search("uniqueword", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "/unix/s", results[0].URL)
	require.Equal(t, "unix", results[0].Collection)
	require.NotEmpty(t, results[0].Excerpt)
}

func TestSearch_CollectionFilter(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.UpsertPage(PageRow{URL: "/unix/a", Collection: "unix", Title: "A", Body: "shared genome", Checksum: "1"}))
	require.NoError(t, db.UpsertPage(PageRow{URL: "/r/b", Collection: "r", Title: "B", Body: "shared genome", Checksum: "2"}))

	all, _ := db.Search("genome", "", 10)
	require.Len(t, all, 2)

	r, _ := db.Search("genome", "r", 10)
	require.Len(t, r, 1)
	require.Equal(t, "/r/b", r[0].URL)
}

func TestSearch_AllTermsAndOperatorsIgnored(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.UpsertPage(PageRow{URL: "/unix/grep", Collection: "unix", Title: "Grep", Body: "search fasta files with grep", Checksum: "1"}))
	require.NoError(t, db.UpsertPage(PageRow{URL: "/unix/sed", Collection: "unix", Title: "Sed", Body: "edit fasta streams", Checksum: "2"}))

	results, err := db.Search(`fasta "gre*`, "", 10)
	require.NoError(t, err, "Search with operators")
	require.Len(t, results, 1)
	require.Equal(t, "/unix/grep", results[0].URL)

	for _, q := range []string{"", "   ", `"*()`} {
		results, err := db.Search(q, "", 10)
		require.NoError(t, err, "Search(%q)", q)
		require.NotNil(t, results, "Search(%q) must return an empty slice", q)
		require.Empty(t, results, "Search(%q)", q)
	}
}

func TestSearch_LikeWildcardsAreLiteral(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.UpsertPage(PageRow{URL: "/unix/a", Collection: "unix", Title: "A", Body: "plain text", Checksum: "1"}))
	results, _ := db.Search("%", "", 10)
	require.Empty(t, results, "wildcard matched")
}

func TestTerms(t *testing.T) {
	require.Equal(t, []string{"grep", "c", "fasta"}, Terms(`Grep -c "FASTA" grep`))
}

func TestExcerpt(t *testing.T) {
	body := "start " + strings.Repeat("filler ", 40) + "needle" + strings.Repeat(" tail", 40)
	ex := excerpt(body, "NEEDLE")
	require.Contains(t, ex, "needle")
	require.True(t, strings.HasPrefix(ex, "…"), "excerpt should be elided at the start: %q", ex)
	require.True(t, strings.HasSuffix(ex, "…"), "excerpt should be elided at the end: %q", ex)
	require.Equal(t, "short body", excerpt("short body", "missing"))
}
