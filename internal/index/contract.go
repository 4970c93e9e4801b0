package index

// PageIndex defines the interface for page indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type PageIndex interface {
	UpsertPage(p PageRow) error
	DeletePage(url string) error
	GetChecksum(url string) (string, error)
	AllChecksums() (map[string]string, error)
	Search(query, collection string, limit int) ([]SearchResult, error)
	Close() error
}

// Searcher is the read side used by the HTTP and MCP surfaces.
type Searcher interface {
	Search(query, collection string, limit int) ([]SearchResult, error)
}

// Verify *DB satisfies PageIndex at compile time.
var _ PageIndex = (*DB)(nil)
