package domain

import "context"

// LogStore defines the interface for the document store log entries are
// persisted to and queried from. Implementations must be safe for concurrent
// use by many simultaneous requests; connection pooling is the store client's
// concern, not the caller's.
type LogStore interface {
	// Insert persists one entry as a write-once document keyed by its
	// correlation id.
	Insert(ctx context.Context, entry *LogEntry) error

	// Recent returns the newest entries, ordered by requestDateTime descending.
	Recent(ctx context.Context, limit int) ([]*LogEntry, error)

	// Search returns entries matching the resolved query, ordered by
	// requestDateTime descending and truncated to the query size.
	Search(ctx context.Context, q SearchQuery) ([]*LogEntry, error)

	// Aggregate reports the raw counts the statistics snapshot is derived from.
	Aggregate(ctx context.Context) (AggregateCounts, error)

	// Health reports the condition of the store.
	Health(ctx context.Context) (*StoreHealth, error)
}
