package store

import (
	"context"
	"time"

	"brickwatch/legodealworker/internal/catalog"
)

// DealQuery describes a persisted-deal lookup. Only equality/range
// filters and a single-key sort are supported; richer composition
// happens in the query engine over the returned snapshot.
type DealQuery struct {
	MaxPrice       *float64
	PublishedAfter *time.Time
	SortField      string
	SortAsc        bool
	Limit          int64
	Skip           int64
}

// Store is the persistence gateway the pipeline writes normalized
// records to and the query engine reads from.
type Store interface {
	// UpsertDeals writes deals keyed by (id, source) and returns the
	// number of documents created or replaced
	UpsertDeals(ctx context.Context, deals []catalog.Deal) (int, error)

	// InsertSales appends a fresh sale snapshot and returns the number
	// of documents inserted
	InsertSales(ctx context.Context, sales []catalog.Sale) (int, error)

	// FindDeals returns the deals matching a query
	FindDeals(ctx context.Context, q DealQuery) ([]catalog.Deal, error)

	// CountDeals returns the number of deals matching a query's filters
	CountDeals(ctx context.Context, q DealQuery) (int64, error)

	// FindSales returns the sales observed for a set id, most recently
	// published first
	FindSales(ctx context.Context, setID string, limit int64) ([]catalog.Sale, error)

	// Close releases the underlying connection
	Close(ctx context.Context) error
}
