package scraper

import "context"

// RawDeal is a deal record as extracted from a source page, before
// normalization. Optional upstream fields stay pointers so that "absent"
// and "zero" remain distinguishable downstream.
type RawDeal struct {
	Link         string
	ThreadID     string
	Title        string
	Price        *float64
	RetailPrice  *float64
	Temperature  *float64
	CommentCount int
	PublishedAt  int64
	Image        string
}

// RawSale is a marketplace listing as returned by the catalog API.
// Price is kept verbatim; unparseable prices are still renderable.
type RawSale struct {
	Link           string
	Title          string
	Price          string
	Image          string
	Status         string
	PhotoTimestamp int64
}

// DealSource fetches raw deal records from a paginated source
type DealSource interface {
	// FetchPage retrieves the raw deals of a single page
	FetchPage(ctx context.Context, page int) ([]RawDeal, error)

	// Scrape fetches the given number of pages with bounded concurrency
	// and returns the union of all pages that succeeded
	Scrape(ctx context.Context, pages int) []RawDeal

	// Name returns the source name for logging and record tagging
	Name() string
}

// SaleSource fetches raw sale records for a product-set query key
type SaleSource interface {
	// FetchByQuery retrieves the listings observed for a set id.
	// It never fails; any transport or parse error yields an empty slice.
	FetchByQuery(ctx context.Context, setID string) []RawSale

	// Name returns the source name for logging and record tagging
	Name() string
}
