package catalog

import "time"

// Source identifies the adapter that produced a record
type Source string

const (
	SourceDealabs Source = "dealabs"
	SourceVinted  Source = "vinted"
)

// Deal is a normalized discount listing. Immutable after normalization;
// persisted as an upsert keyed by (id, source).
type Deal struct {
	ID           string    `bson:"id" json:"id"`
	Source       Source    `bson:"source" json:"source"`
	Link         string    `bson:"link" json:"link"`
	Title        string    `bson:"title" json:"title"`
	Price        float64   `bson:"price" json:"price"`
	RetailPrice  *float64  `bson:"retailPrice,omitempty" json:"retailPrice,omitempty"`
	Discount     *int      `bson:"discount,omitempty" json:"discount,omitempty"`
	Temperature  int       `bson:"temperature" json:"temperature"`
	CommentCount int       `bson:"commentCount" json:"commentCount"`
	Image        string    `bson:"image,omitempty" json:"image,omitempty"`
	PublishedAt  time.Time `bson:"publishedAt" json:"publishedAt"`
}

// Sale is a normalized marketplace resale observation for a set id.
// Each fetch produces a fresh snapshot; historical snapshots coexist
// keyed by (legoSetId, scrapedAt). Price stays a string: listings whose
// price does not parse are excluded from aggregation but still render.
type Sale struct {
	LegoSetID   string    `bson:"legoSetId" json:"legoSetId"`
	Link        string    `bson:"link" json:"link"`
	Title       string    `bson:"title" json:"title"`
	Price       string    `bson:"price" json:"price"`
	Image       string    `bson:"image,omitempty" json:"image,omitempty"`
	Status      string    `bson:"status,omitempty" json:"status,omitempty"`
	PublishedAt time.Time `bson:"publishedAt" json:"publishedAt"`
	ScrapedAt   time.Time `bson:"scrapedAt" json:"scrapedAt"`
}
