package catalog

import (
	"math"
	"regexp"
	"strings"
	"time"

	"brickwatch/legodealworker/internal/scraper"
	apperrors "brickwatch/legodealworker/pkg/errors"
)

var (
	// 5-digit token anywhere in the listing URL path
	dealIDToken = regexp.MustCompile(`\b\d{5}\b`)
	// A valid record id is exactly 5 digits. Precision filter: ids of a
	// different shape belong to accessories and unrelated threads.
	dealIDExact = regexp.MustCompile(`^\d{5}$`)
)

// NormalizeDeal converts a raw deal record into the canonical schema.
// Pure and idempotent: the same raw record always yields identical output.
// A record whose required fields are unparseable is rejected with a
// validation error rather than half-populated.
func NormalizeDeal(raw scraper.RawDeal, source Source) (*Deal, error) {
	link := strings.TrimSpace(raw.Link)
	title := strings.TrimSpace(raw.Title)
	if link == "" || title == "" {
		return nil, apperrors.NewValidation(string(source), "deal is missing link or title")
	}

	id := dealIDToken.FindString(link)
	if id == "" {
		id = raw.ThreadID
	}
	if !dealIDExact.MatchString(id) {
		return nil, apperrors.NewValidation(string(source), "deal id does not match the 5-digit pattern: "+id)
	}

	if raw.Price == nil || !isFiniteNonNegative(*raw.Price) {
		return nil, apperrors.NewValidation(string(source), "deal has no usable price")
	}
	price := *raw.Price

	deal := &Deal{
		ID:           id,
		Source:       source,
		Link:         link,
		Title:        title,
		Price:        price,
		Temperature:  clampNonNegative(raw.Temperature),
		CommentCount: max(raw.CommentCount, 0),
		Image:        raw.Image,
	}

	if raw.RetailPrice != nil && isFiniteNonNegative(*raw.RetailPrice) {
		retail := *raw.RetailPrice
		deal.RetailPrice = &retail

		// Guard against division by zero; discount stays absent
		if retail > 0 {
			discount := int(math.Round((1 - price/retail) * 100))
			deal.Discount = &discount
		}
	}

	if raw.PublishedAt > 0 {
		deal.PublishedAt = time.Unix(raw.PublishedAt, 0).UTC()
	}

	return deal, nil
}

// NormalizeSale converts a raw sale record into the canonical schema.
// The price string is kept verbatim.
func NormalizeSale(raw scraper.RawSale, setID string, scrapedAt time.Time) (*Sale, error) {
	link := strings.TrimSpace(raw.Link)
	title := strings.TrimSpace(raw.Title)
	if link == "" || title == "" {
		return nil, apperrors.NewValidation(string(SourceVinted), "sale is missing link or title")
	}

	sale := &Sale{
		LegoSetID: setID,
		Link:      link,
		Title:     title,
		Price:     strings.TrimSpace(raw.Price),
		Image:     raw.Image,
		Status:    raw.Status,
		ScrapedAt: scrapedAt,
	}

	if raw.PhotoTimestamp > 0 {
		sale.PublishedAt = time.Unix(raw.PhotoTimestamp, 0).UTC()
	}

	return sale, nil
}

func isFiniteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func clampNonNegative(v *float64) int {
	if v == nil || math.IsNaN(*v) || *v < 0 {
		return 0
	}
	return int(math.Round(*v))
}
