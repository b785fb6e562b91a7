package stats

import (
	"math"
	"sort"
	"strconv"
	"time"

	"brickwatch/legodealworker/internal/catalog"
)

// SalesIndicators is the derived market view over a sale collection.
// Recomputed on demand, never persisted. Field names and the 2-decimal
// price rounding are part of the presentation contract.
type SalesIndicators struct {
	TotalSales   int     `json:"totalSales"`
	AveragePrice float64 `json:"averagePrice"`
	P5Price      float64 `json:"p5Price"`
	P25Price     float64 `json:"p25Price"`
	P50Price     float64 `json:"p50Price"`
	LifetimeDays int     `json:"lifetimeDays"`
}

// ComputeIndicators derives the market indicators for a sale collection.
// Total function: an empty or all-unparseable input yields a counts-only
// zero struct, never an error.
func ComputeIndicators(sales []catalog.Sale) SalesIndicators {
	out := SalesIndicators{TotalSales: len(sales)}

	prices := ValidPrices(sales)
	if len(prices) == 0 {
		return out
	}
	sort.Float64s(prices)

	out.AveragePrice = RoundedMean(prices)
	out.P5Price = NearestRank(prices, 0.05)
	out.P25Price = NearestRank(prices, 0.25)
	out.P50Price = NearestRank(prices, 0.50)
	out.LifetimeDays = LifetimeDays(publishDates(sales))

	return out
}

// ValidPrices coerces each sale price to a number, discarding entries
// that do not parse to a finite non-negative value.
func ValidPrices(sales []catalog.Sale) []float64 {
	prices := make([]float64, 0, len(sales))
	for _, s := range sales {
		v, err := strconv.ParseFloat(s.Price, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			continue
		}
		prices = append(prices, v)
	}
	return prices
}

// RoundedMean is the arithmetic mean rounded to 2 decimal places,
// half away from zero. Returns 0 for an empty input.
func RoundedMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return math.Round(sum/float64(len(values))*100) / 100
}

// NearestRank returns the element at index floor(n*p) of an ascending
// sorted array. No interpolation: for even-sized inputs p=0.5 is not the
// conventional median. This exact rule is kept for comparability with
// historical indicator values.
func NearestRank(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(float64(n) * p))
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// LifetimeDays is the day span between the earliest and latest publish
// timestamps, rounded up. Zero or one valid date yields 0.
func LifetimeDays(dates []time.Time) int {
	if len(dates) == 0 {
		return 0
	}
	min, max := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	return int(math.Ceil(max.Sub(min).Hours() / 24))
}

// publishDates collects the parseable publish timestamps of a sale set
func publishDates(sales []catalog.Sale) []time.Time {
	dates := make([]time.Time, 0, len(sales))
	for _, s := range sales {
		if !s.PublishedAt.IsZero() {
			dates = append(dates, s.PublishedAt)
		}
	}
	return dates
}
