package query

import (
	"sort"

	"brickwatch/legodealworker/internal/catalog"
)

// Hot score weights. A heuristic blend, not a statistically derived
// weighting; keep them tunable here.
const (
	HotDiscountWeight = 0.7
	HotCommentWeight  = 0.3
)

// Filter thresholds
const (
	BestDiscountMin   = 50
	MostCommentedMin  = 15
	HotTemperatureMin = 100
)

// DefaultPageSize is used when a request does not specify a page size
const DefaultPageSize = 12

// Filter selects a predicate applied to the deal collection
type Filter string

const (
	FilterNone          Filter = ""
	FilterBestDiscount  Filter = "best-discount"
	FilterMostCommented Filter = "most-commented"
	FilterHotDeals      Filter = "hot-deals"
	FilterFavorites     Filter = "favorites"
)

// Sort selects a comparator applied after filtering
type Sort string

const (
	SortNone      Sort = ""
	SortPriceAsc  Sort = "price-asc"
	SortPriceDesc Sort = "price-desc"
	SortDateAsc   Sort = "date-asc"
	SortDateDesc  Sort = "date-desc"
	SortHot       Sort = "hot"
)

// Request describes one query over a deal collection snapshot. Every call
// is a pure function of the request and the snapshot; no ambient state.
type Request struct {
	Filter   Filter
	Sort     Sort
	Page     int
	PageSize int
	// Favorites is the caller-supplied id set used by FilterFavorites
	Favorites map[string]bool
}

// Response is the page of records handed to the presentation boundary
type Response struct {
	Results    []catalog.Deal `json:"results"`
	TotalCount int            `json:"totalCount"`
	Page       int            `json:"page"`
	PageCount  int            `json:"pageCount"`
}

// Search filters, sorts and paginates a deal collection. Filters apply
// first, then the sort, then pagination. Default order is input order,
// and ties never reorder. An out-of-range page yields an empty page.
func Search(deals []catalog.Deal, req Request) Response {
	filtered := applyFilter(deals, req)
	applySort(filtered, req.Sort)

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	total := len(filtered)
	pageCount := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start >= total {
		return Response{
			Results:    []catalog.Deal{},
			TotalCount: total,
			Page:       page,
			PageCount:  pageCount,
		}
	}

	end := start + pageSize
	if end > total {
		end = total
	}

	return Response{
		Results:    filtered[start:end],
		TotalCount: total,
		Page:       page,
		PageCount:  pageCount,
	}
}

// HotScore blends discount and comment count into the composite ranking
// score. An absent discount counts as zero.
func HotScore(d catalog.Deal) float64 {
	discount := 0
	if d.Discount != nil {
		discount = *d.Discount
	}
	return HotDiscountWeight*float64(discount) + HotCommentWeight*float64(d.CommentCount)
}

func applyFilter(deals []catalog.Deal, req Request) []catalog.Deal {
	out := make([]catalog.Deal, 0, len(deals))
	for _, d := range deals {
		if matches(d, req) {
			out = append(out, d)
		}
	}
	return out
}

func matches(d catalog.Deal, req Request) bool {
	switch req.Filter {
	case FilterBestDiscount:
		return d.Discount != nil && *d.Discount >= BestDiscountMin
	case FilterMostCommented:
		return d.CommentCount >= MostCommentedMin
	case FilterHotDeals:
		return d.Temperature >= HotTemperatureMin
	case FilterFavorites:
		return req.Favorites[d.ID]
	default:
		return true
	}
}

func applySort(deals []catalog.Deal, s Sort) {
	switch s {
	case SortPriceAsc:
		sort.SliceStable(deals, func(i, j int) bool { return deals[i].Price < deals[j].Price })
	case SortPriceDesc:
		sort.SliceStable(deals, func(i, j int) bool { return deals[i].Price > deals[j].Price })
	case SortDateAsc:
		sort.SliceStable(deals, func(i, j int) bool { return deals[i].PublishedAt.Before(deals[j].PublishedAt) })
	case SortDateDesc:
		sort.SliceStable(deals, func(i, j int) bool { return deals[i].PublishedAt.After(deals[j].PublishedAt) })
	case SortHot:
		sort.SliceStable(deals, func(i, j int) bool { return HotScore(deals[i]) > HotScore(deals[j]) })
	}
}
