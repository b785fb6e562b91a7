package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"brickwatch/legodealworker/internal/catalog"
)

func intPtr(v int) *int {
	return &v
}

func testDeals() []catalog.Deal {
	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	return []catalog.Deal{
		{ID: "10001", Price: 50, Discount: intPtr(60), CommentCount: 5, Temperature: 120, PublishedAt: base},
		{ID: "10002", Price: 20, Discount: intPtr(30), CommentCount: 20, Temperature: 80, PublishedAt: base.Add(time.Hour)},
		{ID: "10003", Price: 80, Discount: intPtr(55), CommentCount: 2, Temperature: 200, PublishedAt: base.Add(2 * time.Hour)},
		{ID: "10004", Price: 35, CommentCount: 16, Temperature: 40, PublishedAt: base.Add(3 * time.Hour)},
		{ID: "10005", Price: 35, Discount: intPtr(10), CommentCount: 0, Temperature: 150, PublishedAt: base.Add(4 * time.Hour)},
	}
}

func TestSearchBestDiscount(t *testing.T) {
	resp := Search(testDeals(), Request{Filter: FilterBestDiscount})
	assert.Equal(t, 2, resp.TotalCount)
	assert.Equal(t, "10001", resp.Results[0].ID)
	assert.Equal(t, "10003", resp.Results[1].ID)
}

func TestSearchMostCommented(t *testing.T) {
	resp := Search(testDeals(), Request{Filter: FilterMostCommented})
	assert.Equal(t, 2, resp.TotalCount)
	assert.Equal(t, "10002", resp.Results[0].ID)
	assert.Equal(t, "10004", resp.Results[1].ID)
}

func TestSearchHotDeals(t *testing.T) {
	resp := Search(testDeals(), Request{Filter: FilterHotDeals})
	assert.Equal(t, 3, resp.TotalCount)
}

func TestSearchFavorites(t *testing.T) {
	favorites := map[string]bool{"10002": true, "10005": true}
	resp := Search(testDeals(), Request{Filter: FilterFavorites, Favorites: favorites})
	assert.Equal(t, 2, resp.TotalCount)
	assert.Equal(t, "10002", resp.Results[0].ID)
	assert.Equal(t, "10005", resp.Results[1].ID)
}

func TestSearchSortPrice(t *testing.T) {
	resp := Search(testDeals(), Request{Sort: SortPriceAsc})
	assert.Equal(t, "10002", resp.Results[0].ID)
	// Equal prices keep input order
	assert.Equal(t, "10004", resp.Results[1].ID)
	assert.Equal(t, "10005", resp.Results[2].ID)
	assert.Equal(t, "10003", resp.Results[4].ID)

	resp = Search(testDeals(), Request{Sort: SortPriceDesc})
	assert.Equal(t, "10003", resp.Results[0].ID)
}

func TestSearchSortDate(t *testing.T) {
	resp := Search(testDeals(), Request{Sort: SortDateDesc})
	assert.Equal(t, "10005", resp.Results[0].ID)

	resp = Search(testDeals(), Request{Sort: SortDateAsc})
	assert.Equal(t, "10001", resp.Results[0].ID)
}

func TestSearchSortHot(t *testing.T) {
	// discount=90, comments=0 -> score 63; discount=10, comments=10 -> score 10
	deals := []catalog.Deal{
		{ID: "20001", Discount: intPtr(10), CommentCount: 10},
		{ID: "20002", Discount: intPtr(90), CommentCount: 0},
	}

	assert.InDelta(t, 10.0, HotScore(deals[0]), 1e-9)
	assert.InDelta(t, 63.0, HotScore(deals[1]), 1e-9)

	resp := Search(deals, Request{Sort: SortHot})
	assert.Equal(t, "20002", resp.Results[0].ID)
	assert.Equal(t, "20001", resp.Results[1].ID)
}

func TestHotScoreAbsentDiscount(t *testing.T) {
	deal := catalog.Deal{ID: "20003", CommentCount: 10}
	assert.InDelta(t, 3.0, HotScore(deal), 1e-9)
}

func TestFilterAndSortCommute(t *testing.T) {
	deals := testDeals()

	// filter then sort
	filtered := applyFilter(deals, Request{Filter: FilterBestDiscount})
	applySort(filtered, SortPriceAsc)

	// sort then filter
	sorted := make([]catalog.Deal, len(deals))
	copy(sorted, deals)
	applySort(sorted, SortPriceAsc)
	refiltered := applyFilter(sorted, Request{Filter: FilterBestDiscount})

	assert.Equal(t, filtered, refiltered)
}

func TestSearchPagination(t *testing.T) {
	deals := make([]catalog.Deal, 25)
	for i := range deals {
		deals[i] = catalog.Deal{ID: fmt.Sprintf("%05d", 10000+i)}
	}

	resp := Search(deals, Request{Page: 1, PageSize: 6})
	assert.Equal(t, 25, resp.TotalCount)
	assert.Equal(t, 5, resp.PageCount)
	assert.Len(t, resp.Results, 6)

	// Last page is partial
	resp = Search(deals, Request{Page: 5, PageSize: 6})
	assert.Len(t, resp.Results, 1)

	// Out-of-range page yields an empty page, not an error
	resp = Search(deals, Request{Page: 6, PageSize: 6})
	assert.Empty(t, resp.Results)
	assert.Equal(t, 25, resp.TotalCount)
	assert.Equal(t, 5, resp.PageCount)
}

func TestSearchDefaults(t *testing.T) {
	resp := Search(testDeals(), Request{})
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 1, resp.PageCount)
	assert.Equal(t, 5, resp.TotalCount)
	// Default order preserves input order
	assert.Equal(t, "10001", resp.Results[0].ID)
	assert.Equal(t, "10005", resp.Results[4].ID)
}

func TestSearchEmptyCollection(t *testing.T) {
	resp := Search(nil, Request{Filter: FilterBestDiscount, Sort: SortHot})
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.TotalCount)
	assert.Equal(t, 0, resp.PageCount)
}
