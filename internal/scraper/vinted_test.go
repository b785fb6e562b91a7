package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brickwatch/legodealworker/config"
)

const vintedFixture = `{
  "items": [
    {
      "url": "https://www.vinted.fr/items/111",
      "title": "LEGO Technic 42182",
      "brand_title": "LEGO",
      "status": "Très bon état",
      "total_item_price": {"amount": "75.50", "currency_code": "EUR"},
      "photo": {"url": "https://images.vinted.net/111.jpg", "high_resolution": {"timestamp": 1712345678}}
    },
    {
      "url": "https://www.vinted.fr/items/222",
      "title": "Playmobil château",
      "brand_title": "Playmobil",
      "total_item_price": {"amount": "20.00", "currency_code": "EUR"}
    },
    {
      "url": "https://www.vinted.fr/items/333",
      "title": "LEGO vrac",
      "brand_title": "LEGO",
      "total_item_price": {"amount": "12", "currency_code": "EUR"}
    }
  ]
}`

func vintedConfig(baseURL string) *config.Config {
	return &config.Config{
		VintedURL:         baseURL,
		VintedAccessToken: "token123",
		VintedCSRFToken:   "csrf456",
		VintedCookie:      "datadome=abc",
	}
}

func TestVintedFetchByQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/catalog/items", r.URL.Path)
		assert.Equal(t, "lego 42182", r.URL.Query().Get("search_text"))
		assert.Equal(t, "96", r.URL.Query().Get("per_page"))
		assert.Equal(t, "csrf456", r.Header.Get("X-Csrf-Token"))
		assert.Contains(t, r.Header.Get("Cookie"), "access_token_web=token123")
		assert.Contains(t, r.Header.Get("Cookie"), "datadome=abc")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(vintedFixture))
	}))
	defer server.Close()

	s := NewVinted(vintedConfig(server.URL))

	sales := s.FetchByQuery(context.Background(), "42182")

	// Non-LEGO brands are filtered out
	require.Len(t, sales, 2)

	first := sales[0]
	assert.Equal(t, "https://www.vinted.fr/items/111", first.Link)
	assert.Equal(t, "LEGO Technic 42182", first.Title)
	assert.Equal(t, "75.50", first.Price)
	assert.Equal(t, "Très bon état", first.Status)
	assert.Equal(t, "https://images.vinted.net/111.jpg", first.Image)
	assert.Equal(t, int64(1712345678), first.PhotoTimestamp)

	second := sales[1]
	assert.Equal(t, "12", second.Price)
	assert.Zero(t, second.PhotoTimestamp)
	assert.Empty(t, second.Image)
}

func TestVintedFetchByQueryServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	s := NewVinted(vintedConfig(server.URL))

	// Failures degrade to an empty result, indistinguishable from no sales
	sales := s.FetchByQuery(context.Background(), "42182")
	assert.Empty(t, sales)
}

func TestVintedFetchByQueryUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	s := NewVinted(vintedConfig(server.URL))

	sales := s.FetchByQuery(context.Background(), "42182")
	assert.Empty(t, sales)
}

func TestVintedFetchByQueryMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	s := NewVinted(vintedConfig(server.URL))

	sales := s.FetchByQuery(context.Background(), "42182")
	assert.Empty(t, sales)
}
