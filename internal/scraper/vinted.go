package scraper

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"brickwatch/legodealworker/config"
	"brickwatch/legodealworker/logger"
)

const (
	vintedSourceName  = "vinted"
	vintedBrandFilter = "LEGO"
	vintedSearchTerm  = "lego"
	vintedPerPage     = 96
	vintedCatalogPath = "/api/v2/catalog/items"
)

// Credentials is the opaque session bundle the catalog API requires.
// Acquisition and refresh happen outside this package.
type Credentials struct {
	AccessToken string
	CSRFToken   string
	Cookie      string
}

// Vinted fetches resale listings for a given set id from the Vinted
// catalog API. Per contract it never returns an error: transport and
// parse failures degrade to an empty result, so "no sales found" and
// "fetch failed" are indistinguishable to callers.
type Vinted struct {
	client *resty.Client
	creds  Credentials
	log    *logger.Logger
}

// NewVinted creates a Vinted scraper
func NewVinted(cfg *config.Config) *Vinted {
	client := resty.New().
		SetBaseURL(cfg.VintedURL).
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/json, text/plain, */*").
		SetHeader("Accept-Language", "fr").
		SetHeader("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)").
		SetHeader("Sec-Fetch-Dest", "empty").
		SetHeader("Sec-Fetch-Mode", "cors").
		SetHeader("Sec-Fetch-Site", "same-origin")

	return &Vinted{
		client: client,
		creds: Credentials{
			AccessToken: cfg.VintedAccessToken,
			CSRFToken:   cfg.VintedCSRFToken,
			Cookie:      cfg.VintedCookie,
		},
		log: logger.ForScraper(vintedSourceName),
	}
}

// Name returns the source name
func (s *Vinted) Name() string {
	return vintedSourceName
}

// catalogResponse mirrors the catalog API item list
type catalogResponse struct {
	Items []catalogItem `json:"items"`
}

type catalogItem struct {
	URL            string `json:"url"`
	Title          string `json:"title"`
	BrandTitle     string `json:"brand_title"`
	Status         string `json:"status"`
	TotalItemPrice struct {
		Amount json.Number `json:"amount"`
	} `json:"total_item_price"`
	Photo *struct {
		URL            string `json:"url"`
		HighResolution *struct {
			Timestamp int64 `json:"timestamp"`
		} `json:"high_resolution"`
	} `json:"photo"`
}

// FetchByQuery fetches the listings observed for a set id. Items whose
// brand tag does not match the product line are dropped.
func (s *Vinted) FetchByQuery(ctx context.Context, setID string) []RawSale {
	var result catalogResponse

	req := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page":        "1",
			"per_page":    strconv.Itoa(vintedPerPage),
			"search_text": vintedSearchTerm + " " + setID,
		}).
		SetResult(&result)

	if s.creds.CSRFToken != "" {
		req.SetHeader("X-Csrf-Token", s.creds.CSRFToken)
	}
	if cookie := s.sessionCookie(); cookie != "" {
		req.SetHeader("Cookie", cookie)
	}

	resp, err := req.Get(vintedCatalogPath)
	if err != nil {
		s.log.Warn().Err(err).Str("set_id", setID).Msg("Catalog fetch failed, returning no sales")
		return nil
	}
	if resp.IsError() {
		s.log.Warn().Int("status", resp.StatusCode()).Str("set_id", setID).Msg("Catalog fetch rejected, returning no sales")
		return nil
	}

	sales := make([]RawSale, 0, len(result.Items))
	for _, item := range result.Items {
		if item.BrandTitle != vintedBrandFilter {
			continue
		}

		raw := RawSale{
			Link:   item.URL,
			Title:  item.Title,
			Price:  item.TotalItemPrice.Amount.String(),
			Status: item.Status,
		}
		if item.Photo != nil {
			raw.Image = item.Photo.URL
			if item.Photo.HighResolution != nil {
				raw.PhotoTimestamp = item.Photo.HighResolution.Timestamp
			}
		}
		sales = append(sales, raw)
	}

	s.log.Debug().Str("set_id", setID).Int("count", len(sales)).Msg("Fetched sales")
	return sales
}

// sessionCookie assembles the cookie header from the credential bundle
func (s *Vinted) sessionCookie() string {
	cookie := s.creds.Cookie
	if s.creds.AccessToken != "" {
		if cookie != "" {
			cookie += "; "
		}
		cookie += "access_token_web=" + s.creds.AccessToken
	}
	return cookie
}
