package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"brickwatch/legodealworker/config"
	"brickwatch/legodealworker/helpers"
	"brickwatch/legodealworker/logger"
	apperrors "brickwatch/legodealworker/pkg/errors"
	"brickwatch/legodealworker/services/cache"
)

const (
	dealabsSourceName = "dealabs"
	dealabsSearchTerm = "lego"

	// Thread images live on a separate static host with a fixed path template
	dealabsImageTemplate = "https://static-pepper.dealabs.com/threads/raw/%s/%s/re/300x300/qt/60/%s.%s"
)

// Dealabs scrapes paginated deal listings from the Dealabs search page.
// The HTML is only a locator; the authoritative data is the JSON payload
// each listing article embeds in its data-vue2 attribute.
type Dealabs struct {
	baseURL     string
	cacheSvc    cache.CacheService
	cacheKey    string
	blockTime   time.Duration
	concurrency int
	log         *logger.Logger

	// fetchFunc is swappable for tests
	fetchFunc func(ctx context.Context, url string) (io.Reader, error)
}

// NewDealabs creates a Dealabs scraper
func NewDealabs(cfg *config.Config, cacheSvc cache.CacheService) *Dealabs {
	return &Dealabs{
		baseURL:     cfg.DealabsURL,
		cacheSvc:    cacheSvc,
		cacheKey:    "dealabs_rate_limited",
		blockTime:   300 * time.Second,
		concurrency: cfg.ScrapeConcurrency,
		log:         logger.ForScraper(dealabsSourceName),
		fetchFunc:   helpers.FetchWithBrowserHeaders,
	}
}

// Name returns the source name
func (s *Dealabs) Name() string {
	return dealabsSourceName
}

// FetchPage fetches and parses a single search result page
func (s *Dealabs) FetchPage(ctx context.Context, page int) ([]RawDeal, error) {
	// Back off while the rate-limit block key is alive
	if s.cacheSvc != nil && s.cacheKey != "" {
		if _, err := s.cacheSvc.Get(s.cacheKey); err == nil {
			return nil, apperrors.NewRateLimit(dealabsSourceName, s.blockTime)
		}
	}

	pageURL := fmt.Sprintf("%s/search?q=%s&page=%d", s.baseURL, url.QueryEscape(dealabsSearchTerm), page)

	body, err := s.fetchFunc(ctx, pageURL)
	if err != nil {
		if strings.HasPrefix(err.Error(), "rate limited") {
			if s.cacheSvc != nil && s.cacheKey != "" {
				if cerr := s.cacheSvc.Set(s.cacheKey, []byte(fmt.Sprintf("%d", s.blockTime/time.Second)), s.blockTime); cerr != nil {
					s.log.Warn().Err(cerr).Msg("Failed to store rate-limit block key")
				}
			}
			return nil, apperrors.NewRateLimit(dealabsSourceName, s.blockTime)
		}
		return nil, apperrors.NewFetch(dealabsSourceName, fmt.Sprintf("page %d", page), err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, apperrors.NewParse(dealabsSourceName, fmt.Sprintf("page %d", page), err)
	}

	return s.parseDocument(doc), nil
}

// Scrape fetches pages 1..pages with bounded concurrency. Pages that fail
// are logged and skipped; the result is the union of successful pages,
// merged in page order.
func (s *Dealabs) Scrape(ctx context.Context, pages int) []RawDeal {
	results := make([][]RawDeal, pages)
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for page := 1; page <= pages; page++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			raws, err := s.FetchPage(ctx, page)
			if err != nil {
				s.log.Warn().Err(err).Int("page", page).Msg("Page scrape failed, skipping")
				return
			}
			results[page-1] = raws
		}(page)
	}
	wg.Wait()

	var all []RawDeal
	for _, pageDeals := range results {
		all = append(all, pageDeals...)
	}
	return all
}

// parseDocument extracts raw deals from all listing articles in a document.
// Articles that cannot be parsed are skipped individually.
func (s *Dealabs) parseDocument(doc *goquery.Document) []RawDeal {
	var deals []RawDeal
	doc.Find("div.js-threadList article").Each(func(_ int, sel *goquery.Selection) {
		raw, err := s.parseArticle(sel)
		if err != nil {
			s.log.Debug().Err(err).Msg("Skipping unparseable listing")
			return
		}
		deals = append(deals, *raw)
	})
	return deals
}

// vuePayload mirrors the JSON blob attached to each listing's data-vue2
// attribute. Brittle external contract; only the fields used here are mapped.
type vuePayload struct {
	Props struct {
		Thread *vueThread `json:"thread"`
	} `json:"props"`
}

type vueThread struct {
	ThreadID      json.Number `json:"threadId"`
	Title         string      `json:"title"`
	Price         *float64    `json:"price"`
	NextBestPrice *float64    `json:"nextBestPrice"`
	Temperature   *float64    `json:"temperature"`
	CommentCount  *float64    `json:"commentCount"`
	PublishedAt   int64       `json:"publishedAt"`
	MainImage     *vueImage   `json:"mainImage"`
}

type vueImage struct {
	// Slot ids are opaque strings, not numbers
	SlotID string `json:"slotId"`
	Name   string `json:"name"`
	Ext    string `json:"ext"`
}

// parseArticle extracts one raw deal from a listing article element
func (s *Dealabs) parseArticle(sel *goquery.Selection) (*RawDeal, error) {
	link, _ := sel.Find(`a[data-t="threadLink"]`).Attr("href")

	payload, ok := sel.Find("div.js-vue2").Attr("data-vue2")
	if !ok || payload == "" {
		return nil, apperrors.NewParse(dealabsSourceName, "listing has no data-vue2 payload", nil)
	}

	var v vuePayload
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, apperrors.NewParse(dealabsSourceName, "malformed data-vue2 payload", err)
	}

	thread := v.Props.Thread
	if thread == nil {
		return nil, apperrors.NewParse(dealabsSourceName, "payload has no thread", nil)
	}

	commentCount := 0
	if thread.CommentCount != nil {
		commentCount = int(*thread.CommentCount)
	}

	return &RawDeal{
		Link:         link,
		ThreadID:     thread.ThreadID.String(),
		Title:        thread.Title,
		Price:        thread.Price,
		RetailPrice:  thread.NextBestPrice,
		Temperature:  thread.Temperature,
		CommentCount: commentCount,
		PublishedAt:  thread.PublishedAt,
		Image:        imageURL(thread.MainImage),
	}, nil
}

// imageURL builds the thumbnail URL from the thread's main image descriptor
func imageURL(img *vueImage) string {
	if img == nil || img.Name == "" {
		return ""
	}
	return fmt.Sprintf(dealabsImageTemplate, img.SlotID, img.Name, img.Name, img.Ext)
}
