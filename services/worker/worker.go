package worker

import (
	"context"
	"encoding/json"
	"time"

	"brickwatch/legodealworker/helpers"
	"brickwatch/legodealworker/internal/catalog"
	"brickwatch/legodealworker/internal/query"
	"brickwatch/legodealworker/internal/scraper"
	"brickwatch/legodealworker/internal/stats"
	"brickwatch/legodealworker/services/publisher"
	"brickwatch/legodealworker/services/store"
)

// Worker runs the periodic refresh cycle: scrape, normalize, persist,
// publish. Per-source failures degrade to an empty contribution; a cycle
// never aborts because one source failed.
type Worker struct {
	dealSources []scraper.DealSource
	saleSource  scraper.SaleSource
	store       store.Store
	publisher   publisher.Publisher
	logger      helpers.LoggerInterface
	interval    time.Duration
	pages       int
	watchedSets []string
}

// NewWorker creates a new worker
func NewWorker(
	dealSources []scraper.DealSource,
	saleSource scraper.SaleSource,
	st store.Store,
	pub publisher.Publisher,
	logger helpers.LoggerInterface,
	interval time.Duration,
	pages int,
	watchedSets []string,
) *Worker {
	return &Worker{
		dealSources: dealSources,
		saleSource:  saleSource,
		store:       st,
		publisher:   pub,
		logger:      logger,
		interval:    interval,
		pages:       pages,
		watchedSets: watchedSets,
	}
}

// Start runs an immediate refresh and then one per interval until the
// context is cancelled
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		start := time.Now()
		w.RefreshOnce(ctx)
		w.logger.LogInfo("refresh cycle completed in %s", time.Since(start))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RefreshOnce runs a single refresh cycle
func (w *Worker) RefreshOnce(ctx context.Context) {
	w.refreshDeals(ctx)
	w.refreshSales(ctx)
}

// refreshDeals scrapes every deal source, normalizes the raw records,
// upserts them and publishes each fresh deal
func (w *Worker) refreshDeals(ctx context.Context) {
	for _, src := range w.dealSources {
		raws := src.Scrape(ctx, w.pages)

		deals := make([]catalog.Deal, 0, len(raws))
		dropped := 0
		for _, raw := range raws {
			deal, err := catalog.NormalizeDeal(raw, catalog.Source(src.Name()))
			if err != nil {
				// Validation failures drop the single record
				dropped++
				continue
			}
			deals = append(deals, *deal)
		}
		w.logger.LogInfo("%s: %d deals normalized, %d dropped", src.Name(), len(deals), dropped)

		if len(deals) == 0 {
			continue
		}

		if w.store != nil {
			if _, err := w.store.UpsertDeals(ctx, deals); err != nil {
				w.logger.LogError(src.Name(), err)
			}
		}

		w.publishDeals(src.Name(), deals)
		w.logTopDeals(deals)
	}

	if w.publisher != nil {
		if err := w.publisher.Trim(); err != nil {
			w.logger.LogError("publisher", err)
		}
	}
}

// publishDeals publishes each normalized deal to the stream
func (w *Worker) publishDeals(sourceName string, deals []catalog.Deal) {
	if w.publisher == nil {
		return
	}
	for _, deal := range deals {
		data, err := json.Marshal(deal)
		if err != nil {
			w.logger.LogError(sourceName, err)
			continue
		}
		if err := w.publisher.Publish(data); err != nil {
			w.logger.LogError(sourceName, err)
		}
	}
}

// refreshSales fetches a fresh resale snapshot for every watched set id
func (w *Worker) refreshSales(ctx context.Context) {
	if w.saleSource == nil {
		return
	}

	scrapedAt := time.Now().UTC()
	for _, setID := range w.watchedSets {
		raws := w.saleSource.FetchByQuery(ctx, setID)

		sales := make([]catalog.Sale, 0, len(raws))
		for _, raw := range raws {
			sale, err := catalog.NormalizeSale(raw, setID, scrapedAt)
			if err != nil {
				continue
			}
			sales = append(sales, *sale)
		}

		// An empty snapshot here covers both "no sales found" and
		// "fetch failed"; the sale source does not distinguish them
		if len(sales) == 0 {
			w.logger.LogInfo("set %s: no sales observed", setID)
			continue
		}

		if w.store != nil {
			if _, err := w.store.InsertSales(ctx, sales); err != nil {
				w.logger.LogError(w.saleSource.Name(), err)
			}
		}

		ind := stats.ComputeIndicators(sales)
		w.logger.LogInfo("set %s: %d sales, avg %.2f, p50 %.2f, lifetime %dd",
			setID, ind.TotalSales, ind.AveragePrice, ind.P50Price, ind.LifetimeDays)
	}
}

// logTopDeals logs the hottest deals of a batch for operability
func (w *Worker) logTopDeals(deals []catalog.Deal) {
	resp := query.Search(deals, query.Request{Sort: query.SortHot, Page: 1, PageSize: 3})
	for _, deal := range resp.Results {
		w.logger.LogInfo("hot deal [%s] %s (score %.1f)", deal.ID, deal.Title, query.HotScore(deal))
	}
}
