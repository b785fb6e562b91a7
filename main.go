package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"brickwatch/legodealworker/config"
	"brickwatch/legodealworker/helpers"
	"brickwatch/legodealworker/internal/scraper"
	"brickwatch/legodealworker/logger"
	"brickwatch/legodealworker/services/cache"
	"brickwatch/legodealworker/services/publisher"
	"brickwatch/legodealworker/services/store"
	"brickwatch/legodealworker/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Dur("crawl_interval", cfg.CrawlInterval).
		Int("scrape_pages", cfg.ScrapePages).
		Strs("watched_sets", cfg.WatchedSetIDs).
		Msg("Starting application")

	// Set up context cancelled by shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup(ctx)

	// Create source adapters
	dealabs := scraper.NewDealabs(cfg, services.Cache)
	vinted := scraper.NewVinted(cfg)

	if len(cfg.WatchedSetIDs) == 0 {
		log.Warn().Msg("No watched set ids configured; resale tracking is disabled")
	}
	if cfg.VintedAccessToken == "" && cfg.VintedCookie == "" {
		log.Warn().Msg("No Vinted session material configured; catalog fetches will likely be rejected")
	}

	// Create and start worker
	w := worker.NewWorker(
		[]scraper.DealSource{dealabs},
		vinted,
		services.Store,
		services.Publisher,
		helpers.ZerologAdapter{},
		cfg.CrawlInterval,
		cfg.ScrapePages,
		cfg.WatchedSetIDs,
	)

	workerDone := make(chan struct{})
	go func() {
		log.Info().Msg("Starting deal worker")
		w.Start(ctx)
		close(workerDone)
	}()

	<-ctx.Done()
	log.Info().Msg("Received shutdown signal")

	<-workerDone
	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Store     store.Store
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup(ctx context.Context) {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		s.Store.Close(ctx)
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Rate-limit cache
	services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	// Persistence gateway
	mongoStore, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, err
	}
	services.Store = mongoStore
	logger.Info("Connected to MongoDB at %s (DB: %s)", cfg.MongoURI, cfg.MongoDBName)

	// Deal stream publisher
	services.Publisher = publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamMaxLength,
	)
	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	return services, nil
}
