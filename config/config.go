package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "brickwatch/legodealworker/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// MongoDB configuration
	MongoURI    string
	MongoDBName string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// Scrape configuration
	CrawlInterval     time.Duration
	ScrapePages       int
	ScrapeConcurrency int

	// Source URLs
	DealabsURL string
	VintedURL  string

	// Vinted session material, acquired externally
	VintedAccessToken string
	VintedCSRFToken   string
	VintedCookie      string

	// LEGO set ids to track resale prices for
	WatchedSetIDs []string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	crawlInterval, _ := strconv.Atoi(getEnv("CRAWL_INTERVAL_SECONDS", "3600"))
	scrapePages, _ := strconv.Atoi(getEnv("SCRAPE_PAGES", "3"))
	scrapeConcurrency, _ := strconv.Atoi(getEnv("SCRAPE_CONCURRENCY", "2"))

	return &Config{
		MongoURI:             getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDBName:          getEnv("MONGODB_DB_NAME", "lego"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "legodeals"),
		RedisStreamMaxLength: streamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		CrawlInterval:        time.Duration(crawlInterval) * time.Second,
		ScrapePages:          scrapePages,
		ScrapeConcurrency:    scrapeConcurrency,
		DealabsURL:           getEnv("DEALABS_URL", "https://www.dealabs.com"),
		VintedURL:            getEnv("VINTED_URL", "https://www.vinted.fr"),
		VintedAccessToken:    getEnv("VINTED_ACCESS_TOKEN", ""),
		VintedCSRFToken:      getEnv("VINTED_CSRF_TOKEN", ""),
		VintedCookie:         getEnv("VINTED_COOKIE", ""),
		WatchedSetIDs:        splitList(getEnv("WATCHED_SET_IDS", "")),
		Environment:          getEnv("LEGODEAL_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return apperrors.NewConfiguration("MONGODB_URI must not be empty", nil)
	}
	if c.CrawlInterval < time.Second {
		return apperrors.NewConfiguration("CRAWL_INTERVAL_SECONDS must be at least 1", nil)
	}
	if c.ScrapePages < 1 {
		return apperrors.NewConfiguration("SCRAPE_PAGES must be at least 1", nil)
	}
	if c.ScrapeConcurrency < 1 {
		return apperrors.NewConfiguration("SCRAPE_CONCURRENCY must be at least 1", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// splitList splits a comma-separated env value into trimmed non-empty parts
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
