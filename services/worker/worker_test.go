package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brickwatch/legodealworker/helpers"
	"brickwatch/legodealworker/internal/catalog"
	"brickwatch/legodealworker/internal/scraper"
	"brickwatch/legodealworker/services/publisher"
	"brickwatch/legodealworker/services/store"
)

func floatPtr(v float64) *float64 {
	return &v
}

// MockDealSource implements scraper.DealSource for testing
type MockDealSource struct {
	name  string
	deals []scraper.RawDeal
}

var _ scraper.DealSource = (*MockDealSource)(nil)

func (m *MockDealSource) FetchPage(_ context.Context, _ int) ([]scraper.RawDeal, error) {
	return m.deals, nil
}

func (m *MockDealSource) Scrape(_ context.Context, _ int) []scraper.RawDeal {
	return m.deals
}

func (m *MockDealSource) Name() string {
	return m.name
}

// MockSaleSource implements scraper.SaleSource for testing
type MockSaleSource struct {
	sales map[string][]scraper.RawSale
}

var _ scraper.SaleSource = (*MockSaleSource)(nil)

func (m *MockSaleSource) FetchByQuery(_ context.Context, setID string) []scraper.RawSale {
	return m.sales[setID]
}

func (m *MockSaleSource) Name() string {
	return "mock_sales"
}

// MockStore implements store.Store in memory
type MockStore struct {
	mu    sync.Mutex
	deals []catalog.Deal
	sales []catalog.Sale
}

var _ store.Store = (*MockStore)(nil)

func (m *MockStore) UpsertDeals(_ context.Context, deals []catalog.Deal) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deals = append(m.deals, deals...)
	return len(deals), nil
}

func (m *MockStore) InsertSales(_ context.Context, sales []catalog.Sale) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append(m.sales, sales...)
	return len(sales), nil
}

func (m *MockStore) FindDeals(_ context.Context, _ store.DealQuery) ([]catalog.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deals, nil
}

func (m *MockStore) CountDeals(_ context.Context, _ store.DealQuery) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.deals)), nil
}

func (m *MockStore) FindSales(_ context.Context, setID string, _ int64) ([]catalog.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []catalog.Sale
	for _, s := range m.sales {
		if s.LegoSetID == setID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockStore) Close(_ context.Context) error {
	return nil
}

// MockPublisher implements publisher.Publisher for testing
type MockPublisher struct {
	mu       sync.Mutex
	messages [][]byte
	trimmed  bool
}

var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	messageCopy := make([]byte, len(message))
	copy(messageCopy, message)
	m.messages = append(m.messages, messageCopy)
	return nil
}

func (m *MockPublisher) Trim() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trimmed = true
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// MockLogger implements helpers.LoggerInterface for testing
type MockLogger struct {
	mu     sync.Mutex
	errors []string
	infos  []string
}

var _ helpers.LoggerInterface = (*MockLogger)(nil)

func (m *MockLogger) LogError(source string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, source+": "+err.Error())
}

func (m *MockLogger) LogInfo(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, fmt.Sprintf(format, args...))
}

func validRaws() []scraper.RawDeal {
	return []scraper.RawDeal{
		{
			Link:         "https://www.dealabs.com/bons-plans/12345-lego",
			Title:        "LEGO Technic 42182",
			Price:        floatPtr(80),
			RetailPrice:  floatPtr(100),
			PublishedAt:  1712345678,
			CommentCount: 4,
		},
		{
			// No 5-digit token and no thread id: dropped at normalization
			Link:  "https://www.dealabs.com/bons-plans/lego-accessory",
			Title: "Not a set",
			Price: floatPtr(10),
		},
	}
}

func TestWorkerRefreshDeals(t *testing.T) {
	mockStore := &MockStore{}
	mockPublisher := &MockPublisher{}
	mockLogger := &MockLogger{}

	src := &MockDealSource{name: "dealabs", deals: validRaws()}

	w := NewWorker(
		[]scraper.DealSource{src},
		nil,
		mockStore,
		mockPublisher,
		mockLogger,
		time.Second,
		1,
		nil,
	)

	w.RefreshOnce(context.Background())

	// The invalid record was dropped, the valid one persisted and published
	require.Len(t, mockStore.deals, 1)
	assert.Equal(t, "12345", mockStore.deals[0].ID)
	assert.Equal(t, catalog.SourceDealabs, mockStore.deals[0].Source)

	require.Len(t, mockPublisher.messages, 1)
	assert.Contains(t, string(mockPublisher.messages[0]), "LEGO Technic 42182")
	assert.True(t, mockPublisher.trimmed)

	assert.Empty(t, mockLogger.errors)
}

func TestWorkerRefreshSales(t *testing.T) {
	mockStore := &MockStore{}
	mockLogger := &MockLogger{}

	sales := &MockSaleSource{sales: map[string][]scraper.RawSale{
		"42182": {
			{Link: "https://www.vinted.fr/items/1", Title: "LEGO 42182", Price: "40", PhotoTimestamp: 1712345678},
			{Link: "https://www.vinted.fr/items/2", Title: "LEGO 42182 neuf", Price: "60", PhotoTimestamp: 1712432078},
		},
	}}

	w := NewWorker(
		nil,
		sales,
		mockStore,
		nil,
		mockLogger,
		time.Second,
		1,
		[]string{"42182", "75368"},
	)

	w.RefreshOnce(context.Background())

	// 42182 produced a snapshot; 75368 had no observations
	require.Len(t, mockStore.sales, 2)
	assert.Equal(t, "42182", mockStore.sales[0].LegoSetID)
	assert.Equal(t, mockStore.sales[0].ScrapedAt, mockStore.sales[1].ScrapedAt)

	foundIndicator := false
	foundEmpty := false
	for _, msg := range mockLogger.infos {
		if strings.Contains(msg, "set 42182: 2 sales") {
			foundIndicator = true
		}
		if strings.Contains(msg, "set 75368: no sales observed") {
			foundEmpty = true
		}
	}
	assert.True(t, foundIndicator, "indicator summary should be logged")
	assert.True(t, foundEmpty, "empty snapshot should be logged")
}

func TestWorkerStartStopsOnCancel(t *testing.T) {
	mockLogger := &MockLogger{}
	src := &MockDealSource{name: "dealabs"}

	w := NewWorker(
		[]scraper.DealSource{src},
		nil,
		&MockStore{},
		nil,
		mockLogger,
		10*time.Millisecond,
		1,
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
