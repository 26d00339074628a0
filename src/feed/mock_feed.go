package feed

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"mt5-market-hub/src/analysis"
	"mt5-market-hub/src/interfaces"
	"mt5-market-hub/src/models"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// MockFeed
// -----------------------------------------------------------------------------

// MockFeed generates a bounded random walk per symbol. Used by the demo
// profile and by tests that need a live-looking feed without a terminal.
type MockFeed struct {
	mu     sync.Mutex
	rng    *rand.Rand
	prices map[string]decimal.Decimal
}

var _ interfaces.ITickFeed = (*MockFeed)(nil)

// -----------------------------------------------------------------------------

func NewMockFeed() *MockFeed {
	return &MockFeed{
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		prices: make(map[string]decimal.Decimal),
	}
}

// -----------------------------------------------------------------------------

func (f *MockFeed) LatestTick(ctx context.Context, symbol string) (*models.MTick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pip := models.PipSize(symbol)

	price, ok := f.prices[symbol]
	if !ok {
		price = decimal.NewFromFloat(analysis.BasePrice(symbol))
	}

	// Walk up to two pips either way per poll.
	step := decimal.NewFromFloat((f.rng.Float64() - 0.5) * 4).Mul(pip)
	price = price.Add(step)
	f.prices[symbol] = price

	spread := decimal.NewFromFloat(0.5 + f.rng.Float64()).Mul(pip)

	return &models.MTick{
		Symbol:    symbol,
		Bid:       price.Round(5),
		Ask:       price.Add(spread).Round(5),
		Timestamp: time.Now().Unix(),
	}, nil
}

// -----------------------------------------------------------------------------

func (f *MockFeed) Ping(ctx context.Context) error {
	return nil
}
