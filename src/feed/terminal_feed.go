package feed

import (
	"context"
	"fmt"
	"time"

	"mt5-market-hub/src/helpers"
	"mt5-market-hub/src/interfaces"
	"mt5-market-hub/src/logger"
	"mt5-market-hub/src/models"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// TerminalFeed
// -----------------------------------------------------------------------------

// TerminalFeed reads the quote hashes the terminal adapter maintains
// (mt5:tick:{SYMBOL}). The adapter's own connection protocol to the terminal
// is out of scope here; losing the hashes' host is losing the feed.
type TerminalFeed struct {
	client  *redis.Client
	logger  *logger.Logger
	timeout time.Duration
}

var _ interfaces.ITickFeed = (*TerminalFeed)(nil)

// -----------------------------------------------------------------------------

func NewTerminalFeed(cfg models.MRedisConfig, log *logger.Logger) *TerminalFeed {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	// Separate connection pool from the cache store: feed loss and cache loss
	// are distinct failure domains in the health report.
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	return &TerminalFeed{
		client:  client,
		logger:  log,
		timeout: timeout,
	}
}

// -----------------------------------------------------------------------------

func (f *TerminalFeed) LatestTick(ctx context.Context, symbol string) (*models.MTick, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	fields, err := f.client.HGetAll(ctx, fmt.Sprintf("mt5:tick:%s", symbol)).Result()
	if err != nil {
		return nil, &helpers.UpstreamUnreachableError{Cause: err}
	}
	if len(fields) == 0 {
		// No quote yet for this symbol; not an error.
		return nil, nil
	}

	bid, err := decimal.NewFromString(fields["bid"])
	if err != nil {
		return nil, &helpers.UpstreamSymbolError{Symbol: symbol, Cause: err}
	}
	ask, err := decimal.NewFromString(fields["ask"])
	if err != nil {
		return nil, &helpers.UpstreamSymbolError{Symbol: symbol, Cause: err}
	}

	tick := &models.MTick{
		Symbol: symbol,
		Bid:    bid,
		Ask:    ask,
	}

	if ts, err := decimal.NewFromString(fields["time"]); err == nil {
		tick.Timestamp = ts.IntPart()
	} else {
		tick.Timestamp = time.Now().Unix()
	}

	return tick, nil
}

// -----------------------------------------------------------------------------

func (f *TerminalFeed) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.client.Ping(ctx).Err(); err != nil {
		return &helpers.UpstreamUnreachableError{Cause: err}
	}
	return nil
}

// -----------------------------------------------------------------------------

// Close releases the underlying connection pool.
func (f *TerminalFeed) Close() error {
	return f.client.Close()
}
