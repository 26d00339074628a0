package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"mt5-market-hub/src/helpers"
	"mt5-market-hub/src/interfaces"
	"mt5-market-hub/src/logger"
	"mt5-market-hub/src/models"

	"github.com/redis/go-redis/v9"
)

// -----------------------------------------------------------------------------
// RedisStore
// -----------------------------------------------------------------------------

// Latest-tick keys expire after five minutes so a dead poller cannot serve
// stale quotes forever.
const streamTTL = 5 * time.Minute

// RedisStore implements interfaces.ICacheStore over the shared Redis instance
// populated by the terminal adapter.
type RedisStore struct {
	client  *redis.Client
	logger  *logger.Logger
	timeout time.Duration
}

var _ interfaces.ICacheStore = (*RedisStore)(nil)

// -----------------------------------------------------------------------------

func NewRedisStore(cfg models.MRedisConfig, log *logger.Logger) *RedisStore {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	return &RedisStore{
		client:  client,
		logger:  log,
		timeout: timeout,
	}
}

// -----------------------------------------------------------------------------
// Key namespace
// -----------------------------------------------------------------------------

func barsKey(symbol, timeframe string) string {
	return fmt.Sprintf("mt5:ohlc:%s:%s", symbol, timeframe)
}

func levelsKey(symbol, timeframe string) string {
	return fmt.Sprintf("mt5:levels:%s:%s", symbol, timeframe)
}

func tickKey(symbol string) string {
	return fmt.Sprintf("mt5:tick:%s", symbol)
}

func predictionKey(symbol, timeframe string) string {
	return fmt.Sprintf("mt5:prediction:%s:%s", symbol, timeframe)
}

func streamKey(symbol string) string {
	return fmt.Sprintf("mt5:stream:%s:latest", symbol)
}

const (
	eventsKey = "mt5:fundamentals"
	statusKey = "mt5:status"
)

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

func (s *RedisStore) GetBars(ctx context.Context, symbol, timeframe string) ([]models.MOHLCBar, error) {
	data, err := s.getBytes(ctx, barsKey(symbol, timeframe))
	if err != nil {
		return nil, err
	}

	bars, err := ParseBarsDocument(data)
	if err != nil {
		s.logger.Warning("Malformed bar document for %s/%s: %v", symbol, timeframe, err)
		return nil, err
	}
	return bars, nil
}

// -----------------------------------------------------------------------------

func (s *RedisStore) GetLevels(ctx context.Context, symbol, timeframe string) (*models.MLevelSet, error) {
	data, err := s.getBytes(ctx, levelsKey(symbol, timeframe))
	if err != nil {
		return nil, err
	}

	var levels models.MLevelSet
	if err := json.Unmarshal(data, &levels); err != nil {
		return nil, helpers.ErrCacheMalformed
	}
	if levels.Resistance == nil && levels.Support == nil {
		return nil, helpers.ErrCacheMalformed
	}
	return &levels, nil
}

// -----------------------------------------------------------------------------

func (s *RedisStore) GetPrice(ctx context.Context, symbol string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	bidStr, err := s.client.HGet(ctx, tickKey(symbol), "bid").Result()
	if err != nil {
		if err == redis.Nil {
			return 0, helpers.ErrCacheKeyMissing
		}
		return 0, fmt.Errorf("%w: %v", helpers.ErrCacheUnavailable, err)
	}

	price, err := strconv.ParseFloat(bidStr, 64)
	if err != nil || price <= 0 {
		return 0, helpers.ErrCacheMalformed
	}
	return price, nil
}

// -----------------------------------------------------------------------------

func (s *RedisStore) GetPrediction(ctx context.Context, symbol, timeframe string) (*models.MPrediction, error) {
	data, err := s.getBytes(ctx, predictionKey(symbol, timeframe))
	if err != nil {
		return nil, err
	}

	var prediction models.MPrediction
	if err := json.Unmarshal(data, &prediction); err != nil {
		return nil, helpers.ErrCacheMalformed
	}

	switch prediction.Action {
	case models.ActionBuy, models.ActionSell, models.ActionHold:
	default:
		return nil, helpers.ErrCacheMalformed
	}
	return &prediction, nil
}

// -----------------------------------------------------------------------------

func (s *RedisStore) GetEvents(ctx context.Context) ([]models.MFundamentalEvent, error) {
	data, err := s.getBytes(ctx, eventsKey)
	if err != nil {
		return nil, err
	}

	var events []models.MFundamentalEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, helpers.ErrCacheMalformed
	}
	if len(events) == 0 {
		return nil, helpers.ErrCacheKeyMissing
	}
	return events, nil
}

// -----------------------------------------------------------------------------

// ListSymbols derives the symbol universe from the bar keys present.
func (s *RedisStore) ListSymbols(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	keys, err := s.client.Keys(ctx, "mt5:ohlc:*").Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", helpers.ErrCacheUnavailable, err)
	}

	seen := make(map[string]struct{})
	var symbols []string
	for _, key := range keys {
		parts := strings.Split(key, ":")
		if len(parts) < 4 {
			continue
		}
		if _, ok := seen[parts[2]]; ok {
			continue
		}
		seen[parts[2]] = struct{}{}
		symbols = append(symbols, parts[2])
	}

	sort.Strings(symbols)
	return symbols, nil
}

// -----------------------------------------------------------------------------

// GetSystemStatus reads the status hash maintained by the terminal adapter.
func (s *RedisStore) GetSystemStatus(ctx context.Context) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fields, err := s.client.HGetAll(ctx, statusKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", helpers.ErrCacheUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, helpers.ErrCacheKeyMissing
	}
	return fields, nil
}

// -----------------------------------------------------------------------------
// Writes
// -----------------------------------------------------------------------------

func (s *RedisStore) SetLatestTick(ctx context.Context, tick models.MTick) error {
	data, err := json.Marshal(tick)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, streamKey(tick.Symbol), data, streamTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", helpers.ErrCacheUnavailable, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", helpers.ErrCacheUnavailable, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// -----------------------------------------------------------------------------

func (s *RedisStore) getBytes(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, helpers.ErrCacheKeyMissing
		}
		return nil, fmt.Errorf("%w: %v", helpers.ErrCacheUnavailable, err)
	}
	return data, nil
}
