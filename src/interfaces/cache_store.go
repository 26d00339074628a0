package interfaces

import (
	"context"

	"mt5-market-hub/src/models"
)

// -----------------------------------------------------------------------------
// ICacheStore is the shared key-value store holding the latest market data.
// Treated as fallible and eventually fresh: every read may fail independently
// and no read-after-write consistency is assumed across keys.
// -----------------------------------------------------------------------------

type ICacheStore interface {

	// -----------------------------------------------------------------------------

	// GetBars reads the bar series for (symbol, timeframe).
	GetBars(ctx context.Context, symbol, timeframe string) ([]models.MOHLCBar, error)

	// -----------------------------------------------------------------------------

	// GetLevels reads the precomputed level set for (symbol, timeframe).
	GetLevels(ctx context.Context, symbol, timeframe string) (*models.MLevelSet, error)

	// -----------------------------------------------------------------------------

	// GetPrice reads the current bid price for a symbol.
	GetPrice(ctx context.Context, symbol string) (float64, error)

	// -----------------------------------------------------------------------------

	// GetPrediction reads the model prediction for (symbol, timeframe).
	GetPrediction(ctx context.Context, symbol, timeframe string) (*models.MPrediction, error)

	// -----------------------------------------------------------------------------

	// GetEvents reads the global fundamental event list.
	GetEvents(ctx context.Context) ([]models.MFundamentalEvent, error)

	// -----------------------------------------------------------------------------

	// ListSymbols discovers symbols that have any bar series cached.
	ListSymbols(ctx context.Context) ([]string, error)

	// -----------------------------------------------------------------------------

	// GetSystemStatus reads the terminal adapter's status record.
	GetSystemStatus(ctx context.Context) (map[string]string, error)

	// -----------------------------------------------------------------------------

	// SetLatestTick publishes the poller's most recent tick (short TTL).
	SetLatestTick(ctx context.Context, tick models.MTick) error

	// -----------------------------------------------------------------------------

	// Ping reports reachability of the store.
	Ping(ctx context.Context) error
}
