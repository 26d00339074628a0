package aggregator

import (
	"context"
	"fmt"
	"strings"

	"mt5-market-hub/src/analysis"
	"mt5-market-hub/src/helpers"
	"mt5-market-hub/src/interfaces"
	"mt5-market-hub/src/logger"
	"mt5-market-hub/src/models"
)

// -----------------------------------------------------------------------------
// Query Aggregator
// -----------------------------------------------------------------------------

// Aggregator assembles a structurally complete snapshot for one
// symbol/timeframe from the cache store, filling any missing piece from the
// synthetic generator. Cache failures degrade, they never propagate.
type Aggregator struct {
	store     interfaces.ICacheStore
	detector  *analysis.LevelDetector
	synthetic *analysis.SyntheticGenerator
	logger    *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAggregator(
	store interfaces.ICacheStore,
	detector *analysis.LevelDetector,
	synthetic *analysis.SyntheticGenerator,
	log *logger.Logger,
) *Aggregator {
	return &Aggregator{
		store:     store,
		detector:  detector,
		synthetic: synthetic,
		logger:    log,
	}
}

// -----------------------------------------------------------------------------

// GetSnapshot answers "everything for symbol at timeframe". The only failure
// mode is a malformed request; every data-availability problem falls back to
// synthetic content and still reports success.
func (a *Aggregator) GetSnapshot(ctx context.Context, symbol, timeframe string) models.MSnapshot {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if err := validateRequest(symbol, timeframe); err != nil {
		return models.MSnapshot{
			Success:      false,
			OHLC:         []models.MOHLCBar{},
			Levels:       models.MLevelSet{Resistance: []models.MLevel{}, Support: []models.MLevel{}},
			Fundamentals: []models.MFundamentalEvent{},
			Error:        err.Error(),
		}
	}

	bars, err := a.store.GetBars(ctx, symbol, timeframe)
	if err != nil {
		// Real and synthetic bars are never mixed: a missing or malformed
		// series means the whole snapshot comes from the generator, so the
		// chart stays internally consistent.
		a.logger.Debug("Bar series unavailable for %s/%s (%v), serving synthetic snapshot", symbol, timeframe, err)
		return a.synthetic.Generate(symbol, timeframe)
	}

	snapshot := models.MSnapshot{
		Success: true,
		OHLC:    bars,
	}

	// The remaining pieces are independent keys written by independent
	// producers; each one falls back on its own.
	snapshot.Levels = a.resolveLevels(ctx, symbol, timeframe, bars)
	snapshot.CurrentPrice = a.resolvePrice(ctx, symbol, bars)
	snapshot.Prediction = a.resolvePrediction(ctx, symbol, timeframe)
	snapshot.Fundamentals = a.resolveEvents(ctx)

	return snapshot
}

// -----------------------------------------------------------------------------

// resolveLevels prefers the cached level set; otherwise levels are derived
// from the real bar series, never invented independently.
func (a *Aggregator) resolveLevels(ctx context.Context, symbol, timeframe string, bars []models.MOHLCBar) models.MLevelSet {
	if levels, err := a.store.GetLevels(ctx, symbol, timeframe); err == nil {
		if levels.Resistance == nil {
			levels.Resistance = []models.MLevel{}
		}
		if levels.Support == nil {
			levels.Support = []models.MLevel{}
		}
		return *levels
	}
	return a.detector.Detect(symbol, bars)
}

// -----------------------------------------------------------------------------

func (a *Aggregator) resolvePrice(ctx context.Context, symbol string, bars []models.MOHLCBar) float64 {
	if price, err := a.store.GetPrice(ctx, symbol); err == nil {
		return price
	}
	return bars[len(bars)-1].Close
}

// -----------------------------------------------------------------------------

func (a *Aggregator) resolvePrediction(ctx context.Context, symbol, timeframe string) models.MPrediction {
	if prediction, err := a.store.GetPrediction(ctx, symbol, timeframe); err == nil {
		return *prediction
	}
	return a.synthetic.GeneratePrediction()
}

// -----------------------------------------------------------------------------

func (a *Aggregator) resolveEvents(ctx context.Context) []models.MFundamentalEvent {
	if events, err := a.store.GetEvents(ctx); err == nil {
		return events
	}
	return analysis.ReferenceEvents()
}

// -----------------------------------------------------------------------------

func validateRequest(symbol, timeframe string) error {
	if !models.ValidSymbol(symbol) {
		return &helpers.MalformedRequestError{
			Reason: fmt.Sprintf("invalid symbol format: %q", symbol),
		}
	}
	if _, ok := models.TimeframeSeconds(timeframe); !ok {
		return &helpers.MalformedRequestError{
			Reason: fmt.Sprintf("unknown timeframe: %q", timeframe),
		}
	}
	return nil
}
