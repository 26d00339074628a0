package analysis

import (
	"math"
	"math/rand"
	"time"

	"mt5-market-hub/src/models"
)

// -----------------------------------------------------------------------------
// Synthetic Data Generator
// -----------------------------------------------------------------------------

// Fixed seed keeps repeated calls inside the same bucket byte-identical,
// so snapshot queries stay idempotent while the cache is down.
const syntheticSeed = 42

// Per-symbol anchor prices. Unknown symbols fall back to defaultBasePrice.
var basePrices = map[string]float64{
	"EURUSD": 1.1000,
	"GBPUSD": 1.2800,
	"USDJPY": 155.00,
	"USDCHF": 0.9100,
	"USDCAD": 1.3600,
	"AUDUSD": 0.6600,
	"NZDUSD": 0.6100,
}

const defaultBasePrice = 1.1000

// -----------------------------------------------------------------------------

// BasePrice returns the anchor price for a symbol, falling back to the
// default for symbols outside the table.
func BasePrice(symbol string) float64 {
	if base, ok := basePrices[symbol]; ok {
		return base
	}
	return defaultBasePrice
}

// -----------------------------------------------------------------------------

// SyntheticGenerator produces a plausible, self-consistent snapshot for a
// symbol/timeframe when real data is missing.
type SyntheticGenerator struct {
	Bars     int
	detector *LevelDetector
	now      func() time.Time
}

// -----------------------------------------------------------------------------

func NewSyntheticGenerator(cfg models.MSyntheticConfig, detector *LevelDetector) *SyntheticGenerator {
	return &SyntheticGenerator{
		Bars:     cfg.Bars,
		detector: detector,
		now:      time.Now,
	}
}

// -----------------------------------------------------------------------------

// Generate builds a complete snapshot: bars, levels derived from those bars,
// price from the last close, a prediction and the reference event list.
func (g *SyntheticGenerator) Generate(symbol, timeframe string) models.MSnapshot {
	rng := rand.New(rand.NewSource(syntheticSeed))

	bars := g.generateBars(rng, symbol, timeframe)

	return models.MSnapshot{
		Success:      true,
		OHLC:         bars,
		Levels:       g.detector.Detect(symbol, bars),
		CurrentPrice: bars[len(bars)-1].Close,
		Prediction:   g.generatePrediction(rng),
		Fundamentals: ReferenceEvents(),
	}
}

// -----------------------------------------------------------------------------

// GenerateBars returns only the bar series, for callers that keep real data
// for the other snapshot pieces.
func (g *SyntheticGenerator) GenerateBars(symbol, timeframe string) []models.MOHLCBar {
	rng := rand.New(rand.NewSource(syntheticSeed))
	return g.generateBars(rng, symbol, timeframe)
}

// -----------------------------------------------------------------------------

// GeneratePrediction returns only the prediction piece.
func (g *SyntheticGenerator) GeneratePrediction() models.MPrediction {
	rng := rand.New(rand.NewSource(syntheticSeed))
	return g.generatePrediction(rng)
}

// -----------------------------------------------------------------------------

// generateBars walks a random close series around the base price and wraps an
// high/low envelope around each open/close pair. Times are aligned bucket
// starts ending at "now".
func (g *SyntheticGenerator) generateBars(rng *rand.Rand, symbol, timeframe string) []models.MOHLCBar {
	base := BasePrice(symbol)
	pip := models.PipSize(symbol).InexactFloat64()

	bucket, ok := models.TimeframeSeconds(timeframe)
	if !ok {
		bucket = 15 * 60
	}

	endBucket := g.now().Unix() / bucket * bucket

	bars := make([]models.MOHLCBar, 0, g.Bars)
	closePrice := base

	for i := 0; i < g.Bars; i++ {
		closePrice += rng.NormFloat64() * pip

		open := closePrice
		if i > 0 {
			open = bars[i-1].Close + rng.NormFloat64()*pip*0.5
		}

		highOffset := (1 + rng.Float64()*4) * pip
		lowOffset := (1 + rng.Float64()*4) * pip

		bar := models.MOHLCBar{
			Time:   endBucket - int64(g.Bars-1-i)*bucket,
			Open:   round5(open),
			High:   round5(math.Max(open, closePrice) + highOffset),
			Low:    round5(math.Min(open, closePrice) - lowOffset),
			Close:  round5(closePrice),
			Volume: float64(100 + rng.Intn(900)),
		}
		bars = append(bars, bar)
	}

	return bars
}

// -----------------------------------------------------------------------------

func (g *SyntheticGenerator) generatePrediction(rng *rand.Rand) models.MPrediction {
	actions := []string{models.ActionBuy, models.ActionSell, models.ActionHold}
	return models.MPrediction{
		Action:     actions[rng.Intn(len(actions))],
		Confidence: math.Round((60+rng.Float64()*35)*10) / 10,
	}
}

// -----------------------------------------------------------------------------

// ReferenceEvents is the fixed fundamental calendar used when the cache has
// no event data.
func ReferenceEvents() []models.MFundamentalEvent {
	return []models.MFundamentalEvent{
		{
			Title:    "ECB Interest Rate Decision",
			Time:     "Today 14:30",
			Currency: "EUR",
			Impact:   "high",
			Expected: "4.25%",
			Previous: "4.00%",
		},
		{
			Title:    "US Non-Farm Payrolls",
			Time:     "Tomorrow 13:30",
			Currency: "USD",
			Impact:   "medium",
			Expected: "185K",
			Previous: "187K",
		},
		{
			Title:    "UK GDP Growth Rate",
			Time:     "Monday 09:30",
			Currency: "GBP",
			Impact:   "low",
			Expected: "0.2%",
			Previous: "0.1%",
		},
	}
}

// -----------------------------------------------------------------------------

func round5(v float64) float64 {
	return math.Round(v*100000) / 100000
}
