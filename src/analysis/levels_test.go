package analysis

import (
	"testing"

	"mt5-market-hub/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func testDetector() *LevelDetector {
	return NewLevelDetector(models.MLevelsConfig{
		Margin:          2,
		MaxLevels:       5,
		MinPipsDistance: 10,
	})
}

// trendBars builds a series with strictly rising highs and falling lows, so
// no interior bar is a window extreme until the caller injects a spike.
func trendBars(n int, price, slope float64) []models.MOHLCBar {
	bars := make([]models.MOHLCBar, n)
	for i := range bars {
		bars[i] = models.MOHLCBar{
			Time:  int64(i) * 60,
			Open:  price,
			High:  price + slope*float64(i+1),
			Low:   price - slope*float64(i+1),
			Close: price,
		}
	}
	return bars
}

// -----------------------------------------------------------------------------

func TestDetectFindsIsolatedExtremes(t *testing.T) {
	d := testDetector()

	bars := trendBars(20, 1.1000, 0.00001)
	bars[5].High = 1.1050  // window max around index 5
	bars[12].Low = 1.0940  // window min around index 12

	levels := d.Detect("EURUSD", bars)

	require.Len(t, levels.Resistance, 1)
	require.Len(t, levels.Support, 1)
	assert.Equal(t, 1.1050, levels.Resistance[0].Price)
	assert.Equal(t, 1.0940, levels.Support[0].Price)
}

// -----------------------------------------------------------------------------

func TestDetectShortSeriesYieldsEmptyLevels(t *testing.T) {
	d := testDetector()

	// Fewer bars than the window needs: no levels, but never nil slices.
	levels := d.Detect("EURUSD", trendBars(3, 1.1000, 0.00001))

	assert.NotNil(t, levels.Resistance)
	assert.NotNil(t, levels.Support)
	assert.Empty(t, levels.Resistance)
	assert.Empty(t, levels.Support)
}

// -----------------------------------------------------------------------------

func TestDetectDeduplicatesNearbyLevels(t *testing.T) {
	d := testDetector()

	// Two resistance spikes 5 pips apart with MinPipsDistance=10: the
	// earlier one wins, the later one is dropped.
	bars := trendBars(30, 1.1000, 0.00001)
	bars[5].High = 1.1050
	bars[15].High = 1.1055

	levels := d.Detect("EURUSD", bars)

	require.Len(t, levels.Resistance, 1)
	assert.Equal(t, 1.1050, levels.Resistance[0].Price)
}

// -----------------------------------------------------------------------------

func TestDetectSortOrderAndCap(t *testing.T) {
	d := testDetector()
	d.MaxLevels = 2

	bars := trendBars(60, 1.1000, 0.00001)
	// Three resistances and three supports, far enough apart to survive dedup.
	bars[5].High = 1.1100
	bars[20].High = 1.1200
	bars[35].High = 1.1150
	bars[10].Low = 1.0900
	bars[25].Low = 1.0800
	bars[45].Low = 1.0850

	levels := d.Detect("EURUSD", bars)

	require.Len(t, levels.Resistance, 2)
	require.Len(t, levels.Support, 2)

	// Resistance descending, support ascending.
	assert.Equal(t, 1.1200, levels.Resistance[0].Price)
	assert.Equal(t, 1.1150, levels.Resistance[1].Price)
	assert.Equal(t, 1.0800, levels.Support[0].Price)
	assert.Equal(t, 1.0850, levels.Support[1].Price)
}

// -----------------------------------------------------------------------------

func TestDetectStrengthBounded(t *testing.T) {
	d := testDetector()

	bars := trendBars(40, 1.1000, 0.00001)
	bars[8].High = 1.1070

	levels := d.Detect("EURUSD", bars)

	require.NotEmpty(t, levels.Resistance)
	for _, lvl := range append(levels.Resistance, levels.Support...) {
		assert.GreaterOrEqual(t, lvl.Strength, 0.0)
		assert.LessOrEqual(t, lvl.Strength, 1.0)
	}
}

// -----------------------------------------------------------------------------

func TestDetectDeterministic(t *testing.T) {
	d := testDetector()

	bars := trendBars(50, 1.1000, 0.00001)
	bars[7].High = 1.1080
	bars[22].Low = 1.0920

	first := d.Detect("EURUSD", bars)
	second := d.Detect("EURUSD", bars)

	assert.Equal(t, first, second)
}

// -----------------------------------------------------------------------------

func TestDetectJPYPipScale(t *testing.T) {
	d := testDetector()

	// JPY pip is 0.01: spikes 5 pips apart fall inside the 10-pip dedup
	// distance and collapse to the earlier one.
	bars := trendBars(30, 155.00, 0.001)
	bars[5].High = 155.50
	bars[15].High = 155.55

	levels := d.Detect("USDJPY", bars)

	require.Len(t, levels.Resistance, 1)
	assert.Equal(t, 155.50, levels.Resistance[0].Price)
}
