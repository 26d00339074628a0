package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func TestPipSize(t *testing.T) {
	assert.Equal(t, "0.0001", PipSize("EURUSD").String())
	assert.Equal(t, "0.01", PipSize("USDJPY").String())
	assert.Equal(t, "0.01", PipSize("eurjpy").String())
	assert.Equal(t, "0.0001", PipSize("JPYUSD").String())
}

// -----------------------------------------------------------------------------

func TestDeriveFirstTick(t *testing.T) {
	tick := MTick{
		Symbol: "EURUSD",
		Bid:    decimal.NewFromFloat(1.1000),
		Ask:    decimal.NewFromFloat(1.1002),
	}

	tick.Derive(decimal.Zero)

	assert.Equal(t, "0.0002", tick.Spread.String())
	assert.Equal(t, 2.0, tick.SpreadPips)
	assert.Equal(t, TrendNeutral, tick.Trend)
	assert.True(t, tick.PriceChange.IsZero())
	assert.Zero(t, tick.PriceChangePct)
}

// -----------------------------------------------------------------------------

func TestDeriveTrendDirection(t *testing.T) {
	cases := []struct {
		name string
		prev float64
		bid  float64
		want string
	}{
		{"moved up", 1.1000, 1.1005, TrendUp},
		{"moved down", 1.1000, 1.0995, TrendDown},
		{"unchanged", 1.1000, 1.1000, TrendNeutral},
		{"sub-threshold up", 1.10000, 1.1000005, TrendNeutral},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tick := MTick{
				Symbol: "EURUSD",
				Bid:    decimal.NewFromFloat(tc.bid),
				Ask:    decimal.NewFromFloat(tc.bid + 0.0002),
			}
			tick.Derive(decimal.NewFromFloat(tc.prev))
			assert.Equal(t, tc.want, tick.Trend)
		})
	}
}

// -----------------------------------------------------------------------------

func TestDeriveChangeFields(t *testing.T) {
	tick := MTick{
		Symbol: "EURUSD",
		Bid:    decimal.NewFromFloat(1.1055),
		Ask:    decimal.NewFromFloat(1.1057),
	}

	tick.Derive(decimal.NewFromFloat(1.1000))

	assert.Equal(t, "0.0055", tick.PriceChange.String())
	assert.Equal(t, 0.5, tick.PriceChangePct)
}

// -----------------------------------------------------------------------------

func TestDeriveJPYSpreadPips(t *testing.T) {
	tick := MTick{
		Symbol: "USDJPY",
		Bid:    decimal.NewFromFloat(155.00),
		Ask:    decimal.NewFromFloat(155.03),
	}

	tick.Derive(decimal.Zero)

	assert.Equal(t, 3.0, tick.SpreadPips)
}

// -----------------------------------------------------------------------------

func TestTickWireFormat(t *testing.T) {
	decimal.MarshalJSONWithoutQuotes = true
	defer func() { decimal.MarshalJSONWithoutQuotes = false }()

	tick := MTick{
		Symbol: "EURUSD",
		Bid:    decimal.NewFromFloat(1.1000),
		Ask:    decimal.NewFromFloat(1.1002),
	}
	tick.Derive(decimal.NewFromFloat(1.0995))

	raw, err := json.Marshal(tick)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))

	for _, key := range []string{"symbol", "bid", "ask", "spread", "spreadPips", "timestamp", "priceChange", "priceChangePct", "trend"} {
		assert.Contains(t, fields, key)
	}
	// Prices serialize as JSON numbers, not strings.
	assert.IsType(t, float64(0), fields["bid"])
}

// -----------------------------------------------------------------------------

func TestValidSymbol(t *testing.T) {
	valid := []string{"EURUSD", "GBPJPY", "XAUUSD", "EURUSDM"}
	for _, s := range valid {
		assert.True(t, ValidSymbol(s), s)
	}

	invalid := []string{"", "EUR", "eurusd", "EUR/USD", "EURUSD123", "E URUSD"}
	for _, s := range invalid {
		assert.False(t, ValidSymbol(s), s)
	}
}

// -----------------------------------------------------------------------------

func TestTimeframeSeconds(t *testing.T) {
	known := map[string]int64{
		"1": 60, "5": 300, "15": 900, "30": 1800,
		"60": 3600, "240": 14400, "1440": 86400,
	}
	for tf, want := range known {
		got, ok := TimeframeSeconds(tf)
		require.True(t, ok, tf)
		assert.Equal(t, want, got, tf)
	}

	for _, tf := range []string{"", "7", "M15", "0"} {
		_, ok := TimeframeSeconds(tf)
		assert.False(t, ok, tf)
	}
}
