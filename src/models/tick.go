package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Tick
// -----------------------------------------------------------------------------

// Trend tags for a tick relative to the previous known price.
const (
	TrendUp      = "up"
	TrendDown    = "down"
	TrendNeutral = "neutral"
)

// MTick is a single bid/ask quote update for a symbol. Ephemeral: produced by
// the poller, pushed through the broadcaster, never persisted here.
type MTick struct {
	Symbol         string          `json:"symbol"`
	Bid            decimal.Decimal `json:"bid"`
	Ask            decimal.Decimal `json:"ask"`
	Spread         decimal.Decimal `json:"spread"`
	SpreadPips     float64         `json:"spreadPips"`
	Timestamp      int64           `json:"timestamp"`
	PriceChange    decimal.Decimal `json:"priceChange"`
	PriceChangePct float64         `json:"priceChangePct"`
	Trend          string          `json:"trend"`
}

// -----------------------------------------------------------------------------

// PipSize returns the conventional price increment for a symbol.
// JPY-quoted pairs use 0.01, everything else 0.0001.
func PipSize(symbol string) decimal.Decimal {
	if strings.HasSuffix(strings.ToUpper(symbol), "JPY") {
		return decimal.NewFromFloat(0.01)
	}
	return decimal.NewFromFloat(0.0001)
}

// -----------------------------------------------------------------------------

// Derive fills the fields computed relative to the previous bid price.
// A zero prev means "no previous price": change fields stay zero, trend neutral.
func (t *MTick) Derive(prev decimal.Decimal) {
	t.Spread = t.Ask.Sub(t.Bid)

	pip := PipSize(t.Symbol)
	t.SpreadPips = t.Spread.Div(pip).Round(1).InexactFloat64()

	t.Trend = TrendNeutral
	if prev.IsZero() {
		return
	}

	t.PriceChange = t.Bid.Sub(prev).Round(5)
	pct, _ := t.PriceChange.Div(prev).Mul(decimal.NewFromInt(100)).Round(4).Float64()
	t.PriceChangePct = pct

	// A tenth of a pip separates "moved" from noise.
	threshold := pip.Div(decimal.NewFromInt(10))
	switch {
	case t.PriceChange.GreaterThan(threshold):
		t.Trend = TrendUp
	case t.PriceChange.LessThan(threshold.Neg()):
		t.Trend = TrendDown
	}
}
