package models

import "math"

// -----------------------------------------------------------------------------
// OHLC Bars
// -----------------------------------------------------------------------------

// MOHLCBar is one open/high/low/close summary for a fixed time bucket.
// Time is the bucket start in unix seconds.
type MOHLCBar struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume,omitempty"`
}

// -----------------------------------------------------------------------------

// Valid reports whether all four prices are finite and non-negative.
func (b MOHLCBar) Valid() bool {
	for _, p := range [4]float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return false
		}
	}
	return b.Close > 0
}

// -----------------------------------------------------------------------------

// ValidateBars enforces the series invariant: strictly increasing bucket times,
// no duplicates, every bar valid. Returns false on the first violation.
func ValidateBars(bars []MOHLCBar) bool {
	for i, b := range bars {
		if !b.Valid() {
			return false
		}
		if i > 0 && b.Time <= bars[i-1].Time {
			return false
		}
	}
	return true
}
