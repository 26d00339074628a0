package analysis

import (
	"math"
	"sort"

	"mt5-market-hub/src/models"
)

// -----------------------------------------------------------------------------
// Level Detector
// -----------------------------------------------------------------------------

// LevelDetector computes support/resistance levels from a bar series.
// Pure: identical bars always yield identical levels.
type LevelDetector struct {
	Margin          int     // bars excluded at both ends; window is 2*Margin+1
	MaxLevels       int     // cap per kind
	MinPipsDistance float64 // dedup distance, in pips
}

// -----------------------------------------------------------------------------

func NewLevelDetector(cfg models.MLevelsConfig) *LevelDetector {
	return &LevelDetector{
		Margin:          cfg.Margin,
		MaxLevels:       cfg.MaxLevels,
		MinPipsDistance: cfg.MinPipsDistance,
	}
}

// -----------------------------------------------------------------------------

// Detect scans every interior bar and marks it a resistance when its high is
// the window maximum, a support when its low is the window minimum. Candidates
// closer than the dedup distance to an earlier accepted level of the same kind
// are dropped (earlier-found wins). Resistance is sorted descending by price,
// support ascending, both capped at MaxLevels.
func (d *LevelDetector) Detect(symbol string, bars []models.MOHLCBar) models.MLevelSet {
	result := models.MLevelSet{
		Resistance: []models.MLevel{},
		Support:    []models.MLevel{},
	}
	if len(bars) < 2*d.Margin+1 {
		return result
	}

	pip := models.PipSize(symbol).InexactFloat64()
	minDistance := d.MinPipsDistance * pip

	for i := d.Margin; i < len(bars)-d.Margin; i++ {
		isHigh, isLow := true, true
		for j := i - d.Margin; j <= i+d.Margin; j++ {
			if bars[j].High > bars[i].High {
				isHigh = false
			}
			if bars[j].Low < bars[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}

		if isHigh && !tooClose(result.Resistance, bars[i].High, minDistance) {
			result.Resistance = append(result.Resistance, models.MLevel{
				Price:    bars[i].High,
				Strength: levelStrength(bars, bars[i].High, i, pip),
			})
		}
		if isLow && !tooClose(result.Support, bars[i].Low, minDistance) {
			result.Support = append(result.Support, models.MLevel{
				Price:    bars[i].Low,
				Strength: levelStrength(bars, bars[i].Low, i, pip),
			})
		}
	}

	sort.Slice(result.Resistance, func(a, b int) bool {
		return result.Resistance[a].Price > result.Resistance[b].Price
	})
	sort.Slice(result.Support, func(a, b int) bool {
		return result.Support[a].Price < result.Support[b].Price
	})

	if len(result.Resistance) > d.MaxLevels {
		result.Resistance = result.Resistance[:d.MaxLevels]
	}
	if len(result.Support) > d.MaxLevels {
		result.Support = result.Support[:d.MaxLevels]
	}

	return result
}

// -----------------------------------------------------------------------------

func tooClose(existing []models.MLevel, price, minDistance float64) bool {
	for _, lvl := range existing {
		if math.Abs(price-lvl.Price) < minDistance {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// levelStrength counts how many bars from the candidate onward touch the level
// within one pip, scaled into 0..1. Ten touches saturate the score.
func levelStrength(bars []models.MOHLCBar, level float64, start int, pip float64) float64 {
	touches := 0
	for i := start; i < len(bars); i++ {
		b := bars[i]
		if math.Abs(b.High-level) < pip || math.Abs(b.Low-level) < pip ||
			math.Abs(b.Open-level) < pip || math.Abs(b.Close-level) < pip {
			touches++
		}
	}

	strength := float64(touches) / 10.0
	if strength > 1.0 {
		strength = 1.0
	}
	return strength
}
