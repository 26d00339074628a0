package models

import "regexp"

// -----------------------------------------------------------------------------
// Request validation
// -----------------------------------------------------------------------------

// Timeframes are expressed in minutes, matching the terminal's bucket widths.
var timeframeMinutes = map[string]int64{
	"1":    1,
	"5":    5,
	"15":   15,
	"30":   30,
	"60":   60,
	"240":  240,
	"1440": 1440,
}

var symbolPattern = regexp.MustCompile(`^[A-Z]{6,8}$`)

// -----------------------------------------------------------------------------

// TimeframeSeconds maps a timeframe label to its bucket width in seconds.
func TimeframeSeconds(timeframe string) (int64, bool) {
	minutes, ok := timeframeMinutes[timeframe]
	return minutes * 60, ok
}

// -----------------------------------------------------------------------------

// ValidSymbol reports whether a symbol has the expected upper-case pair format.
func ValidSymbol(symbol string) bool {
	return symbolPattern.MatchString(symbol)
}
