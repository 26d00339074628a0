package models

// -----------------------------------------------------------------------------
// Levels
// -----------------------------------------------------------------------------

// MLevel is one support or resistance price with a 0..1 strength score.
// The kind is given by its position inside MLevelSet.
type MLevel struct {
	Price    float64 `json:"price"`
	Strength float64 `json:"strength"`
}

type MLevelSet struct {
	Resistance []MLevel `json:"resistance"`
	Support    []MLevel `json:"support"`
}

// -----------------------------------------------------------------------------
// Prediction
// -----------------------------------------------------------------------------

const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

type MPrediction struct {
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
}

// -----------------------------------------------------------------------------
// Fundamental Events
// -----------------------------------------------------------------------------

type MFundamentalEvent struct {
	Title    string `json:"title"`
	Time     string `json:"time"`
	Currency string `json:"currency"`
	Impact   string `json:"impact"` // low / medium / high
	Expected string `json:"expected"`
	Previous string `json:"previous"`
}

// -----------------------------------------------------------------------------
// Snapshot
// -----------------------------------------------------------------------------

// MSnapshot is the aggregate answer to "everything for symbol X at timeframe T".
// Structurally complete on success; Error is set only when Success is false.
type MSnapshot struct {
	Success      bool                `json:"success"`
	OHLC         []MOHLCBar          `json:"ohlc"`
	Levels       MLevelSet           `json:"levels"`
	CurrentPrice float64             `json:"currentPrice"`
	Prediction   MPrediction         `json:"prediction"`
	Fundamentals []MFundamentalEvent `json:"fundamentals"`
	Error        string              `json:"error,omitempty"`
}
