package models

// -----------------------------------------------------------------------------
// Control surface responses
// -----------------------------------------------------------------------------

// MStatusResponse answers the status query.
type MStatusResponse struct {
	Running        bool              `json:"running"`
	ClientCount    int               `json:"clientCount"`
	TrackedSymbols []string          `json:"trackedSymbols"`
	LastError      string            `json:"lastError,omitempty"`
	Terminal       map[string]string `json:"terminal,omitempty"`
}

// -----------------------------------------------------------------------------

// MHealthResponse reports boolean reachability of the two dependencies.
type MHealthResponse struct {
	Status string `json:"status"` // healthy / degraded
	Cache  bool   `json:"cache"`
	Feed   bool   `json:"feed"`
}
