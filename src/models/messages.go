package models

// -----------------------------------------------------------------------------
// Websocket wire messages
// -----------------------------------------------------------------------------

// MSubscribeCommand is the only control message clients may send.
type MSubscribeCommand struct {
	Action string `json:"action"`
	Symbol string `json:"symbol"`
}

// -----------------------------------------------------------------------------

// MTickMessage is the fan-out envelope pushed to subscribed clients.
// Timestamp is the broadcast time in unix seconds.
type MTickMessage struct {
	Type      string `json:"type"`
	Symbol    string `json:"symbol"`
	Data      MTick  `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// -----------------------------------------------------------------------------

// MSubscriptionConfirmed acknowledges a subscribe command.
type MSubscriptionConfirmed struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

// -----------------------------------------------------------------------------

// MErrorMessage reports a rejected client command.
type MErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
