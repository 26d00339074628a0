package interfaces

import "mt5-market-hub/src/models"

// -----------------------------------------------------------------------------
// IBroadcaster fans a tick out to every live connection subscribed to its
// symbol. Delivery failures are handled internally and never surface here.
// -----------------------------------------------------------------------------

type IBroadcaster interface {

	// -----------------------------------------------------------------------------

	// Broadcast delivers one tick to all interested open connections.
	Broadcast(symbol string, tick models.MTick)

	// -----------------------------------------------------------------------------

	// ClientCount returns the number of currently open connections.
	ClientCount() int
}
