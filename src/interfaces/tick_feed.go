package interfaces

import (
	"context"

	"mt5-market-hub/src/models"
)

// -----------------------------------------------------------------------------
// ITickFeed is the upstream quote source the poller pulls from.
// -----------------------------------------------------------------------------

type ITickFeed interface {

	// -----------------------------------------------------------------------------

	// LatestTick returns the most recent quote for a symbol, or (nil, nil)
	// when the feed simply has nothing for it yet. Errors are either
	// *helpers.UpstreamSymbolError (skip the symbol) or
	// *helpers.UpstreamUnreachableError (the connection itself is gone).
	LatestTick(ctx context.Context, symbol string) (*models.MTick, error)

	// -----------------------------------------------------------------------------

	// Ping reports reachability of the upstream connection.
	Ping(ctx context.Context) error
}
