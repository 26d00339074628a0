package server

import (
	"time"

	"mt5-market-hub/src/models"
)

// -----------------------------------------------------------------------------
// Hub goroutine
// -----------------------------------------------------------------------------

// runHub is the single goroutine allowed to touch the client table and the
// per-client subscription sets. Serializing through it keeps the fan-out free
// of locks on the hot path.
func (s *APIServer) runHub() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.clientCount.Add(1)
			s.Logger.Info("Client %s connected (%d total)", client.id, len(s.clients))

		case client := <-s.unregister:
			s.dropClient(client)

		case sub := <-s.subscribe:
			s.handleSubscribe(sub)

		case msg := <-s.broadcast:
			s.fanOut(msg)
		}
	}
}

// -----------------------------------------------------------------------------

// dropClient removes a client from the table. The send channel stays open
// so the read side can keep calling trySend harmlessly; closing done tells
// writePump to shut the connection down.
func (s *APIServer) dropClient(client *Client) {
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	s.clientCount.Add(-1)
	client.closed.Store(true)
	close(client.done)
	s.Logger.Info("Client %s disconnected (%d total)", client.id, len(s.clients))
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleSubscribe(sub subscription) {
	client := sub.client
	if _, ok := s.clients[client]; !ok {
		return
	}

	// Duplicate subscriptions collapse to one; the confirmation is still
	// echoed so the client sees an ack either way.
	client.subs[sub.symbol] = struct{}{}

	confirm := &models.MSubscriptionConfirmed{
		Type:   "subscription_confirmed",
		Symbol: sub.symbol,
	}
	if !client.trySend(confirm) {
		s.dropClient(client)
	}
}

// -----------------------------------------------------------------------------

// fanOut delivers a tick message to every client subscribed to its symbol.
// A client whose send buffer is full cannot keep up and is pruned rather
// than allowed to stall the hub.
func (s *APIServer) fanOut(msg *models.MTickMessage) {
	var stale []*Client

	for client := range s.clients {
		if client.closed.Load() {
			stale = append(stale, client)
			continue
		}
		if _, ok := client.subs[msg.Symbol]; !ok {
			continue
		}
		if !client.trySend(msg) {
			stale = append(stale, client)
		}
	}

	for _, client := range stale {
		s.Logger.Warning("Client %s too slow, pruning", client.id)
		s.dropClient(client)
	}
}

// -----------------------------------------------------------------------------
// IBroadcaster
// -----------------------------------------------------------------------------

// Broadcast queues a tick for fan-out. Called from the poller goroutine.
func (s *APIServer) Broadcast(symbol string, tick models.MTick) {
	msg := &models.MTickMessage{
		Type:      "tick",
		Symbol:    symbol,
		Data:      tick,
		Timestamp: time.Now().UTC().Unix(),
	}

	select {
	case s.broadcast <- msg:
	default:
		// Hub saturated: drop the tick, the next pass supersedes it anyway.
		s.Logger.Warning("Broadcast queue full, dropping tick for %s", symbol)
	}
}

// -----------------------------------------------------------------------------

func (s *APIServer) ClientCount() int {
	return int(s.clientCount.Load())
}
