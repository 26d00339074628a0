// Command viewer is a diagnostic websocket client: it connects to a running
// hub, subscribes to a set of symbols and prints every tick it receives.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mt5-market-hub/src/helpers"
	"mt5-market-hub/src/logger"
	"mt5-market-hub/src/models"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------

func main() {
	addr := flag.String("addr", "ws://localhost:8000/ws", "websocket endpoint")
	symbolsFlag := flag.String("symbols", "EURUSD,GBPUSD", "comma-separated symbols to subscribe")
	flag.Parse()

	appLogger := logger.NewLogger("INFO", "viewer")

	symbols := strings.Split(strings.ToUpper(*symbolsFlag), ",")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		appLogger.Info("Interrupted, closing")
		cancel()
	}()

	// Reconnect loop: each session dials, subscribes and streams until the
	// connection drops, then backs off and tries again.
	for ctx.Err() == nil {
		err := helpers.RetryWithBackoff(ctx, 5, time.Second, func() error {
			return runSession(ctx, *addr, symbols, appLogger)
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			appLogger.Error("Session failed: %v", err)
			time.Sleep(2 * time.Second)
		}
	}
}

// -----------------------------------------------------------------------------

func runSession(ctx context.Context, addr string, symbols []string, log *logger.Logger) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Info("Connected to %s", addr)

	for _, symbol := range symbols {
		cmd := models.MSubscribeCommand{Action: "subscribe", Symbol: symbol}
		if err := conn.WriteJSON(cmd); err != nil {
			return fmt.Errorf("subscribe %s: %w", symbol, err)
		}
	}

	// Unblock ReadMessage on shutdown.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		printMessage(raw, log)
	}
}

// -----------------------------------------------------------------------------

func printMessage(raw []byte, log *logger.Logger) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		log.Warning("Unparseable message: %s", raw)
		return
	}

	switch envelope.Type {
	case "tick":
		var msg models.MTickMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Warning("Bad tick payload: %v", err)
			return
		}
		fmt.Printf("%s  %-8s bid=%s ask=%s spread=%.1fp trend=%s\n",
			time.Unix(msg.Timestamp, 0).UTC().Format("15:04:05"),
			msg.Symbol,
			msg.Data.Bid.String(),
			msg.Data.Ask.String(),
			msg.Data.SpreadPips,
			msg.Data.Trend,
		)

	case "subscription_confirmed":
		var msg models.MSubscriptionConfirmed
		json.Unmarshal(raw, &msg)
		log.Info("Subscribed to %s", msg.Symbol)

	case "error":
		var msg models.MErrorMessage
		json.Unmarshal(raw, &msg)
		log.Warning("Server error: %s", msg.Error)

	default:
		log.Debug("Ignoring message type %q", envelope.Type)
	}
}
