package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"mt5-market-hub/src/aggregator"
	"mt5-market-hub/src/analysis"
	"mt5-market-hub/src/cache"
	"mt5-market-hub/src/config"
	"mt5-market-hub/src/feed"
	"mt5-market-hub/src/interfaces"
	"mt5-market-hub/src/logger"
	"mt5-market-hub/src/poller"
	"mt5-market-hub/src/server"
	"mt5-market-hub/src/utils"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------

func main() {

	// 1. Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	mockFeed := flag.Bool("mock", false, "use the mock tick feed instead of the terminal")
	flag.Parse()

	// .env is optional, real deployments set the variables directly.
	godotenv.Load()

	// Prices on the wire are numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.LogLevel, conf.Name)

	// 4. Setup Components
	store := cache.NewRedisStore(conf.Redis, appLogger)
	defer store.Close()

	var tickFeed interfaces.ITickFeed
	if *mockFeed {
		appLogger.Info("Using mock tick feed")
		tickFeed = feed.NewMockFeed()
	} else {
		terminal := feed.NewTerminalFeed(conf.Redis, appLogger)
		defer terminal.Close()
		tickFeed = terminal
	}

	detector := analysis.NewLevelDetector(conf.Levels)
	synthetic := analysis.NewSyntheticGenerator(conf.Synthetic, detector)
	agg := aggregator.NewAggregator(store, detector, synthetic, appLogger)

	// 5. Server + Poller
	srv := server.NewAPIServer(conf.MConfig, agg, store, tickFeed, appLogger)
	scheduler := utils.NewFXScheduler(appLogger)
	tickPoller := poller.NewTickPoller(conf.MConfig, tickFeed, srv, store, scheduler, appLogger)

	// Lifecycle Management
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	srv.AttachPoller(tickPoller, ctx, &wg)

	// 6. Start the tick loop immediately; /api/stop and /api/start control
	// it afterwards.
	if err := tickPoller.Start(ctx, &wg); err != nil {
		appLogger.Critical("Failed to start poller: %v", err)
	}

	// 7. Supervisor: an unreachable feed stops the loop with a sticky error;
	// restart it on a fixed backoff. An operator stop leaves no error and is
	// left alone.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !tickPoller.Running() && tickPoller.LastError() != "" {
					appLogger.Warning("Poller down (%s), restarting", tickPoller.LastError())
					if err := tickPoller.Start(ctx, &wg); err != nil {
						appLogger.Error("Poller restart failed: %v", err)
					}
				}
			}
		}
	}()

	// 8. Start Server
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 9. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutdown signal received, stopping...")
	tickPoller.Stop()
	cancel()
	wg.Wait()
	appLogger.Info("Shutdown complete")
}
