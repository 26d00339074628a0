package poller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"mt5-market-hub/src/helpers"
	"mt5-market-hub/src/interfaces"
	"mt5-market-hub/src/logger"
	"mt5-market-hub/src/models"
	"mt5-market-hub/src/utils"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// TickPoller
// -----------------------------------------------------------------------------

// How long to doze between session checks while the market is closed.
const closedMarketPause = time.Minute

// TickPoller pulls the latest tick for each tracked symbol from the upstream
// feed on a fixed cadence, derives the change fields against the previous
// known price and hands each tick to the broadcaster.
type TickPoller struct {
	Config      *models.MConfig
	Feed        interfaces.ITickFeed
	Broadcaster interfaces.IBroadcaster
	Store       interfaces.ICacheStore
	Scheduler   *utils.FXScheduler
	Logger      *logger.Logger

	// Last known bid per symbol. Touched only by the run loop goroutine.
	lastPrices map[string]decimal.Decimal

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	isRunning  atomic.Bool
	lastErr    atomic.Value // string
}

// -----------------------------------------------------------------------------

func NewTickPoller(
	cfg *models.MConfig,
	feed interfaces.ITickFeed,
	broadcaster interfaces.IBroadcaster,
	store interfaces.ICacheStore,
	scheduler *utils.FXScheduler,
	log *logger.Logger,
) *TickPoller {
	return &TickPoller{
		Config:      cfg,
		Feed:        feed,
		Broadcaster: broadcaster,
		Store:       store,
		Scheduler:   scheduler,
		Logger:      log,
		lastPrices:  make(map[string]decimal.Decimal),
	}
}

// -----------------------------------------------------------------------------

// Start launches the polling loop. Safe to call again after Stop or after a
// fatal feed loss.
func (p *TickPoller) Start(parentCtx context.Context, wg *sync.WaitGroup) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning.Load() {
		return fmt.Errorf("poller is already running")
	}

	ctx, cancel := context.WithCancel(parentCtx)
	p.cancelFunc = cancel
	p.isRunning.Store(true)
	p.lastErr.Store("")

	wg.Add(1)
	go p.runLoop(ctx, wg)

	p.Logger.Info("Poller started for %d symbols, interval %dms",
		len(p.Config.Feed.Symbols), p.Config.Feed.PollIntervalMs)
	return nil
}

// -----------------------------------------------------------------------------

// Stop signals the run loop to exit. The loop observes the signal before the
// next sleep completes.
func (p *TickPoller) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning.Load() {
		return fmt.Errorf("poller is not running")
	}

	if p.cancelFunc != nil {
		p.cancelFunc()
	}
	p.isRunning.Store(false)
	p.Logger.Info("Poller stopped")
	return nil
}

// -----------------------------------------------------------------------------

// releaseContext cancels the context derived in Start so nothing lingers after
// the loop exits on its own.
func (p *TickPoller) releaseContext() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelFunc != nil {
		p.cancelFunc()
	}
}

// -----------------------------------------------------------------------------

func (p *TickPoller) Running() bool {
	return p.isRunning.Load()
}

// -----------------------------------------------------------------------------

// LastError returns the fatal error that stopped the loop, if any.
func (p *TickPoller) LastError() string {
	if v := p.lastErr.Load(); v != nil {
		return v.(string)
	}
	return ""
}

// -----------------------------------------------------------------------------

func (p *TickPoller) Symbols() []string {
	return p.Config.Feed.Symbols
}

// -----------------------------------------------------------------------------

func (p *TickPoller) runLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	interval := time.Duration(p.Config.Feed.PollIntervalMs) * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if p.Config.Feed.SessionAware && p.Scheduler != nil && !p.Scheduler.MarketOpen(time.Now()) {
			p.Logger.Debug("Market closed, pausing")
			if !sleep(ctx, closedMarketPause) {
				return
			}
			continue
		}

		if fatal := p.pass(ctx); fatal != nil {
			p.lastErr.Store(fatal.Error())
			p.releaseContext()
			p.isRunning.Store(false)
			p.Logger.Error("Feed connection lost, stopping poller: %v", fatal)
			return
		}

		if !sleep(ctx, interval) {
			return
		}
	}
}

// -----------------------------------------------------------------------------

// pass walks all tracked symbols once. A single-symbol error is logged and
// skipped; only loss of the feed connection itself is returned as fatal.
func (p *TickPoller) pass(ctx context.Context) error {
	for _, symbol := range p.Config.Feed.Symbols {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		tick, err := p.Feed.LatestTick(ctx, symbol)
		if err != nil {
			if helpers.IsUpstreamUnreachable(err) {
				return err
			}
			p.Logger.Warning("Skipping %s this pass: %v", symbol, err)
			continue
		}
		if tick == nil {
			continue
		}

		tick.Derive(p.lastPrices[symbol])
		p.lastPrices[symbol] = tick.Bid

		p.Broadcaster.Broadcast(symbol, *tick)

		if p.Store != nil {
			if err := p.Store.SetLatestTick(ctx, *tick); err != nil {
				p.Logger.Debug("Latest-tick write failed for %s: %v", symbol, err)
			}
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// sleep waits for d or until the context is cancelled; returns false on cancel.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
