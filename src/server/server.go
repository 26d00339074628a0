package server

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"mt5-market-hub/src/aggregator"
	"mt5-market-hub/src/interfaces"
	"mt5-market-hub/src/logger"
	"mt5-market-hub/src/models"
	"mt5-market-hub/src/poller"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

// APIServer owns the HTTP/websocket surface and the subscription hub that
// fans ticks out to connected clients.
type APIServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	engine *gin.Engine

	aggregator *aggregator.Aggregator
	store      interfaces.ICacheStore
	feed       interfaces.ITickFeed

	// Poller control, wired in by main after construction.
	poller    *poller.TickPoller
	pollerCtx context.Context
	pollerWg  *sync.WaitGroup

	// Hub state. The tables are owned by the hub goroutine; everything else
	// talks to them through the channels.
	clients     map[*Client]struct{}
	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	broadcast   chan *models.MTickMessage
	clientCount atomic.Int64
}

type subscription struct {
	client *Client
	symbol string
}

var _ interfaces.IBroadcaster = (*APIServer)(nil)

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(
	cfg *models.MConfig,
	agg *aggregator.Aggregator,
	store interfaces.ICacheStore,
	feed interfaces.ITickFeed,
	log *logger.Logger,
) *APIServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:     cfg,
		Logger:     log,
		engine:     gin.Default(),
		aggregator: agg,
		store:      store,
		feed:       feed,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		// Buffered so a burst of poller passes never blocks on the hub.
		broadcast: make(chan *models.MTickMessage, 256),
	}

	s.engine.Use(corsMiddleware())
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/data/:symbol/:timeframe", s.getData)
	s.engine.GET("/api/symbols", s.getSymbols)
	s.engine.GET("/api/status", s.getStatus)
	s.engine.GET("/api/health", s.getHealth)
	s.engine.POST("/api/start", s.postStart)
	s.engine.POST("/api/stop", s.postStop)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Poller wiring
// -----------------------------------------------------------------------------

// AttachPoller hands the server the poller plus the lifecycle context the
// start endpoint should launch it under.
func (s *APIServer) AttachPoller(p *poller.TickPoller, ctx context.Context, wg *sync.WaitGroup) {
	s.poller = p
	s.pollerCtx = ctx
	s.pollerWg = wg
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.runHub()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getData(c *gin.Context) {
	snapshot := s.aggregator.GetSnapshot(
		c.Request.Context(),
		c.Param("symbol"),
		c.Param("timeframe"),
	)

	status := 200
	if !snapshot.Success {
		status = 400
	}
	c.JSON(status, snapshot)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getSymbols(c *gin.Context) {
	symbols, err := s.store.ListSymbols(c.Request.Context())
	if err != nil {
		// Cache down: fall back to the configured universe.
		symbols = s.Config.Feed.Symbols
	}
	if symbols == nil {
		symbols = []string{}
	}

	c.JSON(200, gin.H{
		"symbols": symbols,
		"count":   len(symbols),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getStatus(c *gin.Context) {
	resp := models.MStatusResponse{
		ClientCount:    s.ClientCount(),
		TrackedSymbols: s.Config.Feed.Symbols,
	}
	if s.poller != nil {
		resp.Running = s.poller.Running()
		resp.LastError = s.poller.LastError()
	}
	// Best effort: the terminal adapter's own status record, when present.
	if status, err := s.store.GetSystemStatus(c.Request.Context()); err == nil {
		resp.Terminal = status
	}

	c.JSON(200, resp)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	ctx := c.Request.Context()

	cacheUp := s.store.Ping(ctx) == nil
	feedUp := s.feed.Ping(ctx) == nil

	status := "healthy"
	if !cacheUp || !feedUp {
		status = "degraded"
	}

	c.JSON(200, models.MHealthResponse{
		Status: status,
		Cache:  cacheUp,
		Feed:   feedUp,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) postStart(c *gin.Context) {
	if s.poller == nil {
		c.JSON(503, gin.H{"message": "poller not configured"})
		return
	}
	if err := s.poller.Start(s.pollerCtx, s.pollerWg); err != nil {
		c.JSON(409, gin.H{"message": err.Error()})
		return
	}
	c.JSON(200, gin.H{"message": "System started"})
}

// -----------------------------------------------------------------------------

func (s *APIServer) postStop(c *gin.Context) {
	if s.poller == nil {
		c.JSON(503, gin.H{"message": "poller not configured"})
		return
	}
	if err := s.poller.Stop(); err != nil {
		c.JSON(409, gin.H{"message": err.Error()})
		return
	}
	c.JSON(200, gin.H{"message": "System stopped"})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
