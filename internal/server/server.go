package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mohammad-safakhou/searchchat/config"
	"github.com/mohammad-safakhou/searchchat/internal/chat"
	"github.com/mohammad-safakhou/searchchat/internal/telemetry"
	"github.com/mohammad-safakhou/searchchat/provider"
	"github.com/mohammad-safakhou/searchchat/session"
	"github.com/mohammad-safakhou/searchchat/session/inmemory"
)

// New builds the HTTP API over an existing store and orchestrator. metrics may
// be nil, in which case /metrics is not mounted.
func New(cfg *config.Config, store session.Store, orch *chat.Orchestrator, metrics *telemetry.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	origins := cfg.Server.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Sessions: store.Len(), Time: time.Now().UTC()})
	})
	registerDocs(e)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	sh := &SessionsHandler{
		Store:  store,
		Orch:   orch,
		LLM:    cfg.LLM,
		Search: cfg.Search.Enabled,
		TTL:    cfg.Session.TTL,
		Stream: cfg.Server.StreamEnabled,
		logger: baseLogger,
	}
	sh.Register(e.Group("/api"))
	return e
}

// Run wires the provider, orchestrator and session store from cfg and serves
// the API on addr, or on cfg.Server.Address when addr is empty.
func Run(cfg *config.Config, addr string) error {
	p, err := provider.NewProvider(cfg.LLM, cfg.General.DebugEnabled())
	if err != nil {
		return err
	}
	var metrics *telemetry.Metrics
	if cfg.Telemetry.Enabled {
		metrics = telemetry.NewMetrics()
	}
	orchLogger := log.New(log.Writer(), "[CHAT] ", log.LstdFlags)
	orch := chat.NewOrchestrator(p, cfg.LLM, orchLogger, metrics, cfg.General.DebugEnabled())
	store := inmemory.NewInMemorySessionStore()

	sweeper := &Sweeper{
		Store:    store,
		Interval: cfg.Session.SweepInterval,
		Stop:     make(chan struct{}),
		Logger:   log.New(log.Writer(), "[SESSIONS] ", log.LstdFlags),
	}
	sweeper.Start()
	defer close(sweeper.Stop)

	e := New(cfg, store, orch, metrics)

	if addr == "" {
		addr = cfg.Server.Address
		if addr != "" && addr[0] != ':' {
			addr = ":" + addr
		}
		if addr == "" {
			addr = ":10001"
		}
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
