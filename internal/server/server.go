// Package server exposes the generation engine over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/motivai/motivai-engine/internal/cache"
	"github.com/motivai/motivai-engine/internal/config"
	"github.com/motivai/motivai-engine/internal/llm"
	"github.com/motivai/motivai-engine/internal/middleware"
	"github.com/motivai/motivai-engine/internal/pipeline"
	"github.com/motivai/motivai-engine/internal/realtime"
	"github.com/motivai/motivai-engine/internal/research"
	"github.com/motivai/motivai-engine/internal/store"
)

// Version is the engine version reported by /info.
const Version = "1.0.0"

// Server wires every component together and serves the HTTP API.
type Server struct {
	config *config.Config
	logger *zap.Logger

	// Core components
	cache        cache.Cache
	store        store.Store
	model        llm.Client
	orchestrator *pipeline.Orchestrator
	aggregator   *realtime.Aggregator
	limiter      *middleware.RateLimiter

	closers []io.Closer

	// HTTP server
	httpServer *http.Server

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// State
	mu      sync.RWMutex
	running bool
}

// New creates a server and initializes all of its components.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config: cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := s.initializeComponents(); err != nil {
		cancel()
		return nil, fmt.Errorf("initialize components: %w", err)
	}
	return s, nil
}

func (s *Server) initializeComponents() error {
	cacheClient := cache.New(s.config, s.logger)
	s.cache = cacheClient
	s.closers = append(s.closers, cacheClient)

	model, err := llm.New(s.config)
	if err != nil {
		return fmt.Errorf("initialize llm client: %w", err)
	}
	s.model = model

	st, err := store.NewSQLite(s.config.Database.Path)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	s.store = st
	s.closers = append(s.closers, st)

	engine := research.NewEngine(model, s.cache, s.logger)
	s.orchestrator = pipeline.New(engine, st, s.cache, model, s.logger)
	s.aggregator = realtime.New(s.cache, s.config, s.logger)

	if limit := s.config.Server.GenerateRateLimit; limit > 0 {
		s.limiter = middleware.NewRateLimiter(limit)
	}
	return nil
}

// Start begins serving HTTP traffic and launches the realtime aggregator.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	mux := http.NewServeMux()
	s.registerHandlers(mux)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.HTTPPort),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second, // generation requests can be slow
		IdleTimeout:  120 * time.Second,
	}

	s.aggregator.Start(s.ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", zap.Error(err))
		}
	}()

	s.logger.Info("motivai engine started",
		zap.String("llm_provider", s.model.Provider()),
		zap.String("llm_model", s.model.Model()),
		zap.Bool("cache_enabled", !s.config.Cache.Disabled))
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is not running")
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("stopping motivai engine")

	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("http shutdown error", zap.Error(err))
		}
	}

	s.aggregator.Stop()
	if s.limiter != nil {
		s.limiter.Stop()
	}
	s.cancel()
	s.wg.Wait()

	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.logger.Warn("close component", zap.Error(err))
		}
	}

	s.logger.Info("motivai engine stopped")
	return nil
}

// IsRunning reports whether the server is currently serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
