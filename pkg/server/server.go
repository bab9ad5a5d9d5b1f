package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	gws "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"sprouthub/pkg/assistant"
	"sprouthub/pkg/backend"
	"sprouthub/pkg/dashboard"
	"sprouthub/pkg/domain"
	"sprouthub/pkg/library"
	"sprouthub/pkg/logger"
	"sprouthub/pkg/middleware"
	"sprouthub/pkg/websocket"
)

type Dashboard interface {
	View() dashboard.View
	History(nodeID string) ([]domain.Reading, bool)
	SelectNode(ctx context.Context, nodeID string) error
	Watch() (<-chan dashboard.View, func())
}

type Library interface {
	Refresh(ctx context.Context) error
	Assign(ctx context.Context, nodeID, cropType string) (domain.CropAssignment, error)
	AssignedCrop(ctx context.Context, nodeID string) (domain.CropAssignment, error)
	Profile(ctx context.Context, cropID string) (domain.CropProfile, error)
	Documents(ctx context.Context) ([]domain.KnowledgeDocument, error)
	DeleteDocument(ctx context.Context, name string) (domain.DocumentDeletion, error)
	Upload(ctx context.Context, req backend.UploadRequest) (domain.UploadResult, error)
	Delete(ctx context.Context, cropID string) error
	Search(ctx context.Context, query, cropType string) ([]domain.SearchResult, error)
	State() library.State
}

type Backend interface {
	AIStatus(ctx context.Context) (domain.AIStatus, error)
	CheckConnectivity(ctx context.Context) (string, error)
	CompareNodes(ctx context.Context) (string, error)
}

type Assistant interface {
	Ask(ctx context.Context, question string) (assistant.Message, error)
	Messages() []assistant.Message
}

type Locale interface {
	Language() string
	SetLanguage(lang string) error
}

type UnifiedServerConfig struct {
	Addr              string
	RequestTimeout    time.Duration
	ChatRatePerSecond float64
	ChatBurst         int
	TrustProxyHeaders bool
}

type Dependencies struct {
	Dashboard Dashboard
	Library   Library
	Assistant Assistant
	Backend   Backend
	Locale    Locale
	Collector domain.MetricsCollector
}

type UnifiedServer struct {
	config   UnifiedServerConfig
	deps     Dependencies
	hub      *websocket.Hub
	upgrader gws.Upgrader
	limiter  *middleware.RateLimiter
	server   *http.Server
	addr     string
	logger   zerolog.Logger
	mu       sync.RWMutex
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

func NewUnifiedServer(config UnifiedServerConfig, deps Dependencies) *UnifiedServer {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = domain.DefaultBackendTimeout
	}
	if config.ChatRatePerSecond <= 0 {
		config.ChatRatePerSecond = domain.DefaultChatRatePerSecond
	}
	if config.ChatBurst <= 0 {
		config.ChatBurst = domain.DefaultChatBurst
	}

	log := logger.ComponentLogger("unified-server")
	return &UnifiedServer{
		config:   config,
		deps:     deps,
		hub:      websocket.NewHub(),
		upgrader: gws.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		limiter:  middleware.NewRateLimiter(config.ChatRatePerSecond, config.ChatBurst, config.TrustProxyHeaders, log),
		logger:   log,
	}
}

// Handler builds the router. The request timeout wraps only /api routes
// because the websocket endpoint needs to hijack its connection.
func (s *UnifiedServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RecoveryMiddleware(s.logger), middleware.RequestLogger(s.logger))

	r.Get(domain.DefaultHealthPath, s.healthHandler)
	if s.deps.Collector != nil {
		r.Handle(domain.DefaultMetricsPath, promhttp.HandlerFor(s.deps.Collector.GetRegistry(), promhttp.HandlerOpts{}))
	}
	if s.deps.Dashboard != nil {
		r.Get(domain.DefaultWebSocketPath, s.webSocketHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.TimeoutMiddleware(s.config.RequestTimeout))

		if s.deps.Dashboard != nil {
			r.Get("/dashboard", s.dashboardHandler)
			r.With(middleware.ValidateJSONMiddleware()).Post("/dashboard/select", s.selectHandler)
			r.Get("/nodes/{id}/history", s.historyHandler)
		}

		if s.deps.Assistant != nil {
			r.Get("/chat", s.chatLogHandler)
			r.With(middleware.RateLimitMiddleware(s.limiter), middleware.ValidateJSONMiddleware()).
				Post("/chat", s.chatHandler)
		}

		if s.deps.Library != nil {
			r.Get("/library", s.libraryHandler)
			r.Get("/library/assign", s.assignedCropHandler)
			r.With(middleware.ValidateJSONMiddleware()).Post("/library/assign", s.assignHandler)
			r.Post("/library/upload", s.uploadHandler)
			r.Get("/library/documents", s.documentsHandler)
			r.Delete("/library/documents/{name}", s.deleteDocumentHandler)
			r.Get("/library/{crop_id}", s.profileHandler)
			r.Delete("/library/{crop_id}", s.deleteCropHandler)
			r.With(middleware.ValidateJSONMiddleware()).Post("/library/search", s.searchHandler)
		}

		if s.deps.Backend != nil {
			r.Get("/status", s.aiStatusHandler)
			r.Post("/nodes/check-connectivity", s.checkConnectivityHandler)
			r.Get("/nodes/compare", s.compareNodesHandler)
		}

		if s.deps.Locale != nil {
			r.Get("/language", s.getLanguageHandler)
			r.With(middleware.ValidateJSONMiddleware()).Put("/language", s.putLanguageHandler)
		}
	})

	return r
}

func (s *UnifiedServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	server := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       domain.DefaultReadTimeout,
		WriteTimeout:      s.config.RequestTimeout + domain.DefaultWriteTimeout,
		ReadHeaderTimeout: domain.DefaultHeaderTimeout,
		IdleTimeout:       domain.DefaultIdleTimeout,
	}

	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.server = server
	s.addr = listener.Addr().String()
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(runCtx)
	}()

	if s.deps.Dashboard != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.broadcastViews(runCtx)
		}()
	}

	go func() {
		s.logger.Info().Str("address", s.Addr()).Msg("unified server starting")
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("unified server error")
		}
	}()

	go func() {
		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), domain.DefaultTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("server shutdown error")
		}
	}()

	return nil
}

func (s *UnifiedServer) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

func (s *UnifiedServer) broadcastViews(ctx context.Context) {
	views, stop := s.deps.Dashboard.Watch()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case view, ok := <-views:
			if !ok {
				return
			}
			if err := s.hub.Broadcast(ctx, websocket.MessageTypeView, s.localize(view, "")); err != nil && ctx.Err() == nil {
				s.logger.Warn().Err(err).Msg("view broadcast failed")
			}
		}
	}
}

func (s *UnifiedServer) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	server, cancel := s.server, s.cancel
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if server == nil {
		return nil
	}

	err := server.Shutdown(ctx)
	s.wg.Wait()
	return err
}
