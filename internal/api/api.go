package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tabhome/tabhome/internal/api/handler"
	"github.com/tabhome/tabhome/internal/api/models"
	"github.com/tabhome/tabhome/internal/auth"
	"github.com/tabhome/tabhome/internal/config"
	"github.com/tabhome/tabhome/internal/database"
	"github.com/tabhome/tabhome/internal/upstream"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	auth      *auth.Authenticator
	handler   *handler.Handler
	store     sessions.Store
}

// New creates the HTTP server and registers all routes.
func New(cfg *config.Config, db database.DB, store sessions.Store, clients *upstream.Clients, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if err := handler.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:       cfg,
		ginEngine: gin.New(),
		auth:      auth.New(db, store, cfg.Session.Name),
		handler:   handler.New(db, clients),
		store:     store,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.ginEngine.Use(gin.Recovery(), requestLogger())
	if s.cfg.Metrics != nil && s.cfg.Metrics.Enabled {
		s.ginEngine.Use(recordMetrics())
	}
	if s.cfg.Gzip {
		s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	}
	s.ginEngine.Use(sessions.Sessions(s.cfg.Session.Name, s.store))
}

func (s *Server) setupRoutes() {
	s.ginEngine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{Status: "ok"})
	})
	if s.cfg.Metrics != nil && s.cfg.Metrics.Enabled {
		s.ginEngine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	h := s.handler
	api := s.ginEngine.Group("/api")

	api.POST("/login", s.auth.Login)
	api.POST("/logout", s.auth.Logout)
	api.GET("/check-auth", s.auth.CheckAuth)

	api.GET("/shortcuts", h.ListShortcuts)
	api.GET("/search-engines", h.ListSearchEngines)
	api.GET("/settings", h.GetSettings)

	api.GET("/bing-wallpaper", h.BingWallpaper)
	api.GET("/weather", h.Weather)
	api.GET("/location", h.Location)
	api.GET("/search-suggestions", h.SearchSuggestions)

	protected := api.Group("")
	protected.Use(s.auth.RequireAuth())

	protected.POST("/change-password", s.auth.ChangePassword)

	protected.POST("/shortcuts", h.CreateShortcut)
	protected.PUT("/shortcuts/:id", h.UpdateShortcut)
	protected.DELETE("/shortcuts/:id", h.DeleteShortcut)

	protected.POST("/search-engines", h.CreateSearchEngine)
	protected.PUT("/search-engines/:id", h.UpdateSearchEngine)
	protected.DELETE("/search-engines/:id", h.DeleteSearchEngine)

	protected.PUT("/settings", h.UpdateSettings)
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting API server", "listen", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	log.Info("API server stopped")
	return nil
}
