package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	database "github.com/FACorreiaa/go-tekuteku/internal/db"
	"github.com/FACorreiaa/go-tekuteku/internal/pkg/config"
	"github.com/FACorreiaa/go-tekuteku/internal/routes"
)

// Server ties the venue API to its Postgres pool and the resources built by
// routes.Setup.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
	app    *routes.App
	http   *http.Server
}

// New opens a migrated pool and mounts the router on it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	pool, err := openVenueStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("venue store: %w", err)
	}

	router, app, err := SetupRouter(pool, cfg, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("router: %w", err)
	}

	return &Server{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		app:    app,
		http: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			IdleTimeout:       time.Minute,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
	}, nil
}

// openVenueStore connects, waits for Postgres to answer and applies the
// embedded migrations before any handler can touch the venues table.
func openVenueStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	pg := cfg.Repositories.Postgres
	l := logger.With(zap.String("host", pg.Host), zap.String("port", pg.Port), zap.String("database", pg.DB))

	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	pool, err := database.Init(dbConfig, logger)
	if err != nil {
		return nil, err
	}
	if !database.WaitForDB(ctx, pool, logger) {
		pool.Close()
		return nil, fmt.Errorf("postgres at %s:%s is unreachable", pg.Host, pg.Port)
	}
	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		pool.Close()
		return nil, err
	}

	l.Info("Venue store ready")
	return pool, nil
}

// ListenAndServe blocks until the HTTP server stops. A graceful stop is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("Server starting",
		zap.String("addr", s.http.Addr),
		zap.String("like_mode", string(s.cfg.Likes.Mode)))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Closers returns the shutdown steps in order: stop taking requests, drain
// like writes and sessions, then release the pool.
func (s *Server) Closers() []Closer {
	return []Closer{
		s.http.Shutdown,
		s.app.Close,
		func(context.Context) error {
			s.pool.Close()
			return nil
		},
	}
}
