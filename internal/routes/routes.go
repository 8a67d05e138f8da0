package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/domain"
	"github.com/FACorreiaa/go-tekuteku/internal/app/domain/admin"
	"github.com/FACorreiaa/go-tekuteku/internal/app/domain/auth"
	"github.com/FACorreiaa/go-tekuteku/internal/app/domain/geocoding"
	"github.com/FACorreiaa/go-tekuteku/internal/app/domain/likes"
	"github.com/FACorreiaa/go-tekuteku/internal/app/domain/mapsurface"
	"github.com/FACorreiaa/go-tekuteku/internal/app/domain/seo"
	"github.com/FACorreiaa/go-tekuteku/internal/app/domain/venues"
	"github.com/FACorreiaa/go-tekuteku/internal/app/middleware"
	"github.com/FACorreiaa/go-tekuteku/internal/pkg/cache"
	"github.com/FACorreiaa/go-tekuteku/internal/pkg/config"
)

type AppHandlers struct {
	Venues *venues.Handler
	Likes  *likes.Handler
	Auth   *auth.AuthHandlers
	Admin  *admin.Handler
	Map    *mapsurface.Handler
	SEO    *seo.Handler
}

// App owns the long-lived pieces built by Setup. Close releases them.
type App struct {
	Handlers   *AppHandlers
	Sessions   *auth.SessionManager
	Caches     *cache.CacheManager
	dispatcher *likes.Dispatcher
	redis      *cache.RedisClient
	stopWatch  context.CancelFunc
	logger     *zap.Logger
}

// Close drains queued counter writes and tears down session fan-out and Redis.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.stopWatch != nil {
		a.stopWatch()
	}
	if a.dispatcher != nil {
		if err := a.dispatcher.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.Sessions.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.logger.Info("Application resources released")
	return errors.Join(errs...)
}

// Setup builds every dependency and registers the routes on r.
func Setup(r *gin.Engine, pool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) (*App, error) {
	app, err := setupDependencies(pool, cfg, log)
	if err != nil {
		return nil, err
	}
	setupRouter(r, app, pool)
	return app, nil
}

func setupDependencies(pool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) (*App, error) {
	ctx := context.Background()
	baseHandler := domain.NewBaseHandler(log)
	caches := cache.NewCacheManager(cfg.Maps.GeocodeTTL, log)
	app := &App{Caches: caches, logger: log}

	if cfg.Repositories.Redis.Enabled() {
		rc, err := cache.NewRedisClient(ctx, cfg.Repositories.Redis)
		if err != nil {
			// Redis is an accelerator; the in-process caches cover for it.
			log.Warn("Redis unavailable, using in-memory caches", zap.Error(err))
		} else {
			app.redis = rc
			log.Info("Connected to Redis", zap.String("addr", cfg.Repositories.Redis.Addr()))
		}
	}

	// Geocoding
	var geocodeCache geocoding.Cache = geocoding.NewMemoryCache(caches.Geocodes)
	if app.redis != nil {
		geocodeCache = geocoding.NewRedisCache(app.redis.Client(), cfg.Maps.GeocodeTTL, log)
	}
	if cfg.Maps.GoogleAPIKey == "" {
		log.Warn("GOOGLE_MAPS_API_KEY not set, venue addresses cannot be geocoded")
	}
	geocoder := geocoding.NewGoogleGeocoder(cfg.Maps.GoogleAPIKey, cfg.Maps.GeocodeURL,
		&http.Client{Timeout: 10 * time.Second}, geocodeCache, log)

	// Auth
	authRepo := auth.NewPostgresAuthRepo(pool, log)
	authService := auth.NewAuthService(authRepo, cfg.JWT, log)
	app.Sessions = auth.NewSessionManager(authService, cfg.Session.InitTimeout, log)

	// Likes
	likeRepo := likes.NewRepository(pool, log)
	var ledger likes.Ledger
	accountOnly := cfg.Likes.Mode == config.LikeModeAccount
	if accountOnly {
		accountLedger := likes.NewAccountLedger(likeRepo, caches.AccountLikeViews, log)
		watchCtx, cancel := context.WithCancel(ctx)
		app.stopWatch = cancel
		go accountLedger.Watch(watchCtx, app.Sessions.Subscribe())
		ledger = accountLedger
	} else {
		var liked likes.LikedSet = likes.NewMemoryLikedSet(caches.DeviceLikes)
		if app.redis != nil {
			liked = likes.NewRedisLikedSet(app.redis.Client())
		}
		app.dispatcher = likes.NewDispatcher(cfg.Likes.DispatchWorkers, cfg.Likes.DispatchTimeout, log)
		ledger = likes.NewDeviceLedger(likeRepo, liked, caches.LikeViews, app.dispatcher, log)
	}
	log.Info("Like ledger selected", zap.String("mode", string(cfg.Likes.Mode)))

	// Venues
	venueRepo := venues.NewRepository(pool, log)
	directory := venues.NewDirectory(venueRepo, cfg.Directory.SnapshotTTL, log)
	venueService := venues.NewService(venueRepo, directory, geocoder, log)

	app.Handlers = &AppHandlers{
		Venues: venues.NewHandler(venueService, ledger, accountOnly, baseHandler),
		Likes:  likes.NewHandler(ledger, baseHandler),
		Auth:   auth.NewAuthHandlers(authService, app.Sessions, cfg.Session.SecureCookie, baseHandler),
		Admin:  admin.NewHandler(cfg.Admin.Password, baseHandler),
		Map:    mapsurface.NewHandler(venueService, cfg.Maps.DefaultCenter, baseHandler),
		SEO:    seo.NewHandler(directory, cfg.Directory.BaseURL, baseHandler),
	}

	return app, nil
}

func setupRouter(r *gin.Engine, app *App, pool *pgxpool.Pool) {
	h := app.Handlers

	r.Use(auth.SessionMiddleware(app.Sessions), middleware.ActorContext())

	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "caches": app.Caches.GetAllMetrics()})
	})
	r.GET("/sitemap.xml", h.SEO.Sitemap)
	r.GET("/robots.txt", h.SEO.Robots)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", h.Auth.SignUp)
		authGroup.POST("/signin", h.Auth.SignIn)
		authGroup.POST("/signout", h.Auth.SignOut)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.GET("/session", h.Auth.Session)
	}

	api := r.Group("/api")
	{
		api.GET("/venues", h.Venues.List)
		api.POST("/venues", h.Venues.Create)
		api.GET("/venues/:id", h.Venues.Get)
		api.PUT("/venues/:id", h.Venues.Update)
		api.DELETE("/venues/:id", h.Venues.Delete)
		api.GET("/venues/:id/like", h.Likes.State)
		api.POST("/venues/:id/like", h.Likes.Toggle)
		api.POST("/duplicates/check", h.Venues.CheckDuplicate)

		api.GET("/map", h.Map.Markers)
		api.POST("/map/events", h.Map.Events)

		adminGroup := api.Group("/admin")
		adminGroup.POST("/verify", h.Admin.Verify)
		adminGroup.POST("/logout", h.Admin.Logout)
		adminGroup.POST("/cache/clear", middleware.RequireAdmin(), h.Admin.ClearCaches(app.Caches))
	}
}
