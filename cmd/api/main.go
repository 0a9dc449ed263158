package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"github.com/octobees/mapleads/internal/auth"
	"github.com/octobees/mapleads/internal/cache"
	"github.com/octobees/mapleads/internal/config"
	"github.com/octobees/mapleads/internal/database"
	"github.com/octobees/mapleads/internal/geoapify"
	"github.com/octobees/mapleads/internal/handler"
	"github.com/octobees/mapleads/internal/logger"
	middlewarepkg "github.com/octobees/mapleads/internal/middleware"
	"github.com/octobees/mapleads/internal/nominatim"
	"github.com/octobees/mapleads/internal/overpass"
	"github.com/octobees/mapleads/internal/repository"
	"github.com/octobees/mapleads/internal/router"
	"github.com/octobees/mapleads/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl := logger.New(cfg.LogLevel)
	defer func() { _ = zl.Sync() }()

	places := geoapify.NewClient(geoapify.Options{
		APIKey:            cfg.Geoapify.APIKey,
		BaseURL:           cfg.Geoapify.BaseURL,
		RequestsPerSecond: cfg.Geoapify.RequestsPerSecond,
		Timeout:           cfg.UpstreamTimeout,
		Logger:            zl,
	})
	geocoder := nominatim.NewClient(nominatim.Options{
		BaseURL:   cfg.NominatimBaseURL,
		UserAgent: cfg.NominatimAgent,
		Timeout:   cfg.UpstreamTimeout,
		Logger:    zl,
	})
	overpassClient := overpass.NewClient(cfg.OverpassEndpoints, nil, cfg.UpstreamTimeout, zl)

	if !places.Configured() {
		zl.Warn("GEOAPIFY_API_KEY is not set; live searches will fail")
	}

	var (
		store           cache.Store
		leadsHandler    *handler.LeadsHandler
		searchesService *service.SearchesService
	)

	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := database.Connect(ctx, cfg.DatabaseURL, zl)
		if err != nil {
			cancel()
			zl.Fatal("failed to connect database", zap.Error(err))
		}
		if err := database.Migrate(ctx, pool); err != nil {
			cancel()
			zl.Fatal("failed to apply schema", zap.Error(err))
		}
		cancel()
		defer pool.Close()

		store = repository.NewPGXSearchCacheRepository(pool)
		leadsService := service.NewLeadsService(repository.NewPGXLeadsRepository(pool))
		leadsHandler = handler.NewLeadsHandler(leadsService)
		searchesService = service.NewSearchesService(
			repository.NewPGXSearchHistoryRepository(pool),
			repository.NewPGXSavedSearchesRepository(pool),
		)
	} else {
		zl.Warn("DATABASE_URL is not set; using in-memory search cache and disabling saved leads and search history")
		store = cache.NewMemoryStore(10 * time.Minute)
	}

	searchService := service.NewSearchService(places, geocoder, store, cfg.Search, zl)
	var searchesHandler *handler.SearchesHandler
	if searchesService != nil {
		searchService.WithHistory(searchesService)
		searchesHandler = handler.NewSearchesHandler(searchesService, searchService)
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, 0)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(zl))
	e.Use(middlewarepkg.Metrics())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())

	router.Register(e, cfg, jwtManager, router.Handlers{
		Search:   handler.NewSearchHandler(searchService),
		Proxy:    handler.NewProxyHandler(places, geocoder, overpassClient),
		Leads:    leadsHandler,
		Searches: searchesHandler,
	})

	serverErr := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("port", cfg.Port))
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		zl.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}
