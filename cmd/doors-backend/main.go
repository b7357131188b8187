package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dveridom/backend/internal/auth"
	"github.com/dveridom/backend/internal/cache"
	"github.com/dveridom/backend/internal/catalog"
	"github.com/dveridom/backend/internal/category"
	"github.com/dveridom/backend/internal/config"
	"github.com/dveridom/backend/internal/db"
	handlerHttp "github.com/dveridom/backend/internal/handler/http"
	"github.com/dveridom/backend/internal/order"
	"github.com/dveridom/backend/internal/request"
	"github.com/dveridom/backend/internal/scraper"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	log.Info().Msg("Starting doors-backend...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx := context.Background()

	postgres, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgres.Close()

	cacheClient, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer cacheClient.Close()

	doorRepo := catalog.NewRepository(postgres.Pool)
	catalogService := catalog.NewService(doorRepo, cacheClient)
	categoryService := category.NewService(category.NewRepository(postgres.Pool))
	orderService := order.NewService(order.NewRepository(postgres.Pool))
	requestService := request.NewService(request.NewRepository(postgres.Pool))

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TTL)
	authService := auth.NewService(auth.NewRepository(postgres.Pool), jwtManager)

	fetcher := scraper.NewFetcher(15 * time.Second)
	pageParser, err := scraper.NewPageParser(cfg.Crawler.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid crawler base URL")
	}
	crawler := scraper.NewCrawler(fetcher, pageParser, cfg.Crawler.RequestDelay)
	orchestrator := scraper.NewOrchestrator(doorRepo, cacheClient, crawler, scraper.OrchestratorConfig{
		BatchSize:       cfg.Crawler.BatchSize,
		RecheckInterval: cfg.Crawler.RecheckInterval,
		CategoryDelay:   cfg.Crawler.RequestDelay,
	})

	orchestrator.Start(ctx)

	router, err := handlerHttp.NewRouter(handlerHttp.RouterDeps{
		CatalogService:  catalogService,
		CategoryService: categoryService,
		OrderService:    orderService,
		RequestService:  requestService,
		AuthService:     authService,
		JWTManager:      jwtManager,
		Orchestrator:    orchestrator,
		Cache:           cacheClient,
		ProxyBaseURL:    cfg.Crawler.BaseURL,
		RateLimitMax:    cfg.RateLimit.Max,
		RateLimitWindow: cfg.RateLimit.Window,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build router")
	}

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server...")

	orchestrator.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("doors-backend stopped gracefully")
}
