package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dveridom/backend/internal/cache"
	"github.com/dveridom/backend/internal/catalog"
	"github.com/dveridom/backend/internal/config"
	"github.com/dveridom/backend/internal/db"
	"github.com/dveridom/backend/internal/scraper"
)

// Разовый полный обход каталога без запуска HTTP-сервера. Ctrl+C
// останавливает обход, сохранённые к этому моменту двери остаются в базе.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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

	pageParser, err := scraper.NewPageParser(cfg.Crawler.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid crawler base URL")
	}

	crawler := scraper.NewCrawler(scraper.NewFetcher(15*time.Second), pageParser, cfg.Crawler.RequestDelay)
	orchestrator := scraper.NewOrchestrator(catalog.NewRepository(postgres.Pool), cacheClient, crawler, scraper.OrchestratorConfig{
		BatchSize:     cfg.Crawler.BatchSize,
		CategoryDelay: cfg.Crawler.RequestDelay,
	})

	stats, err := orchestrator.Crawl(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Crawl failed")
	}

	log.Info().
		Int("parsed", stats.Parsed).
		Int("saved", stats.Saved).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("Crawl finished")
}
