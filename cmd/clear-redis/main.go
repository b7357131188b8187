package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dveridom/backend/internal/cache"
	"github.com/dveridom/backend/internal/config"
)

// Удаляет из Redis зеркало каталога и кэш списков. Остальные ключи
// инстанса не трогаются.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx := context.Background()

	cacheClient, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer cacheClient.Close()

	if !cacheClient.Enabled() {
		log.Fatal().Msg("Redis is disabled, nothing to clear")
	}

	total := 0
	for _, pattern := range []string{"door:*", "doors:list:*"} {
		keys, err := cacheClient.Keys(ctx, pattern)
		if err != nil {
			log.Fatal().Err(err).Str("pattern", pattern).Msg("Failed to list keys")
		}
		if err := cacheClient.Del(ctx, keys...); err != nil {
			log.Fatal().Err(err).Str("pattern", pattern).Msg("Failed to delete keys")
		}
		log.Info().Str("pattern", pattern).Int("deleted", len(keys)).Msg("Keys removed")
		total += len(keys)
	}

	log.Info().Int("total", total).Msg("Redis cleared")
}
