package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dveridom/backend/internal/cache"
	"github.com/dveridom/backend/internal/catalog"
	"github.com/dveridom/backend/internal/config"
	"github.com/dveridom/backend/internal/db"
)

// Пересобирает зеркало Redis из базы: старые записи door:* и кэш списков
// удаляются, затем каждая дверь пишется заново. База остаётся источником
// истины, зеркало после запуска полностью ей соответствует.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

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

	if !cacheClient.Enabled() {
		log.Fatal().Msg("Redis is disabled, nothing to sync")
	}

	for _, pattern := range []string{"door:*", "doors:list:*"} {
		keys, err := cacheClient.Keys(ctx, pattern)
		if err != nil {
			log.Fatal().Err(err).Str("pattern", pattern).Msg("Failed to list keys")
		}
		if err := cacheClient.Del(ctx, keys...); err != nil {
			log.Fatal().Err(err).Str("pattern", pattern).Msg("Failed to delete keys")
		}
		log.Info().Str("pattern", pattern).Int("deleted", len(keys)).Msg("Old keys removed")
	}

	doors, err := catalog.NewRepository(postgres.Pool).ListAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load doors from database")
	}

	synced := 0
	for _, door := range doors {
		payload, err := json.Marshal(door.MirrorEntry())
		if err != nil {
			log.Fatal().Err(err).Str("external_id", door.ExternalID).Msg("Failed to marshal mirror entry")
		}
		if err := cacheClient.Set(ctx, "door:"+door.ExternalID, string(payload)); err != nil {
			log.Fatal().Err(err).Str("external_id", door.ExternalID).Msg("Failed to write mirror entry")
		}
		synced++
	}

	log.Info().Int("synced", synced).Msg("Mirror rebuilt from database")
}
