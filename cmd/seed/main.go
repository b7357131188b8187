package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dveridom/backend/internal/auth"
	"github.com/dveridom/backend/internal/category"
	"github.com/dveridom/backend/internal/config"
	"github.com/dveridom/backend/internal/db"
)

// Наполняет базу стартовыми данными: три витринные категории и
// администратор из ADMIN_EMAIL / ADMIN_PASSWORD. Повторный запуск
// безопасен, существующие записи не трогаются.
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

	if err := seedCategories(ctx, category.NewRepository(postgres.Pool)); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed categories")
	}

	if err := seedAdmin(ctx, auth.NewRepository(postgres.Pool)); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed admin user")
	}

	log.Info().Msg("Seed finished")
}

func seedCategories(ctx context.Context, repo category.Repository) error {
	existing, err := repo.ListAll(ctx)
	if err != nil {
		return err
	}

	present := make(map[string]bool, len(existing))
	for _, c := range existing {
		present[c.Name] = true
	}

	for _, name := range category.AllowedNames {
		if present[name] {
			log.Info().Str("name", name).Msg("Category already exists, skipped")
			continue
		}
		if err := repo.Create(ctx, &category.Category{Name: name}); err != nil {
			return err
		}
		log.Info().Str("name", name).Msg("Category created")
	}
	return nil
}

func seedAdmin(ctx context.Context, repo auth.Repository) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Warn().Msg("ADMIN_EMAIL or ADMIN_PASSWORD is not set, admin user skipped")
		return nil
	}

	jwtManager := auth.NewJWTManager("seed-unused", time.Hour)
	svc := auth.NewService(repo, jwtManager)

	if _, err := svc.Register(ctx, email, password, true); err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			log.Info().Str("email", email).Msg("Admin user already exists, skipped")
			return nil
		}
		return err
	}

	log.Info().Str("email", email).Msg("Admin user created")
	return nil
}
