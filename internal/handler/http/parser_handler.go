package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/dveridom/backend/internal/scraper"
)

// CrawlTrigger запускает полный обход каталога.
type CrawlTrigger interface {
	Crawl(ctx context.Context) (*scraper.CrawlStats, error)
	Running() bool
}

type ParserHandler struct {
	orchestrator CrawlTrigger
}

func NewParserHandler(orchestrator CrawlTrigger) *ParserHandler {
	return &ParserHandler{orchestrator: orchestrator}
}

func (h *ParserHandler) RegisterRoutes(router chi.Router, authMw func(http.Handler) http.Handler) {
	router.Group(func(r chi.Router) {
		r.Use(authMw)
		r.Post("/parsers/farniture/parse", h.handleTriggerParse)
		r.Get("/parsers/farniture/status", h.handleParseStatus)
	})
}

// handleTriggerParse запускает обход синхронно: админский вызов ждёт
// статистику прохода. Повторный запуск во время обхода отклоняется.
func (h *ParserHandler) handleTriggerParse(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orchestrator.Crawl(r.Context())
	if err != nil {
		if errors.Is(err, scraper.ErrCrawlInProgress) {
			respondWithError(w, http.StatusConflict, "Crawl is already in progress")
			return
		}
		log.Error().Err(err).Msg("Manual crawl failed")
		respondWithError(w, http.StatusInternalServerError, "Crawl failed")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

func (h *ParserHandler) handleParseStatus(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]bool{"running": h.orchestrator.Running()})
}
