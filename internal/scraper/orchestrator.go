package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dveridom/backend/internal/catalog"
)

// DefaultCategories - слаги категорий входных дверей на сайте-источнике.
var DefaultCategories = []string{
	"reks", "asd", "diva", "sudar", "ratibor", "zavodskie",
	"leks", "termo", "intekron", "labirint", "bunker",
}

const (
	mirrorKeyPrefix  = "door:"
	listCachePattern = "doors:list:*"
)

// ErrCrawlInProgress возвращается при попытке запустить обход, пока не
// закончился предыдущий.
var ErrCrawlInProgress = errors.New("scraper: crawl is already in progress")

// DoorStore - срез репозитория каталога, нужный ингестии.
type DoorStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, door *catalog.Door) error
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
}

// MirrorCache - срез кэша, нужный зеркалу каталога и кэшу списков.
type MirrorCache interface {
	Enabled() bool
	Keys(ctx context.Context, pattern string) ([]string, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
}

// CategoryCrawler обходит одну категорию источника.
type CategoryCrawler interface {
	CrawlCategory(ctx context.Context, category string) ([]*catalog.Door, error)
}

// CrawlStats - итог одного прохода ингестии.
type CrawlStats struct {
	Parsed  int `json:"parsed"`
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type OrchestratorConfig struct {
	Categories      []string
	BatchSize       int
	RecheckInterval time.Duration
	CategoryDelay   time.Duration
}

// Orchestrator решает, как наполнить каталог: если база пуста, сначала
// пробует восстановиться из зеркала Redis и только потом идёт в обход
// сайта. Postgres остаётся источником истины, зеркало производно от него.
type Orchestrator struct {
	store   DoorStore
	cache   MirrorCache
	crawler CategoryCrawler
	cfg     OrchestratorConfig

	mu       sync.Mutex
	crawling bool

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewOrchestrator(store DoorStore, cacheClient MirrorCache, crawler CategoryCrawler, cfg OrchestratorConfig) *Orchestrator {
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultCategories
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.RecheckInterval <= 0 {
		cfg.RecheckInterval = 24 * time.Hour
	}
	return &Orchestrator{
		store:   store,
		cache:   cacheClient,
		crawler: crawler,
		cfg:     cfg,
		done:    make(chan struct{}),
	}
}

// Start выполняет первичную оценку каталога и запускает периодическую
// перепроверку. Блокирует только на время первой оценки. Плановые обходы
// живут на собственном контексте оркестратора, Stop его отменяет.
func (o *Orchestrator) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	if err := o.Evaluate(runCtx); err != nil && !errors.Is(err, ErrCrawlInProgress) && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("initial catalog evaluation failed")
	}

	go func() {
		defer close(o.done)
		ticker := time.NewTicker(o.cfg.RecheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if err := o.Evaluate(runCtx); err != nil && !errors.Is(err, ErrCrawlInProgress) && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("scheduled catalog evaluation failed")
				}
			}
		}
	}()
}

// Stop отменяет контекст плановых обходов и дожидается выхода горутины
// перепроверки. Идущий обход прерывается по отменённому контексту.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		if o.cancel != nil {
			o.cancel()
		}
	})
	<-o.done
}

// Evaluate смотрит на состояние базы и зеркала и выбирает действие:
// ничего не делать, восстановить из зеркала или идти в обход.
func (o *Orchestrator) Evaluate(ctx context.Context) error {
	count, err := o.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("scraper: failed to count doors: %w", err)
	}
	if count > 0 {
		log.Info().Int("doors", count).Msg("catalog is populated, nothing to do")
		return nil
	}

	if o.cache.Enabled() {
		restored, err := o.RestoreFromCache(ctx)
		if err != nil {
			log.Error().Err(err).Msg("restore from cache failed, falling back to crawl")
		} else if restored > 0 {
			log.Info().Int("restored", restored).Msg("catalog restored from cache mirror")
			return nil
		}
	}

	_, err = o.Crawl(ctx)
	return err
}

// RestoreFromCache пересобирает каталог из зеркала door:*. Битые записи
// пропускаются, возвращается число реально сохранённых дверей.
func (o *Orchestrator) RestoreFromCache(ctx context.Context) (int, error) {
	keys, err := o.cache.Keys(ctx, mirrorKeyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scraper: failed to list mirror keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	log.Info().Int("keys", len(keys)).Msg("restoring catalog from cache mirror")

	restored, failed := 0, 0
	for _, key := range keys {
		raw, err := o.cache.Get(ctx, key)
		if err != nil {
			failed++
			continue
		}

		var entry catalog.MirrorEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Warn().Str("key", key).Msg("mirror entry is not valid json, skipped")
			failed++
			continue
		}

		door := &catalog.Door{
			ExternalID:     strings.TrimPrefix(key, mirrorKeyPrefix),
			Title:          entry.Title,
			Price:          entry.Price,
			OldPrice:       entry.OldPrice,
			Category:       entry.Category,
			URL:            entry.URL,
			InStock:        entry.InStock,
			Description:    entry.Description,
			Specifications: entry.Specifications,
			ImageURLs:      entry.ImageURLs,
		}
		if err := door.Validate(); err != nil {
			log.Warn().Str("key", key).Err(err).Msg("mirror entry failed validation, skipped")
			failed++
			continue
		}

		exists, err := o.store.ExistsByExternalID(ctx, door.ExternalID)
		if err != nil {
			return restored, fmt.Errorf("scraper: failed to check external id %s: %w", door.ExternalID, err)
		}
		if exists {
			continue
		}

		if err := o.store.Create(ctx, door); err != nil {
			if errors.Is(err, catalog.ErrDuplicateExternalID) {
				continue
			}
			log.Error().Err(err).Str("key", key).Msg("failed to save restored door")
			failed++
			continue
		}
		restored++
	}

	log.Info().Int("restored", restored).Int("failed", failed).Msg("cache restore finished")
	return restored, nil
}

// Crawl выполняет полный обход всех категорий. Одновременно может идти
// только один обход, повторный запуск получает ErrCrawlInProgress.
func (o *Orchestrator) Crawl(ctx context.Context) (*CrawlStats, error) {
	o.mu.Lock()
	if o.crawling {
		o.mu.Unlock()
		return nil, ErrCrawlInProgress
	}
	o.crawling = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.crawling = false
		o.mu.Unlock()
	}()

	stats := &CrawlStats{}
	started := time.Now()
	log.Info().Strs("categories", o.cfg.Categories).Msg("full catalog crawl started")

	for i, category := range o.cfg.Categories {
		if i > 0 && o.cfg.CategoryDelay > 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(o.cfg.CategoryDelay):
			}
		}

		doors, err := o.crawler.CrawlCategory(ctx, category)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			log.Error().Err(err).Str("category", category).Msg("category crawl failed, continuing")
			continue
		}
		stats.Parsed += len(doors)

		// Сохраняем порциями и отпускаем обработанные черновики, чтобы
		// большой обход не держал весь каталог в памяти.
		for len(doors) > 0 {
			n := o.cfg.BatchSize
			if n > len(doors) {
				n = len(doors)
			}
			o.persistBatch(ctx, doors[:n], stats)
			doors = doors[n:]
		}
	}

	// Обход меняет состав каталога, закэшированные до него списки врут.
	if stats.Saved > 0 {
		o.invalidateListCache(ctx)
	}

	log.Info().
		Int("parsed", stats.Parsed).
		Int("saved", stats.Saved).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Dur("took", time.Since(started)).
		Msg("full catalog crawl finished")
	return stats, nil
}

func (o *Orchestrator) invalidateListCache(ctx context.Context) {
	keys, err := o.cache.Keys(ctx, listCachePattern)
	if err != nil {
		log.Warn().Err(err).Msg("failed to list door cache keys for invalidation")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := o.cache.Del(ctx, keys...); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate door list cache")
	}
}

func (o *Orchestrator) persistBatch(ctx context.Context, doors []*catalog.Door, stats *CrawlStats) {
	for i, door := range doors {
		if err := o.persistDoor(ctx, door); err != nil {
			switch {
			case errors.Is(err, catalog.ErrDuplicateExternalID):
				stats.Skipped++
			default:
				log.Error().Err(err).Str("title", door.Title).Msg("failed to persist door")
				stats.Failed++
			}
		} else {
			stats.Saved++
		}
		doors[i] = nil
	}
}

func (o *Orchestrator) persistDoor(ctx context.Context, door *catalog.Door) error {
	if door.ExternalID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("scraper: failed to generate external id: %w", err)
		}
		door.ExternalID = id.String()
	}
	if err := door.Validate(); err != nil {
		return err
	}
	if err := o.store.Create(ctx, door); err != nil {
		return err
	}

	payload, err := json.Marshal(door.MirrorEntry())
	if err != nil {
		return fmt.Errorf("scraper: failed to marshal mirror entry: %w", err)
	}
	if err := o.cache.Set(ctx, mirrorKeyPrefix+door.ExternalID, string(payload)); err != nil {
		// Зеркало вторично: дверь уже в базе, ошибку кэша только логируем.
		log.Warn().Err(err).Str("external_id", door.ExternalID).Msg("failed to mirror door to cache")
	}
	return nil
}

// Running сообщает, идёт ли обход прямо сейчас.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.crawling
}
