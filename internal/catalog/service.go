package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dveridom/backend/internal/cache"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

const (
	mirrorKeyPrefix  = "door:"
	listCachePattern = "doors:list:*"
)

type ListResult struct {
	Doors      []Door `json:"doors"`
	Total      int    `json:"total"`
	TotalPages int    `json:"totalPages"`
}

type Service interface {
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Door, error)
	Similar(ctx context.Context, id uuid.UUID, limit int) ([]Door, error)
	Create(ctx context.Context, door *Door) (*Door, error)
	UpdatePrices(ctx context.Context, category string, increasePercent float64) (int, error)
	UpdateTitles(ctx context.Context, category, searchText, replaceText string) (int, error)
}

type service struct {
	repo  Repository
	cache *cache.Client
}

func NewService(repo Repository, cacheClient *cache.Client) Service {
	return &service{repo: repo, cache: cacheClient}
}

func (s *service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	cacheKey := listCacheKey(filter)

	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		var result ListResult
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return &result, nil
		}
		log.Warn().Str("key", cacheKey).Msg("service: failed to decode cached door list, querying database")
	} else if !errors.Is(err, cache.ErrNotFound) {
		log.Warn().Err(err).Msg("service: door list cache read failed")
	}

	doors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list doors: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	result := &ListResult{
		Doors:      doors,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}

	if data, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, cacheKey, string(data)); err != nil {
			log.Warn().Err(err).Msg("service: failed to cache door list")
		}
	}

	return result, nil
}

func listCacheKey(filter ListFilter) string {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	raw, _ := json.Marshal(filter)
	return fmt.Sprintf("doors:list:%d:%d:%s", page, limit, raw)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Door, error) {
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		if errors.Is(err, ErrDoorNotFound) {
			return nil, ErrDoorNotFound
		}
		log.Warn().Err(err).Stringer("door_id", id).Msg("service: failed to increment door views")
	}

	door, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrDoorNotFound) {
			return nil, ErrDoorNotFound
		}
		return nil, fmt.Errorf("service: failed to get door by id: %w", err)
	}
	return door, nil
}

func (s *service) Similar(ctx context.Context, id uuid.UUID, limit int) ([]Door, error) {
	doors, err := s.repo.Similar(ctx, id, limit)
	if err != nil {
		if errors.Is(err, ErrDoorNotFound) {
			return nil, ErrDoorNotFound
		}
		return nil, fmt.Errorf("service: failed to find similar doors: %w", err)
	}
	return doors, nil
}

func (s *service) Create(ctx context.Context, door *Door) (*Door, error) {
	if door.ExternalID == "" {
		extID, err := uuid.NewV4()
		if err != nil {
			return nil, fmt.Errorf("service: failed to generate external id: %w", err)
		}
		door.ExternalID = extID.String()
	}

	if err := door.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, door); err != nil {
		if errors.Is(err, ErrDuplicateExternalID) {
			return nil, ErrDuplicateExternalID
		}
		return nil, fmt.Errorf("service: failed to create door: %w", err)
	}

	s.mirrorDoor(ctx, door)
	s.invalidateListCache(ctx)

	log.Info().Str("external_id", door.ExternalID).Str("title", door.Title).Msg("service: door created")
	return door, nil
}

// UpdatePrices повышает цены на increasePercent процентов. Округление
// выполняется на каждом шаге, поэтому два последовательных повышения не
// эквивалентны одному суммарному.
func (s *service) UpdatePrices(ctx context.Context, category string, increasePercent float64) (int, error) {
	var doors []Door
	var err error
	if category != "" {
		doors, err = s.repo.ListByCategory(ctx, category)
	} else {
		doors, err = s.repo.ListAll(ctx)
	}
	if err != nil {
		return 0, fmt.Errorf("service: failed to load doors for price update: %w", err)
	}

	factor := 1 + increasePercent/100
	updated := 0
	for i := range doors {
		door := &doors[i]
		door.Price = int(math.Round(float64(door.Price) * factor))
		if door.OldPrice != nil {
			oldPrice := int(math.Round(float64(*door.OldPrice) * factor))
			door.OldPrice = &oldPrice
		}

		if err := s.repo.Update(ctx, door); err != nil {
			log.Error().Err(err).Str("external_id", door.ExternalID).Msg("service: failed to update door price")
			continue
		}
		s.mirrorDoor(ctx, door)
		updated++
	}

	s.invalidateListCache(ctx)
	log.Info().Int("updated", updated).Float64("increase_percent", increasePercent).Msg("service: door prices updated")
	return updated, nil
}

// UpdateTitles заменяет searchText в названиях дверей категории на
// replaceText с коротким uuid-суффиксом, чтобы названия остались уникальными.
func (s *service) UpdateTitles(ctx context.Context, category, searchText, replaceText string) (int, error) {
	doors, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return 0, fmt.Errorf("service: failed to load doors for title update: %w", err)
	}

	updated := 0
	for i := range doors {
		door := &doors[i]
		if !strings.Contains(door.Title, searchText) {
			continue
		}

		suffix, err := uuid.NewV4()
		if err != nil {
			return updated, fmt.Errorf("service: failed to generate title suffix: %w", err)
		}
		replacement := fmt.Sprintf("%s %s", replaceText, suffix.String()[:7])
		door.Title = strings.Replace(door.Title, searchText, replacement, 1)

		if err := s.repo.Update(ctx, door); err != nil {
			log.Error().Err(err).Str("external_id", door.ExternalID).Msg("service: failed to update door title")
			continue
		}
		s.mirrorDoor(ctx, door)
		updated++
	}

	s.invalidateListCache(ctx)
	return updated, nil
}

// mirrorDoor перезаписывает запись зеркала из актуального состояния в базе.
// База — источник истины, ошибки зеркала только логируются.
func (s *service) mirrorDoor(ctx context.Context, door *Door) {
	data, err := json.Marshal(door.MirrorEntry())
	if err != nil {
		log.Error().Err(err).Str("external_id", door.ExternalID).Msg("service: failed to marshal mirror entry")
		return
	}
	if err := s.cache.Set(ctx, mirrorKeyPrefix+door.ExternalID, string(data)); err != nil {
		log.Warn().Err(err).Str("external_id", door.ExternalID).Msg("service: failed to mirror door to cache")
	}
}

func (s *service) invalidateListCache(ctx context.Context) {
	keys, err := s.cache.Keys(ctx, listCachePattern)
	if err != nil {
		log.Warn().Err(err).Msg("service: failed to list door cache keys for invalidation")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		log.Warn().Err(err).Msg("service: failed to invalidate door list cache")
	}
}
