package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

type Service interface {
	FindAll(ctx context.Context) ([]Category, error)
	FindOne(ctx context.Context, id int) (*Category, error)
	Create(ctx context.Context, category *Category) (*Category, error)
	Update(ctx context.Context, category *Category) (*Category, error)
	Remove(ctx context.Context, id int) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// FindAll возвращает только контролируемый набор категорий витрины.
func (s *service) FindAll(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListByNames(ctx, AllowedNames)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list categories")
		return nil, fmt.Errorf("service: failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *service) FindOne(ctx context.Context, id int) (*Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("service: failed to get category %d: %w", id, err)
	}
	return category, nil
}

func (s *service) Create(ctx context.Context, category *Category) (*Category, error) {
	if category.Name == "" {
		return nil, errors.New("service: category name is required")
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("service: failed to create category: %w", err)
	}
	return category, nil
}

func (s *service) Update(ctx context.Context, category *Category) (*Category, error) {
	if err := s.repo.Update(ctx, category); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("service: failed to update category %d: %w", category.ID, err)
	}
	return s.repo.GetByID(ctx, category.ID)
}

func (s *service) Remove(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("service: failed to delete category %d: %w", id, err)
	}
	return nil
}
