package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusNew: {
		StatusProcessing: true,
		StatusCancelled:  true,
	},
	StatusProcessing: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

var (
	ErrEmptyOrder              = errors.New("order must contain at least one item")
	ErrInvalidStatus           = errors.New("unknown order status")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

type Service interface {
	Create(ctx context.Context, order *Order) (*Order, error)
	FindAll(ctx context.Context) ([]Order, error)
	FindOne(ctx context.Context, id uuid.UUID) (*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status OrderStatus) (*Order, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, order *Order) (*Order, error) {
	if len(order.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if order.Name == "" || order.Phone == "" || order.Address == "" {
		return nil, errors.New("service: order name, phone and address are required")
	}
	if order.Total < 0 {
		return nil, errors.New("service: order total cannot be negative")
	}

	order.ID = uuid.Nil
	order.Status = StatusNew

	if err := s.repo.Create(ctx, order); err != nil {
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Stringer("order_id", order.ID).Str("phone", order.Phone).Msg("service: order created")
	return order, nil
}

func (s *service) FindAll(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *service) FindOne(ctx context.Context, id uuid.UUID) (*Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to get order by id: %w", err)
	}
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus OrderStatus) (*Order, error) {
	if !newStatus.Valid() {
		return nil, ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if current.Status == newStatus {
		return current, nil
	}

	if !allowedTransitions[current.Status][newStatus] {
		log.Warn().
			Stringer("order_id", id).
			Stringer("current_status", current.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return nil, ErrInvalidStatusTransition
	}

	if err := s.repo.UpdateStatus(ctx, id, newStatus); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	current.Status = newStatus
	log.Info().Stringer("order_id", id).Stringer("new_status", newStatus).Msg("service: order status updated")
	return current, nil
}
