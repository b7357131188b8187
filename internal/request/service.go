package request

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	CreateMeasurement(ctx context.Context, req *MeasurementRequest) (*MeasurementRequest, error)
	CreateCallback(ctx context.Context, req *CallbackRequest) (*CallbackRequest, error)
	ListMeasurements(ctx context.Context) ([]MeasurementRequest, error)
	ListCallbacks(ctx context.Context) ([]CallbackRequest, error)
	UpdateMeasurementStatus(ctx context.Context, id uuid.UUID, status RequestStatus) error
	UpdateCallbackStatus(ctx context.Context, id uuid.UUID, status RequestStatus) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateMeasurement(ctx context.Context, req *MeasurementRequest) (*MeasurementRequest, error) {
	if req.Name == "" || req.Phone == "" {
		return nil, errors.New("service: request name and phone are required")
	}
	if err := s.repo.CreateMeasurement(ctx, req); err != nil {
		log.Error().Err(err).Msg("service: failed to create measurement request")
		return nil, fmt.Errorf("service: failed to create measurement request: %w", err)
	}
	log.Info().Stringer("request_id", req.ID).Msg("service: measurement request created")
	return req, nil
}

func (s *service) CreateCallback(ctx context.Context, req *CallbackRequest) (*CallbackRequest, error) {
	if req.Name == "" || req.Phone == "" {
		return nil, errors.New("service: request name and phone are required")
	}
	if err := s.repo.CreateCallback(ctx, req); err != nil {
		log.Error().Err(err).Msg("service: failed to create callback request")
		return nil, fmt.Errorf("service: failed to create callback request: %w", err)
	}
	log.Info().Stringer("request_id", req.ID).Msg("service: callback request created")
	return req, nil
}

func (s *service) ListMeasurements(ctx context.Context) ([]MeasurementRequest, error) {
	requests, err := s.repo.ListMeasurements(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list measurement requests: %w", err)
	}
	return requests, nil
}

func (s *service) ListCallbacks(ctx context.Context) ([]CallbackRequest, error) {
	requests, err := s.repo.ListCallbacks(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list callback requests: %w", err)
	}
	return requests, nil
}

func (s *service) UpdateMeasurementStatus(ctx context.Context, id uuid.UUID, status RequestStatus) error {
	if !status.Valid() {
		return fmt.Errorf("service: invalid request status %q", status)
	}
	if err := s.repo.UpdateMeasurementStatus(ctx, id, status); err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return ErrRequestNotFound
		}
		return fmt.Errorf("service: failed to update measurement request status: %w", err)
	}
	return nil
}

func (s *service) UpdateCallbackStatus(ctx context.Context, id uuid.UUID, status RequestStatus) error {
	if !status.Valid() {
		return fmt.Errorf("service: invalid request status %q", status)
	}
	if err := s.repo.UpdateCallbackStatus(ctx, id, status); err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return ErrRequestNotFound
		}
		return fmt.Errorf("service: failed to update callback request status: %w", err)
	}
	return nil
}
