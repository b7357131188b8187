package request_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dveridom/backend/internal/request"
)

type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) CreateMeasurement(ctx context.Context, req *request.MeasurementRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockRequestRepository) CreateCallback(ctx context.Context, req *request.CallbackRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockRequestRepository) ListMeasurements(ctx context.Context) ([]request.MeasurementRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]request.MeasurementRequest), args.Error(1)
}

func (m *MockRequestRepository) ListCallbacks(ctx context.Context) ([]request.CallbackRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]request.CallbackRequest), args.Error(1)
}

func (m *MockRequestRepository) UpdateMeasurementStatus(ctx context.Context, id uuid.UUID, status request.RequestStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockRequestRepository) UpdateCallbackStatus(ctx context.Context, id uuid.UUID, status request.RequestStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func TestRequestService_CreateMeasurement_Success(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	svc := request.NewService(mockRepo)

	mockRepo.On("CreateMeasurement", mock.Anything, mock.Anything).Return(nil).Once()

	created, err := svc.CreateMeasurement(context.Background(), &request.MeasurementRequest{
		Name:    "Иван",
		Phone:   "+7 900 000-00-00",
		Address: "Москва",
	})
	require.NoError(t, err)
	assert.Equal(t, "Иван", created.Name)
	mockRepo.AssertExpectations(t)
}

func TestRequestService_CreateCallback_MissingPhone(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	svc := request.NewService(mockRepo)

	_, err := svc.CreateCallback(context.Background(), &request.CallbackRequest{Name: "Иван"})
	require.Error(t, err)
	mockRepo.AssertNotCalled(t, "CreateCallback")
}

func TestRequestService_UpdateStatus_InvalidStatus(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	svc := request.NewService(mockRepo)

	err := svc.UpdateMeasurementStatus(context.Background(), uuid.Must(uuid.NewV4()), "archived")
	require.Error(t, err)
	mockRepo.AssertNotCalled(t, "UpdateMeasurementStatus")
}

func TestRequestService_UpdateStatus_NotFound(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	svc := request.NewService(mockRepo)

	id := uuid.Must(uuid.NewV4())
	mockRepo.On("UpdateCallbackStatus", mock.Anything, id, request.StatusCompleted).
		Return(request.ErrRequestNotFound).Once()

	err := svc.UpdateCallbackStatus(context.Background(), id, request.StatusCompleted)
	assert.ErrorIs(t, err, request.ErrRequestNotFound)
}
