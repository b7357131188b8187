package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dveridom/backend/internal/catalog"
	doorHandler "github.com/dveridom/backend/internal/handler/http"
)

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) List(ctx context.Context, filter catalog.ListFilter) (*catalog.ListResult, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ListResult), args.Error(1)
}

func (m *MockCatalogService) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Door, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Door), args.Error(1)
}

func (m *MockCatalogService) Similar(ctx context.Context, id uuid.UUID, limit int) ([]catalog.Door, error) {
	args := m.Called(ctx, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Door), args.Error(1)
}

func (m *MockCatalogService) Create(ctx context.Context, door *catalog.Door) (*catalog.Door, error) {
	args := m.Called(ctx, door)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Door), args.Error(1)
}

func (m *MockCatalogService) UpdatePrices(ctx context.Context, category string, increasePercent float64) (int, error) {
	args := m.Called(ctx, category, increasePercent)
	return args.Int(0), args.Error(1)
}

func (m *MockCatalogService) UpdateTitles(ctx context.Context, category, searchText, replaceText string) (int, error) {
	args := m.Called(ctx, category, searchText, replaceText)
	return args.Int(0), args.Error(1)
}

func noAuth(next http.Handler) http.Handler {
	return next
}

func newDoorRouter(service catalog.Service) chi.Router {
	router := chi.NewRouter()
	doorHandler.NewDoorHandler(service).RegisterRoutes(router, noAuth)
	return router
}

func TestDoorHandler_handleListDoors_FilterParsing(t *testing.T) {
	mockService := new(MockCatalogService)

	priceMin, priceMax := 10000, 40000
	inStock := true
	expectedFilter := catalog.ListFilter{
		Category: "reks",
		PriceMin: &priceMin,
		PriceMax: &priceMax,
		InStock:  &inStock,
		Search:   "рекс",
		Sort:     catalog.SortPriceAsc,
		Page:     2,
		Limit:    20,
	}

	result := &catalog.ListResult{Total: 1, TotalPages: 1}
	mockService.On("List", mock.Anything, mock.MatchedBy(func(f catalog.ListFilter) bool {
		return cmp.Diff(expectedFilter, f) == ""
	})).Return(result, nil).Once()

	req := httptest.NewRequest(http.MethodGet,
		"/doors?category=reks&priceMin=10000&priceMax=40000&inStock=true&search=рекс&sort=price_asc&page=2&limit=20", nil)
	rr := httptest.NewRecorder()
	newDoorRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	mockService.AssertExpectations(t)
}

func TestDoorHandler_handleListDoors_InvalidPage(t *testing.T) {
	mockService := new(MockCatalogService)

	req := httptest.NewRequest(http.MethodGet, "/doors?page=abc", nil)
	rr := httptest.NewRecorder()
	newDoorRouter(mockService).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "List")
}

func TestDoorHandler_handleGetDoor_NotFound(t *testing.T) {
	mockService := new(MockCatalogService)
	doorID := uuid.Must(uuid.NewV4())

	mockService.On("GetByID", mock.Anything, doorID).Return(nil, catalog.ErrDoorNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/doors/"+doorID.String(), nil)
	rr := httptest.NewRecorder()
	newDoorRouter(mockService).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	mockService.AssertExpectations(t)
}

func TestDoorHandler_handleGetDoor_InvalidID(t *testing.T) {
	mockService := new(MockCatalogService)

	req := httptest.NewRequest(http.MethodGet, "/doors/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	newDoorRouter(mockService).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "GetByID")
}

func TestDoorHandler_handleSimilarDoors_DefaultLimit(t *testing.T) {
	mockService := new(MockCatalogService)
	doorID := uuid.Must(uuid.NewV4())

	mockService.On("Similar", mock.Anything, doorID, 4).Return([]catalog.Door{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/doors/similar/"+doorID.String(), nil)
	rr := httptest.NewRecorder()
	newDoorRouter(mockService).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	mockService.AssertExpectations(t)
}

func TestDoorHandler_handleCreateDoor_Success(t *testing.T) {
	mockService := new(MockCatalogService)

	requestDTO := doorHandler.CreateDoorRequest{
		Title:     "Дверь Рекс 11",
		Price:     25990,
		Category:  "reks",
		ImageURLs: []string{"https://www.farniture.ru/upload/rex11.jpg"},
		InStock:   true,
		URL:       "https://www.farniture.ru/catalog/vkhodnye/reks/dver-reks-11/",
	}

	created := catalog.Door{
		ID:       uuid.Must(uuid.NewV4()),
		Title:    requestDTO.Title,
		Price:    requestDTO.Price,
		Category: requestDTO.Category,
	}

	mockService.On("Create", mock.Anything, mock.MatchedBy(func(d *catalog.Door) bool {
		return d.Title == requestDTO.Title && d.Price == requestDTO.Price
	})).Return(&created, nil).Once()

	jsonBody, err := json.Marshal(requestDTO)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/doors", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	newDoorRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	mockService.AssertExpectations(t)
}

func TestDoorHandler_handleCreateDoor_ValidationFailed(t *testing.T) {
	mockService := new(MockCatalogService)

	jsonBody := []byte(`{"title":"","price":0,"category":"","image_urls":[],"url":"not-a-url"}`)
	req := httptest.NewRequest(http.MethodPost, "/doors", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	newDoorRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var response doorHandler.ValidationErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "Validation failed", response.Error)
	assert.Contains(t, response.Details, "Title")
	mockService.AssertNotCalled(t, "Create")
}

func TestDoorHandler_handleUpdatePrices(t *testing.T) {
	mockService := new(MockCatalogService)

	mockService.On("UpdatePrices", mock.Anything, "reks", 5.0).Return(12, nil).Once()

	jsonBody := []byte(`{"category":"reks","increase_percent":5}`)
	req := httptest.NewRequest(http.MethodPost, "/doors/update-prices", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	newDoorRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var response doorHandler.UpdatedCountResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, 12, response.Updated)
	mockService.AssertExpectations(t)
}
