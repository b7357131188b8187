package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dveridom/backend/internal/catalog"
)

const defaultSimilarLimit = 4

type CreateDoorRequest struct {
	Title       string   `json:"title" validate:"required"`
	Price       int      `json:"price" validate:"required,gt=0"`
	OldPrice    *int     `json:"old_price,omitempty" validate:"omitempty,gt=0"`
	Category    string   `json:"category" validate:"required"`
	ImageURLs   []string `json:"image_urls" validate:"required,min=1,dive,url"`
	InStock     bool     `json:"in_stock"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url" validate:"required,url"`
}

type UpdatePricesRequest struct {
	Category        string  `json:"category"`
	IncreasePercent float64 `json:"increase_percent" validate:"required"`
}

type UpdateTitlesRequest struct {
	Category    string `json:"category"`
	SearchText  string `json:"search_text" validate:"required"`
	ReplaceText string `json:"replace_text"`
}

type UpdatedCountResponse struct {
	Updated int `json:"updated"`
}

type DoorHandler struct {
	service  catalog.Service
	validate *validator.Validate
}

func NewDoorHandler(service catalog.Service) *DoorHandler {
	return &DoorHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *DoorHandler) RegisterRoutes(router chi.Router, authMw func(http.Handler) http.Handler) {
	router.Get("/doors", h.handleListDoors)
	router.Get("/doors/similar/{id}", h.handleSimilarDoors)
	router.Get("/doors/{id}", h.handleGetDoor)

	router.Group(func(r chi.Router) {
		r.Use(authMw)
		r.Post("/doors", h.handleCreateDoor)
		r.Post("/doors/update-prices", h.handleUpdatePrices)
		r.Post("/doors/update-titles", h.handleUpdateTitles)
	})
}

func (h *DoorHandler) handleListDoors(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list doors via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list doors")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *DoorHandler) handleGetDoor(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	doorID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("door_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	door, err := h.service.GetByID(r.Context(), doorID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get door via service")

		statusCode := mapErrorToStatusCode(err)
		clientMessage := "Failed to get door"
		if errors.Is(err, catalog.ErrDoorNotFound) {
			clientMessage = "Door not found"
		}
		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, door)
}

func (h *DoorHandler) handleSimilarDoors(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	doorID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("door_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	limit := defaultSimilarLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = n
	}

	doors, err := h.service.Similar(r.Context(), doorID, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get similar doors via service")

		statusCode := mapErrorToStatusCode(err)
		clientMessage := "Failed to get similar doors"
		if errors.Is(err, catalog.ErrDoorNotFound) {
			clientMessage = "Door not found"
		}
		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, doors)
}

func (h *DoorHandler) handleCreateDoor(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateDoorRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationError(w, err)
		return
	}

	door := catalog.Door{
		Title:       requestPayload.Title,
		Price:       requestPayload.Price,
		OldPrice:    requestPayload.OldPrice,
		Category:    requestPayload.Category,
		ImageURLs:   requestPayload.ImageURLs,
		InStock:     requestPayload.InStock,
		Description: requestPayload.Description,
		URL:         requestPayload.URL,
	}

	created, err := h.service.Create(r.Context(), &door)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create door via service")

		statusCode := mapErrorToStatusCode(err)
		clientMessage := "Failed to create door"
		if errors.Is(err, catalog.ErrDuplicateExternalID) {
			clientMessage = "Door with this external id already exists"
		}
		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *DoorHandler) handleUpdatePrices(w http.ResponseWriter, r *http.Request) {
	var requestPayload UpdatePricesRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationError(w, err)
		return
	}

	updated, err := h.service.UpdatePrices(r.Context(), requestPayload.Category, requestPayload.IncreasePercent)
	if err != nil {
		log.Error().Err(err).Msg("Failed to update prices via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to update prices")
		return
	}

	respondWithJSON(w, http.StatusOK, UpdatedCountResponse{Updated: updated})
}

func (h *DoorHandler) handleUpdateTitles(w http.ResponseWriter, r *http.Request) {
	var requestPayload UpdateTitlesRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationError(w, err)
		return
	}

	updated, err := h.service.UpdateTitles(r.Context(), requestPayload.Category, requestPayload.SearchText, requestPayload.ReplaceText)
	if err != nil {
		log.Error().Err(err).Msg("Failed to update titles via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to update titles")
		return
	}

	respondWithJSON(w, http.StatusOK, UpdatedCountResponse{Updated: updated})
}

// parseListFilter собирает фильтр списка из query-параметров. Неизвестные
// значения сортировки игнорируются, невалидные числа считаются ошибкой
// клиента.
func parseListFilter(r *http.Request) (catalog.ListFilter, error) {
	q := r.URL.Query()
	filter := catalog.ListFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}

	switch q.Get("sort") {
	case catalog.SortPriceAsc:
		filter.Sort = catalog.SortPriceAsc
	case catalog.SortPriceDesc:
		filter.Sort = catalog.SortPriceDesc
	default:
		filter.Sort = catalog.SortNewest
	}

	var err error
	if filter.Page, err = parsePositiveInt(q.Get("page"), 1); err != nil {
		return filter, errors.New("invalid page parameter")
	}
	if filter.Limit, err = parsePositiveInt(q.Get("limit"), 10); err != nil {
		return filter, errors.New("invalid limit parameter")
	}

	if raw := q.Get("priceMin"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, errors.New("invalid priceMin parameter")
		}
		filter.PriceMin = &n
	}
	if raw := q.Get("priceMax"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, errors.New("invalid priceMax parameter")
		}
		filter.PriceMax = &n
	}
	if raw := q.Get("inStock"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("invalid inStock parameter")
		}
		filter.InStock = &b
	}

	return filter, nil
}

func parsePositiveInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("value must be a positive integer")
	}
	return n, nil
}
