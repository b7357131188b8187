package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/dveridom/backend/internal/category"
)

type CategoryRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description,omitempty"`
}

type CategoryHandler struct {
	service  category.Service
	validate *validator.Validate
}

func NewCategoryHandler(service category.Service) *CategoryHandler {
	return &CategoryHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *CategoryHandler) RegisterRoutes(router chi.Router, authMw func(http.Handler) http.Handler) {
	router.Get("/categories", h.handleListCategories)
	router.Get("/categories/{id}", h.handleGetCategory)

	router.Group(func(r chi.Router) {
		r.Use(authMw)
		r.Post("/categories", h.handleCreateCategory)
		r.Put("/categories/{id}", h.handleUpdateCategory)
		r.Delete("/categories/{id}", h.handleDeleteCategory)
	})
}

func (h *CategoryHandler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.FindAll(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list categories via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list categories")
		return
	}
	respondWithJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseCategoryID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	found, err := h.service.FindOne(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get category via service")

		statusCode := mapErrorToStatusCode(err)
		clientMessage := "Failed to get category"
		if errors.Is(err, category.ErrCategoryNotFound) {
			clientMessage = "Category not found"
		}
		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, found)
}

func (h *CategoryHandler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeCategory(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), &category.Category{
		Name:        payload.Name,
		Description: payload.Description,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create category via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create category")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *CategoryHandler) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseCategoryID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	payload, ok := h.decodeCategory(w, r)
	if !ok {
		return
	}

	updated, err := h.service.Update(r.Context(), &category.Category{
		ID:          id,
		Name:        payload.Name,
		Description: payload.Description,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to update category via service")

		statusCode := mapErrorToStatusCode(err)
		clientMessage := "Failed to update category"
		if errors.Is(err, category.ErrCategoryNotFound) {
			clientMessage = "Category not found"
		}
		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (h *CategoryHandler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseCategoryID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.service.Remove(r.Context(), id); err != nil {
		log.Error().Err(err).Msg("Failed to delete category via service")

		statusCode := mapErrorToStatusCode(err)
		clientMessage := "Failed to delete category"
		if errors.Is(err, category.ErrCategoryNotFound) {
			clientMessage = "Category not found"
		}
		respondWithError(w, statusCode, clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CategoryHandler) decodeCategory(w http.ResponseWriter, r *http.Request) (CategoryRequest, bool) {
	var payload CategoryRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return payload, false
	}

	if err := h.validate.Struct(payload); err != nil {
		respondWithValidationError(w, err)
		return payload, false
	}
	return payload, true
}

func parseCategoryID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}
