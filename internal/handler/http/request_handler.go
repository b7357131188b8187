package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dveridom/backend/internal/request"
)

type MeasurementRequestPayload struct {
	Name    string `json:"name" validate:"required,min=2"`
	Phone   string `json:"phone" validate:"required,min=5"`
	Address string `json:"address,omitempty"`
	Comment string `json:"comment,omitempty"`
}

type CallbackRequestPayload struct {
	Name    string `json:"name" validate:"required,min=2"`
	Phone   string `json:"phone" validate:"required,min=5"`
	Comment string `json:"comment,omitempty"`
}

type UpdateRequestStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

type RequestHandler struct {
	service  request.Service
	validate *validator.Validate
}

func NewRequestHandler(service request.Service) *RequestHandler {
	return &RequestHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *RequestHandler) RegisterRoutes(router chi.Router, authMw func(http.Handler) http.Handler) {
	router.Post("/requests/measurement", h.handleCreateMeasurement)
	router.Post("/requests/callback", h.handleCreateCallback)

	router.Group(func(r chi.Router) {
		r.Use(authMw)
		r.Get("/requests/measurement", h.handleListMeasurements)
		r.Get("/requests/callback", h.handleListCallbacks)
		r.Patch("/requests/measurement/{id}/status", h.handleUpdateMeasurementStatus)
		r.Patch("/requests/callback/{id}/status", h.handleUpdateCallbackStatus)
	})
}

func (h *RequestHandler) handleCreateMeasurement(w http.ResponseWriter, r *http.Request) {
	var payload MeasurementRequestPayload
	if !h.decodePayload(w, r, &payload) {
		return
	}

	created, err := h.service.CreateMeasurement(r.Context(), &request.MeasurementRequest{
		Name:    payload.Name,
		Phone:   payload.Phone,
		Address: payload.Address,
		Comment: payload.Comment,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create measurement request via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create measurement request")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *RequestHandler) handleCreateCallback(w http.ResponseWriter, r *http.Request) {
	var payload CallbackRequestPayload
	if !h.decodePayload(w, r, &payload) {
		return
	}

	created, err := h.service.CreateCallback(r.Context(), &request.CallbackRequest{
		Name:    payload.Name,
		Phone:   payload.Phone,
		Comment: payload.Comment,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create callback request via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create callback request")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *RequestHandler) handleListMeasurements(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListMeasurements(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list measurement requests via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list measurement requests")
		return
	}
	respondWithJSON(w, http.StatusOK, requests)
}

func (h *RequestHandler) handleListCallbacks(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListCallbacks(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list callback requests via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list callback requests")
		return
	}
	respondWithJSON(w, http.StatusOK, requests)
}

func (h *RequestHandler) handleUpdateMeasurementStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, h.service.UpdateMeasurementStatus)
}

func (h *RequestHandler) handleUpdateCallbackStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, h.service.UpdateCallbackStatus)
}

func (h *RequestHandler) updateStatus(
	w http.ResponseWriter,
	r *http.Request,
	update func(ctx context.Context, id uuid.UUID, status request.RequestStatus) error,
) {
	idParam := chi.URLParam(r, "id")
	requestID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("request_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var payload UpdateRequestStatusPayload
	if !h.decodePayload(w, r, &payload) {
		return
	}

	status := request.RequestStatus(payload.Status)
	if !status.Valid() {
		respondWithError(w, http.StatusBadRequest, "Unknown request status")
		return
	}

	if err := update(r.Context(), requestID, status); err != nil {
		log.Error().Err(err).Msg("Failed to update request status via service")

		statusCode := mapErrorToStatusCode(err)
		clientMessage := "Failed to update request status"
		if errors.Is(err, request.ErrRequestNotFound) {
			clientMessage = "Request not found"
		}
		respondWithError(w, statusCode, clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RequestHandler) decodePayload(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		respondWithValidationError(w, err)
		return false
	}
	return true
}
