package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dveridom/backend/internal/catalog"
	"github.com/dveridom/backend/internal/order"
)

type CreateOrderRequest struct {
	Name    string         `json:"name" validate:"required,min=2"`
	Phone   string         `json:"phone" validate:"required,min=5"`
	Address string         `json:"address" validate:"required,min=5"`
	Comment string         `json:"comment,omitempty"`
	Items   []catalog.Door `json:"items" validate:"required,min=1"`
	Total   float64        `json:"total" validate:"gte=0"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router, authMw func(http.Handler) http.Handler) {
	router.Post("/orders", h.handleCreateOrder)

	router.Group(func(r chi.Router) {
		r.Use(authMw)
		r.Get("/orders", h.handleListOrders)
		r.Get("/orders/{id}", h.handleGetOrder)
		r.Patch("/orders/{id}/status", h.handleUpdateOrderStatus)
	})
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateOrderRequest

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

	created, err := h.service.Create(r.Context(), &order.Order{
		Name:    requestPayload.Name,
		Phone:   requestPayload.Phone,
		Address: requestPayload.Address,
		Comment: requestPayload.Comment,
		Items:   requestPayload.Items,
		Total:   requestPayload.Total,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create order via service")

		statusCode := mapErrorToStatusCode(err)
		clientMessage := "Failed to create order"
		if errors.Is(err, order.ErrEmptyOrder) {
			clientMessage = "Order must contain at least one item"
		}
		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.FindAll(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	orderID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("order_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	found, err := h.service.FindOne(r.Context(), orderID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get order via service")

		statusCode := mapErrorToStatusCode(err)
		clientMessage := "Failed to get order"
		if errors.Is(err, order.ErrOrderNotFound) {
			clientMessage = "Order not found"
		}
		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, found)
}

func (h *OrderHandler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	orderID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("order_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload UpdateOrderStatusRequest

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

	updated, err := h.service.UpdateStatus(r.Context(), orderID, order.OrderStatus(requestPayload.Status))
	if err != nil {
		log.Error().Err(err).Msg("Failed to update order status via service")

		statusCode := mapErrorToStatusCode(err)

		var clientMessage string
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			clientMessage = "Order not found"
		case errors.Is(err, order.ErrInvalidStatus):
			clientMessage = "Unknown order status"
		case errors.Is(err, order.ErrInvalidStatusTransition):
			clientMessage = "Invalid order status transition"
		default:
			clientMessage = "Failed to update order status"
		}
		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}
