package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/dveridom/backend/internal/auth"
	"github.com/dveridom/backend/internal/catalog"
	"github.com/dveridom/backend/internal/category"
	"github.com/dveridom/backend/internal/order"
	"github.com/dveridom/backend/internal/request"
	"github.com/dveridom/backend/internal/scraper"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

// respondWithError отправляет JSON ошибку
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON отправляет JSON ответ
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}

// respondWithValidationError разворачивает ошибку валидатора в ответ с
// перечнем полей. Ошибки другого типа считаются внутренними.
func respondWithValidationError(w http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation failed",
			Details: formatValidationErrors(validationErrors),
		})
		return
	}
	log.Error().Err(err).Msg("Unexpected error type during validation")
	respondWithError(w, http.StatusInternalServerError, "Internal validation error")
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, catalog.ErrDoorNotFound),
		errors.Is(err, category.ErrCategoryNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, request.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrDuplicateExternalID),
		errors.Is(err, order.ErrInvalidStatusTransition),
		errors.Is(err, scraper.ErrCrawlInProgress),
		errors.Is(err, auth.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
