package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/bookwell/bookwell-api/internal/errs"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// writeError maps a classified error to its stable status code and a
// machine-readable body. Storage and unknown failures get a generic
// message; the cause only goes to the server log.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, errorResponse{Error: payload})
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorPayload{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, errorPayload{Code: "validation_error", Message: err.Error()}
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, errorPayload{Code: "not_found", Message: err.Error()}
	case errors.Is(err, errs.ErrExpired):
		return http.StatusGone, errorPayload{Code: "expired", Message: err.Error()}
	case errors.Is(err, errs.ErrInvalidState):
		return http.StatusConflict, errorPayload{Code: "invalid_state", Message: err.Error()}
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict, errorPayload{Code: "conflict", Message: err.Error()}
	case errors.Is(err, errs.ErrStorage):
		return http.StatusServiceUnavailable, errorPayload{Code: "storage_unavailable", Message: "storage temporarily unavailable"}
	default:
		return http.StatusInternalServerError, errorPayload{Code: "internal_error", Message: "internal server error"}
	}
}
