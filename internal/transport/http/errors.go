package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"trivia-session-engine/internal/domain"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps an engine error to its HTTP status and a stable code for clients.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusGone, "session_expired"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrNoMoreQuestions):
		return http.StatusConflict, "no_more_questions"
	case errors.Is(err, domain.ErrState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, domain.ErrResourceExhausted):
		return http.StatusServiceUnavailable, "insufficient_questions"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func toErrorPayload(err error) errorPayload {
	_, code := classify(err)
	msg := err.Error()
	if code == "internal" {
		msg = "internal error"
	}
	return errorPayload{Code: code, Message: msg}
}

func writeError(w http.ResponseWriter, err error) {
	status, _ := classify(err)
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	writeJSON(w, status, toErrorPayload(err))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response failed: %v", err)
	}
}
