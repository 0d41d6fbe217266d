package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"trivia-session-engine/internal/app"
	"trivia-session-engine/internal/domain"
	"trivia-session-engine/internal/phase"
)

// Handler exposes the session use cases as a JSON REST API.
type Handler struct {
	service *app.SessionService
	phases  phase.Config
}

func NewHandler(service *app.SessionService, phases phase.Config) *Handler {
	return &Handler{service: service, phases: phases}
}

type startRequest struct {
	UserID string `json:"userId"`
	Phase  int    `json:"phase"`
	Locale string `json:"locale"`
}

type answerRequest struct {
	Option     string `json:"option"`
	TimeUsedMs int64  `json:"timeUsedMs"`
	IsTimeout  bool   `json:"isTimeout"`
}

func (a answerRequest) submission() domain.AnswerSubmission {
	return domain.AnswerSubmission{Option: a.Option, TimeUsedMs: a.TimeUsedMs, IsTimeout: a.IsTimeout}
}

type finishRequest struct {
	Reason string `json:"reason"`
}

type phaseResponse struct {
	Phase           int             `json:"phase"`
	Distribution    map[int]int     `json:"distribution"`
	Percentages     map[int]float64 `json:"percentages"`
	MinLevel        int             `json:"minLevel"`
	MaxLevel        int             `json:"maxLevel"`
	MinimumAccuracy float64         `json:"minimumAccuracy"`
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /sessions", h.startSession)
	mux.HandleFunc("GET /sessions/{id}", h.getSession)
	mux.HandleFunc("GET /sessions/{id}/question", h.currentQuestion)
	mux.HandleFunc("POST /sessions/{id}/answers", h.submitAnswer)
	mux.HandleFunc("POST /sessions/{id}/pause", h.pauseSession)
	mux.HandleFunc("POST /sessions/{id}/resume", h.resumeSession)
	mux.HandleFunc("POST /sessions/{id}/finish", h.finishSession)
	mux.HandleFunc("GET /phases/{n}", h.getPhase)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	started, err := h.service.StartSession(r.Context(), app.StartRequest{
		UserID: req.UserID,
		Phase:  req.Phase,
		Locale: req.Locale,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, started)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) currentQuestion(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetCurrentQuestion(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	outcome, err := h.service.SubmitAnswer(r.Context(), r.PathValue("id"), req.submission())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) pauseSession(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.PauseSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) resumeSession(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ResumeSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) finishSession(w http.ResponseWriter, r *http.Request) {
	var req finishRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	summary, err := h.service.FinishSession(r.Context(), r.PathValue("id"), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) getPhase(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %q", domain.ErrInvalidPhase, r.PathValue("n")))
		return
	}
	pc, err := h.phases.ForPhase(n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, phaseResponse{
		Phase:           pc.Phase,
		Distribution:    pc.Distribution,
		Percentages:     pc.Percentages,
		MinLevel:        pc.MinLevel,
		MaxLevel:        pc.MaxLevel,
		MinimumAccuracy: pc.MinimumAccuracy,
	})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err)
	}
	return nil
}
