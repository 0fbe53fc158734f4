package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookofh-service/internal/app"
	"bookofh-service/internal/domain"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// Handler serves the questionnaire REST API.
type Handler struct {
	service *app.QuestionnaireService
	log     zerolog.Logger
}

func NewHandler(service *app.QuestionnaireService, log zerolog.Logger) *Handler {
	return &Handler{service: service, log: log.With().Str("component", "http").Logger()}
}

// Register mounts the REST routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.root)
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("POST /api/questionnaire/submit", h.submit)
	mux.HandleFunc("GET /api/questionnaire/{userID}", h.get)
}

func (h *Handler) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
		return
	}

	q, err := h.service.Submit(r.Context(), *req.UserID, toDomain(*req.Answers))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{
		Message:         "Questionnaire saved successfully",
		QuestionnaireID: q.ID,
		Score:           q.Score,
		Band:            q.Band,
		CategoryScores:  q.CategoryScores,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Get(r.Context(), r.PathValue("userID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidSubmission):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
	case errors.Is(err, domain.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "User not found"})
	case errors.Is(err, domain.ErrQuestionnaireNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Questionnaire not found"})
	case errors.Is(err, domain.ErrSubmissionInProgress):
		writeJSON(w, http.StatusConflict, errorResponse{Detail: err.Error()})
	default:
		h.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
