package solutions

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/paper-nest/backend/internal/corpus"
	"github.com/paper-nest/backend/internal/models"
	"go.uber.org/zap"
)

type Handler struct {
	drafter *Drafter
	log     *zap.Logger
}

// NewHandler accepts a nil drafter; the endpoint then answers 503.
func NewHandler(drafter *Drafter, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{drafter: drafter, log: log}
}

func (h *Handler) Register(api *mux.Router) {
	api.HandleFunc("/solutions/draft", h.DraftSolution).Methods("POST")
}

func (h *Handler) DraftSolution(w http.ResponseWriter, r *http.Request) {
	if h.drafter == nil {
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: ErrDisabled.Error()})
		return
	}

	var req models.DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.drafter.Draft(r.Context(), req)
	if err != nil {
		var (
			verr *ValidationError
			lerr *corpus.LoadError
		)
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Details: verr.Errors})
		case errors.Is(err, ErrQuestionNotFound):
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Question not found"})
		case errors.As(err, &lerr):
			h.log.Error("question bank unavailable", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Question bank unavailable: " + lerr.Public()})
		default:
			h.log.Error("draft failed", zap.Error(err))
			writeJSON(w, http.StatusBadGateway, models.ErrorResponse{Error: "Drafting failed: " + err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
