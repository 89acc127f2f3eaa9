package papers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/paper-nest/backend/internal/corpus"
	"github.com/paper-nest/backend/internal/models"
	"go.uber.org/zap"
)

const maxListLimit = 100

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, log: log}
}

// Register mounts the paper and corpus routes on an /api/v1 subrouter.
func (h *Handler) Register(api *mux.Router) {
	api.HandleFunc("/papers/select", h.SelectQuestions).Methods("POST")
	api.HandleFunc("/papers", h.GeneratePaper).Methods("POST")
	api.HandleFunc("/papers", h.ListPapers).Methods("GET")
	api.HandleFunc("/papers/{id}", h.GetPaper).Methods("GET")
	api.HandleFunc("/papers/{id}/replacements", h.ReplaceInPaper).Methods("POST")
	api.HandleFunc("/replacements", h.FindReplacements).Methods("POST")
	api.HandleFunc("/corpus", h.CorpusStats).Methods("GET")
	api.HandleFunc("/corpus/reload", h.ReloadCorpus).Methods("POST")
	api.HandleFunc("/corpus/audit", h.AuditCorpus).Methods("GET")
}

func (h *Handler) SelectQuestions(w http.ResponseWriter, r *http.Request) {
	var req models.SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.Select(r.Context(), req)
	if err != nil {
		h.writeError(w, "select", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GeneratePaper(w http.ResponseWriter, r *http.Request) {
	var req models.SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	paper, err := h.service.Generate(r.Context(), req)
	if err != nil {
		h.writeError(w, "generate", err)
		return
	}

	writeJSON(w, http.StatusCreated, paper)
}

func (h *Handler) ListPapers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := intQueryParam(query, "limit", 20)
	if limit == 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	offset := intQueryParam(query, "offset", 0)

	papers, err := h.service.ListPapers(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "list papers", err)
		return
	}

	if papers == nil {
		papers = []models.PaperSummary{}
	}
	writeJSON(w, http.StatusOK, papers)
}

func (h *Handler) GetPaper(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid paper ID"})
		return
	}

	paper, err := h.service.GetPaper(r.Context(), id)
	if err != nil {
		h.writeError(w, "get paper", err)
		return
	}

	writeJSON(w, http.StatusOK, paper)
}

func (h *Handler) ReplaceInPaper(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid paper ID"})
		return
	}

	var req models.PaperReplacementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.ReplaceInPaper(r.Context(), id, req.ReplacementRequests)
	if err != nil {
		h.writeError(w, "replace in paper", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) FindReplacements(w http.ResponseWriter, r *http.Request) {
	var req models.ReplacementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.FindReplacements(r.Context(), req)
	if err != nil {
		h.writeError(w, "replacements", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ── Corpus Handlers ─────────────────────────────────────

func (h *Handler) CorpusStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.CorpusStats(r.Context())
	if err != nil {
		h.writeError(w, "corpus stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) ReloadCorpus(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.ReloadCorpus(r.Context())
	if err != nil {
		h.writeError(w, "corpus reload", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) AuditCorpus(w http.ResponseWriter, r *http.Request) {
	limit := intQueryParam(r.URL.Query(), "limit", 50)
	report, err := h.service.AuditCorpus(r.Context(), limit)
	if err != nil {
		h.writeError(w, "corpus audit", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ── Helpers ─────────────────────────────────────────────

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	var (
		verr *ValidationError
		nerr *NotFoundError
		lerr *corpus.LoadError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Details: verr.Errors})
	case errors.As(err, &nerr):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: nerr.Error()})
	case errors.Is(err, ErrPaperNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Paper not found"})
	case errors.As(err, &lerr):
		h.log.Error("question bank unavailable", zap.String("op", op), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Question bank unavailable: " + lerr.Public()})
	default:
		h.log.Error("request failed", zap.String("op", op), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	s := query.Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}
