package election

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/eleicoes/internal/repo"
)

const (
	msgElectionNotFound = "Election not found"
	msgDicoNotFound     = "DICO code not found"
	msgResultsNotFound  = "No results found"
)

// Handler expõe o Service em rotas HTTP somente leitura.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/elections", h.handleListElections)
	r.Get("/elections/{electionID}", h.handleGetElection)

	r.Get("/dico", h.handleListDico)
	r.Get("/dico/{code}", h.handleGetDico)

	r.Route("/results/{electionID}", func(r chi.Router) {
		r.Get("/", h.handleListResults)
		r.Get("/{dicoCode}", h.handleResultsByGeography)
		r.Get("/{dicoCode}/summary", h.handleSummary)
	})

	r.Get("/stats/{electionID}", h.handleStats)
}

func (h *Handler) handleListElections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	elections, err := h.service.ListElections(ctx)
	if err != nil {
		writeInternalError(ctx, w, "GET /api/elections", err)
		return
	}

	logRequest(ctx, "GET /api/elections", start)
	writeJSON(w, http.StatusOK, elections)
}

func (h *Handler) handleGetElection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	e, err := h.service.GetElection(ctx, chi.URLParam(r, "electionID"))
	if err != nil {
		handleDomainError(ctx, w, "GET /api/elections/{id}", msgElectionNotFound, err)
		return
	}

	logRequest(ctx, "GET /api/elections/{id}", start)
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) handleListDico(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	level, err := parseLevel(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid level")
		return
	}

	filter := DicoFilter{Level: level}
	if parent := strings.TrimSpace(r.URL.Query().Get("parent")); parent != "" {
		filter.Parent = &parent
	}

	codes, err := h.service.ListDicoCodes(ctx, filter)
	if err != nil {
		writeInternalError(ctx, w, "GET /api/dico", err)
		return
	}

	logRequest(ctx, "GET /api/dico", start)
	writeJSON(w, http.StatusOK, codes)
}

func (h *Handler) handleGetDico(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	detail, err := h.service.GetDicoCode(ctx, chi.URLParam(r, "code"))
	if err != nil {
		handleDomainError(ctx, w, "GET /api/dico/{code}", msgDicoNotFound, err)
		return
	}

	logRequest(ctx, "GET /api/dico/{code}", start)
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	level, err := parseLevel(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid level")
		return
	}

	results, err := h.service.ListResults(ctx, chi.URLParam(r, "electionID"), level)
	if err != nil {
		writeInternalError(ctx, w, "GET /api/results/{election}", err)
		return
	}

	logRequest(ctx, "GET /api/results/{election}", start)
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) handleResultsByGeography(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	results, err := h.service.ListResultsByGeography(ctx, chi.URLParam(r, "electionID"), chi.URLParam(r, "dicoCode"))
	if err != nil {
		handleDomainError(ctx, w, "GET /api/results/{election}/{dico}", msgResultsNotFound, err)
		return
	}

	logRequest(ctx, "GET /api/results/{election}/{dico}", start)
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	summary, err := h.service.Summarize(ctx, chi.URLParam(r, "electionID"), chi.URLParam(r, "dicoCode"))
	if err != nil {
		handleDomainError(ctx, w, "GET /api/results/{election}/{dico}/summary", msgResultsNotFound, err)
		return
	}

	logRequest(ctx, "GET /api/results/{election}/{dico}/summary", start)
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	stats, err := h.service.Stats(ctx, chi.URLParam(r, "electionID"))
	if err != nil {
		handleDomainError(ctx, w, "GET /api/stats/{election}", msgElectionNotFound, err)
		return
	}

	logRequest(ctx, "GET /api/stats/{election}", start)
	writeJSON(w, http.StatusOK, stats)
}

// parseLevel trata ausência e zero como "sem filtro".
func parseLevel(r *http.Request) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("level"))
	if raw == "" {
		return nil, nil
	}
	level, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	if level == 0 {
		return nil, nil
	}
	return &level, nil
}

func handleDomainError(ctx context.Context, w http.ResponseWriter, label, notFound string, err error) {
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	writeInternalError(ctx, w, label, err)
}

func writeInternalError(ctx context.Context, w http.ResponseWriter, label string, err error) {
	log.Error().Err(err).Str("label", label).Str("request_id", chimiddleware.GetReqID(ctx)).Msg("election handler error")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func logRequest(ctx context.Context, label string, start time.Time) {
	logger := log.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &log.Logger
	}
	reqID := chimiddleware.GetReqID(ctx)
	logger.Debug().Str("request_id", reqID).Str("label", label).Dur("duration", time.Since(start)).Msg("election_request")
}

// Helpers de resposta JSON compatíveis com o resto do projeto.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
