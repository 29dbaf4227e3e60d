package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gestaozabele/eleicoes/internal/config"
	"github.com/gestaozabele/eleicoes/internal/election"
	httpmiddleware "github.com/gestaozabele/eleicoes/internal/http/middleware"
)

// Check verifica uma dependência externa.
type Check func(ctx context.Context) error

type Handler struct {
	checks  map[string]Check
	limiter *httpmiddleware.RateLimiter
}

// NewRouter devolve roteador configurado. redisClient pode ser nil.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client) http.Handler {
	repository := election.NewRepository(pool, cfg.DBTimeout)
	service := election.NewService(repository, redisClient, cfg.CacheTTL)

	checks := map[string]Check{"db": repository.Ping}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	return newRouter(cfg, election.NewHandler(service), checks)
}

func newRouter(cfg *config.Config, elections *election.Handler, checks map[string]Check) http.Handler {
	h := &Handler{
		checks:  checks,
		limiter: httpmiddleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.IPRateLimit(h.limiter))
		election.Mount(api, elections)
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e, se configurado, Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failures := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		WriteError(w, http.StatusServiceUnavailable, "dependencies unavailable", failures)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}
