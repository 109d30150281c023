package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adsight/adsight/internal/pipeline"
	"github.com/adsight/adsight/internal/service"
	"github.com/adsight/adsight/internal/utils"
)

// Pinger is what /readyz checks; the in-memory source always reports ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(log *slog.Logger, svc *service.Service, db Pinger, allowedOrigins []string) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))
	mux.Use(utils.Metrics)
	mux.Use(middleware.Recoverer)
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})
	mux.Method(http.MethodGet, "/metrics", promhttp.Handler())

	mux.Route("/api", func(r chi.Router) {
		r.Get("/analytics", handle(log, func(ctx context.Context, v url.Values) (any, error) {
			return svc.Analytics(ctx, v)
		}))
		r.Get("/business-data", handle(log, func(ctx context.Context, v url.Values) (any, error) {
			return svc.BusinessData(ctx, v)
		}))
		r.Get("/trends", handle(log, func(ctx context.Context, v url.Values) (any, error) {
			return svc.Trends(ctx, v)
		}))
		r.Get("/compare", handle(log, func(ctx context.Context, v url.Values) (any, error) {
			return svc.Compare(ctx, v)
		}))
	})

	return mux
}

func handle(log *slog.Logger, fn func(ctx context.Context, v url.Values) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := fn(r.Context(), r.URL.Query())
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, out)
	}
}

// writeError maps caller bugs (bad params, inverted ranges, unknown source
// kinds) to 400 and everything else, store failures included, to 502.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, service.ErrBadParam) ||
		errors.Is(err, pipeline.ErrInvalidRange) ||
		errors.Is(err, pipeline.ErrInvalidSourceKind) {
		status = http.StatusBadRequest
	}
	log.Warn("request failed",
		slog.String("path", r.URL.Path),
		slog.String("rid", utils.RID(r.Context())),
		slog.Int("status", status),
		slog.String("err", err.Error()))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
