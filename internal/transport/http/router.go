package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lumina/backend/internal/locale"
)

type Config struct {
	// Ready backs /readyz. Nil means always ready.
	Ready   func(ctx context.Context) error
	Metrics http.Handler
	Log     *slog.Logger
}

// NewRouter serves the admin surface next to the gRPC API: health checks,
// Prometheus metrics and the UI string tables.
func NewRouter(cfg Config) http.Handler {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "http.admin"))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readyHandler(cfg.Ready, log))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}
	r.Get("/v1/locales/{lang}", localeHandler)
	return r
}

func readyHandler(ready func(ctx context.Context) error, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				log.Warn("readiness check failed", slog.Any("err", err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

type localeResponse struct {
	Language locale.Language `json:"language"`
	Strings  map[string]any  `json:"strings"`
}

// localeHandler returns the resolved dictionary for {lang}. "auto" picks
// the language from Accept-Language.
func localeHandler(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "lang")
	var lang locale.Language
	if raw == "auto" {
		lang = locale.Match(r.Header.Get("Accept-Language"))
	} else {
		var ok bool
		if lang, ok = locale.Parse(raw); !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown language"})
			return
		}
	}

	dict := locale.Dictionary(lang)
	out := localeResponse{Language: lang, Strings: make(map[string]any, len(dict))}
	for k, v := range dict {
		if v.IsList() {
			out.Strings[k] = v.List
		} else {
			out.Strings[k] = v.Text
		}
	}
	w.Header().Set("Content-Language", string(lang))
	writeJSON(w, http.StatusOK, out)
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug(
				"http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
