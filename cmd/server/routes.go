package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tomasen/realip"
)

type application struct {
	logger   *slog.Logger
	registry *prometheus.Registry
}

func (app *application) routes(rpcPath string, rpcHandler http.Handler) http.Handler {
	mux := chi.NewRouter()

	mux.Use(app.logAccess)
	mux.Use(middleware.Recoverer)
	mux.Use(corsMiddleware)

	mux.Get("/healthz", app.handleHealth)
	mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{Registry: app.registry}))
	mux.Handle(rpcPath+"*", rpcHandler)

	app.logger.Debug("Routes configured", "routes", routePatterns(mux.Routes()))
	return mux
}

func (app *application) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// logAccess logs every request with the client IP, status and size.
func (app *application) logAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		app.logger.Info("Request completed",
			slog.Group("user", "ip", realip.FromRequest(r)),
			slog.Group("request", "method", r.Method, "path", r.URL.Path, "proto", r.Proto),
			slog.Group("response", "status", ww.Status(), "size", ww.BytesWritten()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, Visitlog-Error-Reason, Visitlog-Error-Fields")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func routePatterns(routes []chi.Route) []string {
	patterns := make([]string, 0, len(routes))
	for _, route := range routes {
		patterns = append(patterns, route.Pattern)
	}
	return patterns
}
