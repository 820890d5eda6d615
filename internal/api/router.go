package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/ibdscreener/internal/api/handlers"
	"github.com/wonny/ibdscreener/pkg/logger"
)

// HealthFunc reports data source health for /health
type HealthFunc func(r *http.Request) (interface{}, error)

// Routes bundles what the router serves
type Routes struct {
	Screeners *handlers.ScreenerHandler
	Hub       *handlers.Hub
	Metrics   http.Handler // nil disables /metrics
	Health    HealthFunc   // nil reports ok without a data source check
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(routes Routes, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(routes.Health)).Methods("GET")

	if routes.Metrics != nil {
		r.Handle("/metrics", routes.Metrics).Methods("GET")
	}
	if routes.Hub != nil {
		r.HandleFunc("/ws/runs", routes.Hub.ServeWS).Methods("GET")
	}

	// API
	api := r.PathPrefix("/api").Subrouter()

	sh := routes.Screeners
	api.HandleFunc("/screeners", sh.ListScreeners).Methods("GET")
	api.HandleFunc("/screeners/run", sh.RunAll).Methods("POST")
	api.HandleFunc("/screeners/{name}", sh.GetScreener).Methods("GET")
	api.HandleFunc("/runs/latest", sh.LatestRun).Methods("GET")
	api.HandleFunc("/runs/{date}", sh.RunForDate).Methods("GET")
	api.HandleFunc("/quadrants/{ticker}", sh.GetQuadrant).Methods("GET")
	api.HandleFunc("/report/latest", sh.LatestReport).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(check HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "ok",
			"service": "ibdscreener-api",
		}
		status := http.StatusOK

		if check != nil {
			detail, err := check(r)
			body["data_source"] = detail
			if err != nil {
				body["status"] = "degraded"
				body["error"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
