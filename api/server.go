/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     slog request logging (method, path, status, duration)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the HR frontend

ROUTE GROUPS:
  /api/employees/*      Employees, their balance, history, records, requests
  /api/balances         Balance listing
  /api/requests/*       Review queue
  /api/agreed-days/*    Company-wide agreed days
  /api/reports/*        PDF reports
  /api/scenarios/*      Demo scenarios and reset (dev only)
  /healthz              Liveness

SECURITY NOTE:
  No authentication middleware. All endpoints are public; put the
  server behind an authenticating proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured. origins
// lists the allowed CORS origins.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetEmployee)
				r.Post("/archive", h.ArchiveEmployee)
				r.Post("/reactivate", h.ReactivateEmployee)
				r.Get("/balance", h.GetBalance)
				r.Get("/history", h.GetHistory)
				r.Get("/audit", h.GetAudit)

				r.Post("/requests", h.SubmitRequest)
				r.Post("/requests/{reqID}/approve", h.ApproveRequest)
				r.Post("/requests/{reqID}/reject", h.RejectRequest)

				r.Post("/records", h.AddManualRecord)
				r.Post("/records/{recID}/certify", h.CertifyRecord)
				r.Post("/adjustments", h.AddAdjustment)
				r.Post("/exceptions", h.AddException)
			})
		})

		r.Get("/balances", h.ListBalances)

		// Request approval routes
		r.Get("/requests/pending", h.ListPendingRequests)

		// Agreed day routes
		r.Route("/agreed-days", func(r chi.Router) {
			r.Get("/", h.ListAgreedDays)
			r.Post("/", h.CreateAgreedDay)
			r.Post("/activate", h.ActivateAgreedDays)
			r.Post("/seed", h.SeedAgreedDays)
			r.Put("/{id}", h.UpdateAgreedDay)
			r.Delete("/{id}", h.DeleteAgreedDay)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/employees/{id}", h.EmployeeReport)
			r.Get("/general", h.GeneralReport)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

// requestLogger logs one line per request once the response is written.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
