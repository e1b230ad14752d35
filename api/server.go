/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/departments/*    Department management
  /api/employees/*      Employee management
  /api/projects/*       Projects and member assignments
  /api/bonus-periods/*  Periods, ratings, calculation, results
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Department routes
		r.Route("/departments", func(r chi.Router) {
			r.Get("/", h.ListDepartments)
			r.Post("/", h.SaveDepartment)
			r.Get("/{id}", h.GetDepartment)
			r.Delete("/{id}", h.DeleteDepartment)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.SaveEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
		})

		// Project routes
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.SaveProject)
			r.Get("/{id}", h.GetProject)
			r.Delete("/{id}", h.DeleteProject)
			r.Get("/{id}/members", h.ListProjectMembers)
			r.Post("/{id}/members", h.AddProjectMember)
			r.Delete("/{id}/members/{employeeID}", h.RemoveProjectMember)
		})

		// Bonus period routes
		r.Route("/bonus-periods", func(r chi.Router) {
			r.Get("/", h.ListBonusPeriods)
			r.Post("/", h.SaveBonusPeriod)
			r.Get("/{id}", h.GetBonusPeriod)
			r.Post("/{id}/calculate", h.CalculateBonuses)
			r.Get("/{id}/results", h.GetResults)
			r.Post("/{id}/finalize", h.FinalizePeriod)
			r.Get("/{id}/ratings", h.ListRatings)
			r.Post("/{id}/ratings", h.SaveRating)
			r.Post("/{id}/employees/{employeeID}/recalculate", h.RecalculateEmployee)
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
