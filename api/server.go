/*
server.go - Route table and middleware stack

PURPOSE:
  Assembles the HTTP surface: request id + recovery + structured logging
  on everything, CORS for the browser clients, bearer-token auth with
  role gates per route group, and a per-IP rate limit on the routes the
  shop-floor kiosks may reach.

ROLES:
  admin      full access
  scheduler  full access
  kiosk      self-service only: validate, submit, and view own requests
*/
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/warp/scheduling-engine/directory"
	"github.com/warp/scheduling-engine/roster"
	"github.com/warp/scheduling-engine/timeoff"
)

// EmployeeStore is the directory plus the write side the admin surface
// needs. Satisfied by store/sqlite.
type EmployeeStore interface {
	directory.Directory
	SaveEmployee(ctx context.Context, e directory.Employee) error
}

// Options tunes the transport-level behavior.
type Options struct {
	AllowOrigins []string
	KioskRate    rate.Limit
	KioskBurst   int
}

// Server holds the handler dependencies.
type Server struct {
	logger    *zap.Logger
	tokens    *TokenManager
	employees EmployeeStore
	templates *roster.TemplateService
	plans     *roster.PlanService
	special   *roster.SpecialDayService
	validator *timeoff.Validator
	timeoff   *timeoff.Service
	opts      Options
}

// NewServer wires the handlers over the domain services.
func NewServer(
	logger *zap.Logger,
	tokens *TokenManager,
	employees EmployeeStore,
	templates *roster.TemplateService,
	plans *roster.PlanService,
	special *roster.SpecialDayService,
	validator *timeoff.Validator,
	timeoffSvc *timeoff.Service,
	opts Options,
) *Server {
	if opts.KioskRate <= 0 {
		opts.KioskRate = 5
	}
	if opts.KioskBurst <= 0 {
		opts.KioskBurst = 10
	}
	return &Server{
		logger:    logger,
		tokens:    tokens,
		employees: employees,
		templates: templates,
		plans:     plans,
		special:   special,
		validator: validator,
		timeoff:   timeoffSvc,
		opts:      opts,
	}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger(s.logger))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(s.tokens))

		// Staffing administration. Kiosks have no business here.
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(RoleAdmin, RoleScheduler))

			r.Route("/api/employees", func(r chi.Router) {
				r.Get("/", s.handleListEmployees)
				r.Put("/", s.handleUpsertEmployee)
				r.Get("/{id}", s.handleGetEmployee)
			})

			r.Route("/api/templates", func(r chi.Router) {
				r.Get("/", s.handleListTemplates)
				r.Post("/", s.handleCreateTemplate)
				r.Get("/{id}", s.handleGetTemplate)
				r.Put("/{id}", s.handleRenameTemplate)
				r.Post("/{id}/duplicate", s.handleDuplicateTemplate)
				r.Delete("/{id}", s.handleDeleteTemplate)
				r.Get("/{id}/rows", s.handleListTemplateRows)
				r.Post("/{id}/rows", s.handleAddTemplateRow)
				r.Delete("/{id}/rows/{rowID}", s.handleRemoveTemplateRow)
			})

			r.Route("/api/plans", func(r chi.Router) {
				r.Get("/", s.handleListPlans)
				r.Post("/", s.handleCreatePlan)
				r.Get("/{id}", s.handleGetPlan)
				r.Patch("/{id}/status", s.handleAdvancePlanStatus)
				r.Get("/{id}/rows", s.handleListPlanRows)
				r.Post("/{id}/rows", s.handleAddPlanRow)
				r.Delete("/{id}/rows/{rowID}", s.handleRemovePlanRow)
				r.Get("/{id}/summary", s.handlePlanSummary)
			})

			r.Route("/api/special-days", func(r chi.Router) {
				r.Get("/", s.handleListSpecialDay)
				r.Post("/", s.handleAssignSpecialDay)
				r.Delete("/{id}", s.handleUnassignSpecialDay)
			})

			r.Route("/api/holidays", func(r chi.Router) {
				r.Get("/", s.handleListHolidays)
				r.Post("/", s.handleCreateHoliday)
				r.Patch("/{id}", s.handleSetHolidayActive)
				r.Delete("/{id}", s.handleDeleteHoliday)
			})

			r.Post("/api/timeoff/requests/{id}/approve", s.handleApproveTimeOff)
			r.Post("/api/timeoff/requests/{id}/reject", s.handleRejectTimeOff)
		})

		// Self-service surface shared with the kiosks. Rate-limited because
		// kiosk terminals sit on the shop floor, unattended.
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(RoleAdmin, RoleScheduler, RoleKiosk))
			r.Use(RateLimitByIP(s.opts.KioskRate, s.opts.KioskBurst))

			r.Post("/api/timeoff/validate", s.handleValidateTimeOff)
			r.Post("/api/timeoff/requests", s.handleSubmitTimeOff)
			r.Get("/api/timeoff/requests", s.handleListTimeOffRequests)
			r.Get("/api/timeoff/requests/{id}", s.handleGetTimeOffRequest)
		})
	})

	return r
}
