/*
handlers.go - HTTP handlers for employees, templates, plans, and special days

PURPOSE:
  Thin translation layer: decode + validate the DTO, call the service,
  map the result back to a DTO. No business rules live here.

SEE ALSO:
  timeoff_handlers.go - the time-off validation and lifecycle endpoints
  server.go           - route table and middleware stack
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/scheduling-engine/calendar"
	"github.com/warp/scheduling-engine/directory"
	"github.com/warp/scheduling-engine/engine"
	"github.com/warp/scheduling-engine/roster"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Server) handleUpsertEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	emp := directory.Employee{
		ID:       req.ID,
		Name:     req.Name,
		Position: req.Position,
		BranchID: req.BranchID,
	}
	if err := s.employees.SaveEmployee(r.Context(), emp); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	emp, err := s.employees.Lookup(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if emp == nil {
		s.writeDomainError(w, engine.NotFound("employee", id))
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := s.employees.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	dtos := make([]EmployeeDTO, 0, len(employees))
	for _, e := range employees {
		dtos = append(dtos, toEmployeeDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SHIFT TEMPLATES
// =============================================================================

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req CreateTemplateRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	tmpl, err := s.templates.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTemplateDTO(*tmpl))
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.templates.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	dtos := make([]TemplateDTO, 0, len(templates))
	for _, t := range templates {
		dtos = append(dtos, toTemplateDTO(t))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.templates.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTemplateDTO(*tmpl))
}

func (s *Server) handleRenameTemplate(w http.ResponseWriter, r *http.Request) {
	var req CreateTemplateRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	tmpl, err := s.templates.Rename(r.Context(), chi.URLParam(r, "id"), req.Name, req.Description)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTemplateDTO(*tmpl))
}

func (s *Server) handleDuplicateTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.templates.Duplicate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTemplateDTO(*tmpl))
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.templates.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddTemplateRow(w http.ResponseWriter, r *http.Request) {
	var req AddRowRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	row, err := s.templates.AddRow(r.Context(), chi.URLParam(r, "id"),
		req.EmployeeID, req.BranchID, req.DayOfWeek, req.StartTime, req.EndTime)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTemplateRowDTO(*row))
}

func (s *Server) handleListTemplateRows(w http.ResponseWriter, r *http.Request) {
	rows, err := s.templates.Rows(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	dtos := make([]RowDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, toTemplateRowDTO(row))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleRemoveTemplateRow(w http.ResponseWriter, r *http.Request) {
	if err := s.templates.RemoveRow(r.Context(), chi.URLParam(r, "rowID")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// WEEKLY PLANS
// =============================================================================

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	weekStart, err := calendar.ParseDate(req.WeekStart)
	if err != nil {
		s.writeDomainError(w, engine.Invalid("week_start", err.Error()))
		return
	}

	plan, err := s.plans.Create(r.Context(), weekStart, req.SourceTemplateID, req.Notes)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanDTO(*plan))
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	// ?week=YYYY-MM-DD narrows to the plan covering that date's week.
	if week := r.URL.Query().Get("week"); week != "" {
		date, err := calendar.ParseDate(week)
		if err != nil {
			s.writeDomainError(w, engine.Invalid("week", err.Error()))
			return
		}
		plan, err := s.plans.GetByWeek(r.Context(), date)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, []PlanDTO{toPlanDTO(*plan)})
		return
	}

	plans, err := s.plans.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	dtos := make([]PlanDTO, 0, len(plans))
	for _, p := range plans {
		dtos = append(dtos, toPlanDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.plans.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(*plan))
}

func (s *Server) handleAdvancePlanStatus(w http.ResponseWriter, r *http.Request) {
	var req AdvanceStatusRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	plan, err := s.plans.AdvanceStatus(r.Context(), chi.URLParam(r, "id"), roster.PlanStatus(req.Status))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(*plan))
}

func (s *Server) handleAddPlanRow(w http.ResponseWriter, r *http.Request) {
	var req AddRowRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	row, err := s.plans.AddRow(r.Context(), chi.URLParam(r, "id"),
		req.EmployeeID, req.BranchID, req.DayOfWeek, req.StartTime, req.EndTime)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanRowDTO(*row))
}

func (s *Server) handleListPlanRows(w http.ResponseWriter, r *http.Request) {
	rows, err := s.plans.Rows(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	dtos := make([]RowDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, toPlanRowDTO(row))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleRemovePlanRow(w http.ResponseWriter, r *http.Request) {
	if err := s.plans.RemoveRow(r.Context(), chi.URLParam(r, "rowID")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlanSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.plans.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanSummaryDTO(*summary))
}

// =============================================================================
// SPECIAL DAYS / HOLIDAYS
// =============================================================================

func (s *Server) handleAssignSpecialDay(w http.ResponseWriter, r *http.Request) {
	var req AssignSpecialRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		s.writeDomainError(w, engine.Invalid("date", err.Error()))
		return
	}

	assignment, err := s.special.Assign(r.Context(), req.EmployeeID, req.BranchID,
		date, roster.AssignmentType(req.Type), req.StartTime, req.EndTime)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentDTO(*assignment))
}

func (s *Server) handleListSpecialDay(w http.ResponseWriter, r *http.Request) {
	date, err := calendar.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		s.writeDomainError(w, engine.Invalid("date", err.Error()))
		return
	}

	assignments, err := s.special.ListFor(r.Context(), date)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	dtos := make([]AssignmentDTO, 0, len(assignments))
	for _, a := range assignments {
		dtos = append(dtos, toAssignmentDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleUnassignSpecialDay(w http.ResponseWriter, r *http.Request) {
	if err := s.special.Unassign(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		s.writeDomainError(w, engine.Invalid("date", err.Error()))
		return
	}

	holiday, err := s.special.CreateHoliday(r.Context(), date, req.Name, req.Description)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(*holiday))
}

func (s *Server) handleListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := s.special.ListHolidays(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, h := range holidays {
		dtos = append(dtos, toHolidayDTO(h))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleSetHolidayActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	holiday, err := s.special.SetHolidayActive(r.Context(), chi.URLParam(r, "id"), req.Active)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHolidayDTO(*holiday))
}

func (s *Server) handleDeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := s.special.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
