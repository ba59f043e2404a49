/*
timeoff_handlers.go - Time-off validation and lifecycle endpoints

PURPOSE:
  Exposes the conflict engine over HTTP. Validation is a dry run that
  never writes; submission persists a pending request; approve/reject
  are the scheduler's decisions.

KIOSK SCOPING:
  Kiosk tokens identify one employee (the token subject). A kiosk caller
  may only validate and submit for itself, so the employee id in the body
  is overwritten with the subject before the service sees it.
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/scheduling-engine/calendar"
	"github.com/warp/scheduling-engine/engine"
	"github.com/warp/scheduling-engine/timeoff"
)

func parseDateRange(start, end string) (calendar.DateRange, error) {
	from, err := calendar.ParseDate(start)
	if err != nil {
		return calendar.DateRange{}, engine.Invalid("date_start", err.Error())
	}
	to, err := calendar.ParseDate(end)
	if err != nil {
		return calendar.DateRange{}, engine.Invalid("date_end", err.Error())
	}
	return calendar.DateRange{Start: from, End: to}, nil
}

// scopeToKiosk returns the employee id the caller is allowed to act as.
func scopeToKiosk(r *http.Request, requested string) string {
	claims := ClaimsFrom(r.Context())
	if claims != nil && claims.Role == RoleKiosk {
		return claims.Subject
	}
	return requested
}

func (s *Server) handleValidateTimeOff(w http.ResponseWriter, r *http.Request) {
	var req ValidateTimeOffRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rng, err := parseDateRange(req.DateStart, req.DateEnd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	result, err := s.validator.Validate(r.Context(), scopeToKiosk(r, req.EmployeeID), rng)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toValidationResultDTO(result))
}

func (s *Server) handleSubmitTimeOff(w http.ResponseWriter, r *http.Request) {
	var req SubmitTimeOffRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rng, err := parseDateRange(req.DateStart, req.DateEnd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	submission, err := s.timeoff.Submit(r.Context(), scopeToKiosk(r, req.EmployeeID), rng, req.Reason)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SubmissionDTO{
		Request:         toTimeOffRequestDTO(submission.Request),
		PendingOverlaps: toSummaryDTOs(submission.PendingOverlaps),
	})
}

func (s *Server) handleGetTimeOffRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.timeoff.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimeOffRequestDTO(*req))
}

func (s *Server) handleListTimeOffRequests(w http.ResponseWriter, r *http.Request) {
	// ?employee_id= lists one employee's history; default is the pending queue.
	employeeID := r.URL.Query().Get("employee_id")

	claims := ClaimsFrom(r.Context())
	if claims != nil && claims.Role == RoleKiosk {
		employeeID = claims.Subject
	}

	var requests []timeoff.Request
	var err error
	if employeeID != "" {
		requests, err = s.timeoff.ListByEmployee(r.Context(), employeeID)
	} else {
		requests, err = s.timeoff.ListPending(r.Context())
	}
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	dtos := make([]TimeOffRequestDTO, 0, len(requests))
	for _, req := range requests {
		dtos = append(dtos, toTimeOffRequestDTO(req))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleApproveTimeOff(w http.ResponseWriter, r *http.Request) {
	req, err := s.timeoff.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimeOffRequestDTO(*req))
}

func (s *Server) handleRejectTimeOff(w http.ResponseWriter, r *http.Request) {
	var body RejectTimeOffRequest
	if err := decodeValid(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	req, err := s.timeoff.Reject(r.Context(), chi.URLParam(r, "id"), body.Note)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimeOffRequestDTO(*req))
}
