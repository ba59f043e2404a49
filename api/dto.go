/*
dto.go - Request/response structures for the HTTP surface

PURPOSE:
  Decouples the wire contract from the domain types. Request bodies carry
  validator/v10 tags; structural validation happens at decode time so the
  services only ever see well-formed input or their own precondition
  checks.

NAMING CONVENTION:
  - *DTO:     response types returned to clients
  - *Request: request body types from clients
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/warp/scheduling-engine/directory"
	"github.com/warp/scheduling-engine/roster"
	"github.com/warp/scheduling-engine/timeoff"
)

var validate = validator.New()

// decodeValid decodes a JSON body and runs struct validation.
func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Reason  string `json:"reason,omitempty"`

	// Conflicts carries the colliding peers on 409 responses.
	Conflicts []RequestSummaryDTO `json:"conflicts,omitempty"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	BranchID string `json:"branch_id"`
}

type CreateEmployeeRequest struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Position string `json:"position" validate:"required"`
	BranchID string `json:"branch_id" validate:"required"`
}

func toEmployeeDTO(e directory.Employee) EmployeeDTO {
	return EmployeeDTO{ID: e.ID, Name: e.Name, Position: e.Position, BranchID: e.BranchID}
}

// =============================================================================
// TEMPLATES
// =============================================================================

type TemplateDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type CreateTemplateRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type RowDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	BranchID   string `json:"branch_id"`
	DayOfWeek  int    `json:"day_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

type AddRowRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	BranchID   string `json:"branch_id" validate:"required"`
	DayOfWeek  int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime  string `json:"start_time" validate:"required"`
	EndTime    string `json:"end_time" validate:"required"`
}

func toTemplateDTO(t roster.ShiftTemplate) TemplateDTO {
	return TemplateDTO{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Active:      t.Active,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
}

func toTemplateRowDTO(r roster.TemplateRow) RowDTO {
	return RowDTO{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		BranchID:   r.BranchID,
		DayOfWeek:  r.DayOfWeek,
		StartTime:  r.Start.String(),
		EndTime:    r.End.String(),
	}
}

// =============================================================================
// PLANS
// =============================================================================

type PlanDTO struct {
	ID               string  `json:"id"`
	WeekStart        string  `json:"week_start"`
	SourceTemplateID *string `json:"source_template_id,omitempty"`
	Status           string  `json:"status"`
	Notes            string  `json:"notes,omitempty"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

type CreatePlanRequest struct {
	WeekStart        string  `json:"week_start" validate:"required"`
	SourceTemplateID *string `json:"source_template_id"`
	Notes            string  `json:"notes"`
}

type AdvanceStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft sent confirmed"`
}

type PlanSummaryDTO struct {
	PlanID     string              `json:"plan_id"`
	WeekStart  string              `json:"week_start"`
	Employees  []EmployeeHoursDTO  `json:"employees"`
	TotalHours string              `json:"total_hours"`
}

type EmployeeHoursDTO struct {
	EmployeeID string `json:"employee_id"`
	Shifts     int    `json:"shifts"`
	Hours      string `json:"hours"`
}

func toPlanDTO(p roster.WeeklyPlan) PlanDTO {
	return PlanDTO{
		ID:               p.ID,
		WeekStart:        p.WeekStart.String(),
		SourceTemplateID: p.SourceTemplateID,
		Status:           string(p.Status),
		Notes:            p.Notes,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        p.UpdatedAt.Format(time.RFC3339),
	}
}

func toPlanRowDTO(r roster.PlanRow) RowDTO {
	return RowDTO{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		BranchID:   r.BranchID,
		DayOfWeek:  r.DayOfWeek,
		StartTime:  r.Start.String(),
		EndTime:    r.End.String(),
	}
}

func toPlanSummaryDTO(s roster.PlanSummary) PlanSummaryDTO {
	dto := PlanSummaryDTO{
		PlanID:     s.PlanID,
		WeekStart:  s.WeekStart,
		TotalHours: s.TotalHours.String(),
		Employees:  make([]EmployeeHoursDTO, 0, len(s.Employees)),
	}
	for _, eh := range s.Employees {
		dto.Employees = append(dto.Employees, EmployeeHoursDTO{
			EmployeeID: eh.EmployeeID,
			Shifts:     eh.Shifts,
			Hours:      eh.Hours.String(),
		})
	}
	return dto
}

// =============================================================================
// SPECIAL DAYS / HOLIDAYS
// =============================================================================

type AssignmentDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	BranchID   string `json:"branch_id"`
	Date       string `json:"date"`
	Type       string `json:"type"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

type AssignSpecialRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	BranchID   string `json:"branch_id" validate:"required"`
	Date       string `json:"date" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=sunday holiday"`
	StartTime  string `json:"start_time" validate:"required"`
	EndTime    string `json:"end_time" validate:"required"`
}

type HolidayDTO struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

type CreateHolidayRequest struct {
	Date        string `json:"date" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func toAssignmentDTO(a roster.SpecialAssignment) AssignmentDTO {
	return AssignmentDTO{
		ID:         a.ID,
		EmployeeID: a.EmployeeID,
		BranchID:   a.BranchID,
		Date:       a.Date.String(),
		Type:       string(a.Type),
		StartTime:  a.Start.String(),
		EndTime:    a.End.String(),
	}
}

func toHolidayDTO(h roster.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:          h.ID,
		Date:        h.Date.String(),
		Name:        h.Name,
		Description: h.Description,
		Active:      h.Active,
	}
}

// =============================================================================
// TIME OFF
// =============================================================================

type TimeOffRequestDTO struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	DateStart    string `json:"date_start"`
	DateEnd      string `json:"date_end"`
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
	RequestedAt  string `json:"requested_at"`
	AgeDays      int    `json:"age_days"`
	DecidedAt    string `json:"decided_at,omitempty"`
	DecisionNote string `json:"decision_note,omitempty"`
}

type RequestSummaryDTO struct {
	RequestID    string `json:"request_id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	DateStart    string `json:"date_start"`
	DateEnd      string `json:"date_end"`
	Status       string `json:"status"`
}

type ValidateTimeOffRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	DateStart  string `json:"date_start" validate:"required"`
	DateEnd    string `json:"date_end" validate:"required"`
}

type SubmitTimeOffRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	DateStart  string `json:"date_start" validate:"required"`
	DateEnd    string `json:"date_end" validate:"required"`
	Reason     string `json:"reason"`
}

type RejectTimeOffRequest struct {
	Note string `json:"note"`
}

// ValidationResultDTO is the classified admission decision.
type ValidationResultDTO struct {
	Outcome       string              `json:"outcome"`
	Reason        string              `json:"reason,omitempty"`
	ReasonMessage string              `json:"reason_message,omitempty"`
	Conflicts     []RequestSummaryDTO `json:"conflicts,omitempty"`
	Pending       []RequestSummaryDTO `json:"pending,omitempty"`
}

// SubmissionDTO is the created request plus advisory overlaps.
type SubmissionDTO struct {
	Request         TimeOffRequestDTO   `json:"request"`
	PendingOverlaps []RequestSummaryDTO `json:"pending_overlaps,omitempty"`
}

func toTimeOffRequestDTO(r timeoff.Request) TimeOffRequestDTO {
	dto := TimeOffRequestDTO{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		DateStart:    r.DateStart.String(),
		DateEnd:      r.DateEnd.String(),
		Status:       string(r.Status),
		Reason:       r.Reason,
		RequestedAt:  r.RequestedAt.Format(time.RFC3339),
		AgeDays:      r.Age(time.Now().UTC()),
		DecisionNote: r.DecisionNote,
	}
	if r.DecidedAt != nil {
		dto.DecidedAt = r.DecidedAt.Format(time.RFC3339)
	}
	return dto
}

func toSummaryDTOs(summaries []timeoff.RequestSummary) []RequestSummaryDTO {
	if len(summaries) == 0 {
		return nil
	}
	dtos := make([]RequestSummaryDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = RequestSummaryDTO{
			RequestID:    s.RequestID,
			EmployeeID:   s.EmployeeID,
			EmployeeName: s.EmployeeName,
			DateStart:    s.DateStart.String(),
			DateEnd:      s.DateEnd.String(),
			Status:       string(s.Status),
		}
	}
	return dtos
}

func toValidationResultDTO(res *timeoff.Result) ValidationResultDTO {
	dto := ValidationResultDTO{
		Outcome:   string(res.Outcome),
		Conflicts: toSummaryDTOs(res.Conflicts),
		Pending:   toSummaryDTOs(res.Pending),
	}
	if res.Outcome == timeoff.OutcomeInvalid {
		dto.Reason = string(res.Reason)
		dto.ReasonMessage = res.Reason.Message()
	}
	return dto
}
