/*
respond.go - JSON response helpers and domain-error mapping

PURPOSE:
  One place that knows how domain outcomes translate to HTTP. Handlers
  call writeJSON for success paths and writeDomainError for anything a
  service returned, so status-code policy never leaks into handlers.

MAPPING:
  validation error      -> 400
  unknown entity        -> 404
  conflict              -> 409 (with the colliding peers when known)
  policy rejection      -> 422 (submission was well-formed but refused)
  anything else         -> 500
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/warp/scheduling-engine/engine"
	"github.com/warp/scheduling-engine/timeoff"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError classifies a service error into an HTTP response.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var policyErr *timeoff.PolicyError
	if errors.As(err, &policyErr) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "rejected by policy",
			Reason:  string(policyErr.Reason),
			Details: policyErr.Reason.Message(),
		})
		return
	}

	var conflictErr *engine.ConflictError
	if errors.As(err, &conflictErr) {
		resp := ErrorResponse{Error: "conflict", Details: conflictErr.Msg}
		if summaries, ok := conflictErr.Detail.([]timeoff.RequestSummary); ok {
			resp.Conflicts = toSummaryDTOs(summaries)
		}
		writeJSON(w, http.StatusConflict, resp)
		return
	}

	switch {
	case engine.IsValidation(err):
		writeError(w, http.StatusBadRequest, "invalid request", err)
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found", err)
	case engine.IsConflict(err):
		writeError(w, http.StatusConflict, "conflict", err)
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}
