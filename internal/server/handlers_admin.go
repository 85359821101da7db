package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jonathan/placement-tracker/internal/pipeline"
	syncpkg "github.com/jonathan/placement-tracker/internal/sync"
	"github.com/jonathan/placement-tracker/internal/types"
)

// handleTriggerSync runs one sync cycle immediately and returns its summary.
func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Sync is not configured")
		return
	}

	summary, err := s.syncer.RunCycle(r.Context())
	if err != nil {
		if errors.Is(err, syncpkg.ErrLeaseHeld) {
			s.errorResponse(w, http.StatusConflict, "A sync cycle is already running")
			return
		}
		var batchErr *pipeline.BatchError
		if errors.As(err, &batchErr) {
			s.jsonResponse(w, http.StatusBadGateway, map[string]any{
				"error":   batchErr.Error(),
				"summary": summary,
			})
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "Sync failed: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"summary": summary})
}

// handleProcessMessage pushes a single raw message through the pipeline,
// bypassing the mailbox. Useful for reprocessing and manual submissions.
func (s *Server) handleProcessMessage(w http.ResponseWriter, r *http.Request) {
	if s.processor == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Processing is not configured")
		return
	}

	var msg types.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if msg.ExternalID == "" {
		s.errorResponse(w, http.StatusBadRequest, "external_id is required")
		return
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now().UTC()
	}

	outcome := s.processor.ProcessMessage(r.Context(), msg)
	if outcome.Err != nil {
		s.jsonResponse(w, http.StatusInternalServerError, map[string]any{
			"status": string(outcome.Status),
			"error":  outcome.Err.Error(),
		})
		return
	}

	resp := map[string]any{
		"status":   string(outcome.Status),
		"degraded": outcome.Degraded,
	}
	if outcome.Reason != "" {
		resp["reason"] = outcome.Reason
	}
	if outcome.Drive != nil {
		resp["drive"] = outcome.Drive
	}
	s.jsonResponse(w, http.StatusOK, resp)
}
