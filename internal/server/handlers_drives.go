package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/placement-tracker/internal/db"
	"github.com/jonathan/placement-tracker/internal/types"
)

// parseQueryInt parses an integer query parameter with default and max values.
func parseQueryInt(r *http.Request, key string, defaultValue, maxValue int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		return defaultValue
	}
	if maxValue > 0 && val > maxValue {
		return maxValue
	}
	return val
}

// parseQueryFloat parses a float query parameter, zero when absent or invalid.
func parseQueryFloat(r *http.Request, key string) float64 {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return 0
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil || val < 0 {
		return 0
	}
	return val
}

// validStatuses are the lifecycle values the status filter accepts.
var validStatuses = map[types.DriveStatus]bool{
	types.StatusUpcoming:  true,
	types.StatusOpen:      true,
	types.StatusClosed:    true,
	types.StatusCancelled: true,
}

// handleListDrives lists drives with optional filters. Each returned drive
// carries its derived lifecycle status rather than the stored column.
func (s *Server) handleListDrives(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	driveType := q.Get("drive_type")
	if driveType != "" {
		parsed, ok := types.ParseDriveType(driveType)
		if !ok {
			s.errorResponse(w, http.StatusBadRequest, "Invalid drive_type: "+driveType)
			return
		}
		driveType = string(parsed)
	}

	status := q.Get("status")
	if status != "" && !validStatuses[types.DriveStatus(status)] {
		s.errorResponse(w, http.StatusBadRequest, "Invalid status: "+status)
		return
	}

	filters := db.DriveFilters{
		Company:       q.Get("company"),
		Batch:         q.Get("batch"),
		DriveType:     driveType,
		Status:        status,
		MinConfidence: parseQueryFloat(r, "min_confidence"),
		Limit:         parseQueryInt(r, "limit", 50, 200),
		Offset:        parseQueryInt(r, "offset", 0, 0),
	}

	drives, err := s.store.ListDrives(r.Context(), filters)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	total, err := s.store.CountDrives(r.Context(), filters)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	now := time.Now()
	for i := range drives {
		drives[i].Status = drives[i].DerivedStatus(now)
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"drives": drives,
		"total":  total,
		"limit":  filters.Limit,
		"offset": filters.Offset,
	})
}

// handleGetDrive retrieves a single drive by ID.
func (s *Server) handleGetDrive(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	driveID, err := uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid drive ID")
		return
	}

	drive, err := s.store.GetDriveByID(r.Context(), driveID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if drive == nil {
		s.errorResponse(w, http.StatusNotFound, "Drive not found")
		return
	}

	drive.Status = drive.DerivedStatus(time.Now())
	s.jsonResponse(w, http.StatusOK, drive)
}

// handleListCompanies returns the distinct company names for filter dropdowns.
func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.store.ListCompanies(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"companies": companies,
		"count":     len(companies),
	})
}

// handleListBatches returns the distinct batches for filter dropdowns.
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.store.ListBatches(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"batches": batches,
		"count":   len(batches),
	})
}
