package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	appLog "kaoqin/internal/log"
	"kaoqin/internal/model"
)

// leaveRequest is the POST /api/leaves body.
type leaveRequest struct {
	StudentID string `json:"student_id"`
	LeaveType string `json:"leave_type"` // e.g. 病假 / 事假
	StartDate string `json:"start_date"` // "2006-01-02"
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

// GET /api/leaves?student_id=...&page=1&size=20
func (s *Server) handleLeavesList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseIntDefault(q.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	size := parseIntDefault(q.Get("size"), 20)
	if size < 1 || size > 200 {
		size = 20
	}

	leaves, total, err := s.store.Leaves(q.Get("student_id"), (page-1)*size, size)
	if err != nil {
		appLog.Error("leave list failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list leaves")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"leaves": leaves,
		"total":  total,
		"page":   page,
		"size":   size,
	})
}

// POST /api/leaves records a leave application over an inclusive date range.
func (s *Server) handleLeaveSave(w http.ResponseWriter, r *http.Request) {
	var req leaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.StudentID == "" || req.LeaveType == "" {
		writeError(w, http.StatusBadRequest, "student_id and leave_type required")
		return
	}

	start, err := time.ParseInLocation("2006-01-02", req.StartDate, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.ParseInLocation("2006-01-02", req.EndDate, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end_date before start_date")
		return
	}

	leave := model.LeaveRecord{
		StudentID: req.StudentID,
		LeaveType: req.LeaveType,
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
	}
	if err := s.store.SaveLeave(&leave); err != nil {
		appLog.Error("leave save failed", err, "student", req.StudentID)
		writeError(w, http.StatusInternalServerError, "failed to save leave")
		return
	}
	writeJSON(w, http.StatusOK, leave)
}

// handleLeaveStats summarizes leave applications overlapping one month.
//
// GET /api/leaves/stats?month=2025-10 (defaults to the current month)
func (s *Server) handleLeaveStats(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(s.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := time.ParseInLocation("2006-01", raw, s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		monthStart = m
	}
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Second)

	count, days, err := s.store.LeaveStatsForRange(monthStart, monthEnd)
	if err != nil {
		appLog.Error("leave stats failed", err)
		writeError(w, http.StatusInternalServerError, "failed to compute leave stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month": monthStart.Format("2006-01"),
		"count": count,
		"days":  days,
	})
}

// DELETE /api/leaves/{id}
func (s *Server) handleLeaveDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid leave id")
		return
	}
	if err := s.store.DeleteLeave(id); err != nil {
		appLog.Error("leave delete failed", err, "id", id.String())
		writeError(w, http.StatusInternalServerError, "failed to delete leave")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "leave_id": id.String()})
}
