package web

import (
	"encoding/json"
	"net/http"
	"time"

	appLog "kaoqin/internal/log"
	"kaoqin/internal/model"
)

// attendanceMark is one student's mark in a batch submission.
type attendanceMark struct {
	StudentID      string               `json:"student_id"`
	AttendanceType model.AttendanceType `json:"attendance_type"`
	LateMinutes    int                  `json:"late_minutes"`
	Note           string               `json:"note"`
}

// attendanceBatch is the POST /api/attendance request body: one round of
// marks for a course on a date.
type attendanceBatch struct {
	CourseID string           `json:"course_id"`
	Date     string           `json:"date"` // "2006-01-02"
	Marks    []attendanceMark `json:"marks"`
}

func validMarkType(t model.AttendanceType) bool {
	switch t {
	case model.AttendanceNormal, model.AttendanceLate, model.AttendanceEarlyLeave,
		model.AttendanceAbsent, model.AttendanceOnLeave:
		return true
	}
	return false
}

// handleAttendanceSave stores one roll-call round. Earlier marks for the
// same student × course × date are replaced.
func (s *Server) handleAttendanceSave(w http.ResponseWriter, r *http.Request) {
	var batch attendanceBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if batch.CourseID == "" || len(batch.Marks) == 0 {
		writeError(w, http.StatusBadRequest, "course_id and marks required")
		return
	}

	date, err := time.ParseInLocation("2006-01-02", batch.Date, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	records := make([]model.Attendance, 0, len(batch.Marks))
	for _, mark := range batch.Marks {
		if mark.StudentID == "" || !validMarkType(mark.AttendanceType) {
			writeError(w, http.StatusBadRequest, "each mark needs student_id and a valid attendance_type")
			return
		}
		late := 0
		if mark.AttendanceType == model.AttendanceLate && mark.LateMinutes > 0 {
			late = mark.LateMinutes
		}
		records = append(records, model.Attendance{
			StudentID:      mark.StudentID,
			CourseID:       batch.CourseID,
			AttendanceDate: date,
			AttendanceType: mark.AttendanceType,
			LateMinutes:    late,
			Note:           mark.Note,
		})
	}

	if err := s.store.SaveAttendanceBatch(records); err != nil {
		appLog.Error("attendance batch save failed", err, "course", batch.CourseID)
		writeError(w, http.StatusInternalServerError, "failed to save attendance")
		return
	}
	appLog.Info("attendance saved", "course", batch.CourseID, "date", batch.Date, "marks", len(records))
	writeJSON(w, http.StatusOK, map[string]any{"status": "saved", "count": len(records)})
}

// handleAttendanceList lists marks.
//
// GET /api/attendance?course_id=CS101-1-0800&date=2025-10-13
// GET /api/attendance?date=2025-10-13
func (s *Server) handleAttendanceList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	courseID := q.Get("course_id")

	var date *time.Time
	if raw := q.Get("date"); raw != "" {
		d, err := time.ParseInLocation("2006-01-02", raw, s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = &d
	}

	var (
		records []model.Attendance
		err     error
	)
	switch {
	case courseID != "":
		records, err = s.store.AttendanceForCourse(courseID, date)
	case date != nil:
		records, err = s.store.AttendanceOnDate(*date)
	default:
		writeError(w, http.StatusBadRequest, "course_id or date required")
		return
	}
	if err != nil {
		appLog.Error("attendance list failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records, "total": len(records)})
}

// handleAttendanceStats returns per-type counts for one course.
//
// GET /api/attendance/stats?course_id=CS101-1-0800
func (s *Server) handleAttendanceStats(w http.ResponseWriter, r *http.Request) {
	courseID := r.URL.Query().Get("course_id")
	if courseID == "" {
		writeError(w, http.StatusBadRequest, "course_id required")
		return
	}

	stats, err := s.store.CourseAttendanceStats(courseID)
	if err != nil {
		appLog.Error("attendance stats failed", err, "course", courseID)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	var total int64
	for _, n := range stats {
		total += n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"course_id": courseID,
		"total":     total,
		"by_type":   stats,
	})
}
