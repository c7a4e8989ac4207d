package web

import (
	"encoding/json"
	"net/http"
	"time"

	appLog "kaoqin/internal/log"
	"kaoqin/internal/model"
)

// dashboardResponse is the JSON shape for /api/stats.
type dashboardResponse struct {
	Students int64 `json:"students"`
	Courses  int64 `json:"courses"`
	// Week is the current semester week; 0 when outside the semester.
	Week int `json:"week"`
	// TodayAttendance is how many marks were recorded today, with the
	// per-type split alongside.
	TodayAttendance int                            `json:"today_attendance"`
	TodayByType     map[model.AttendanceType]int64 `json:"today_by_type"`
	// ActiveLeaves counts leave records covering today.
	ActiveLeaves int64 `json:"active_leaves"`
}

// handleDashboardStats returns the landing-page counters.
func (s *Server) handleDashboardStats(w http.ResponseWriter, _ *http.Request) {
	students, courses, err := s.store.Totals()
	if err != nil {
		appLog.Error("dashboard totals failed", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	now := time.Now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	marks, err := s.store.AttendanceOnDate(today)
	if err != nil {
		appLog.Error("dashboard attendance count failed", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	activeLeaves, err := s.store.ActiveLeaveCount(today)
	if err != nil {
		appLog.Error("dashboard leave count failed", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	byType := make(map[model.AttendanceType]int64)
	for _, mark := range marks {
		byType[mark.AttendanceType]++
	}

	week, _ := s.calendar.WeekNumber(now)

	writeJSON(w, http.StatusOK, dashboardResponse{
		Students:        students,
		Courses:         courses,
		Week:            week,
		TodayAttendance: len(marks),
		TodayByType:     byType,
		ActiveLeaves:    activeLeaves,
	})
}

// userCreateRequest is the POST /api/users body.
type userCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// handleUserCreate registers a login account. Once at least one account
// exists, API credentials are checked against the user store.
func (s *Server) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	var req userCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	user, err := s.store.CreateUser(req.Username, req.Password, req.Role)
	if err != nil {
		appLog.Error("user create failed", err, "username", req.Username)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	// Invalidate the auth cache so the new account takes effect at once.
	s.usersMu.Lock()
	s.usersCache = &hasUsersCache{hasUsers: true, updatedAt: time.Now()}
	s.usersMu.Unlock()

	appLog.Info("user created", "username", user.Username, "role", user.Role)
	writeJSON(w, http.StatusCreated, user)
}
