package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	appLog "kaoqin/internal/log"
	"kaoqin/internal/model"
)

type studentsResponse struct {
	Students []model.Student `json:"students"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	Size     int             `json:"size"`
}

// GET /api/students?q=张&page=1&size=20
func (s *Server) handleStudentsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseIntDefault(q.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	size := parseIntDefault(q.Get("size"), 20)
	if size < 1 || size > 200 {
		size = 20
	}

	students, total, err := s.store.Students(q.Get("q"), (page-1)*size, size)
	if err != nil {
		appLog.Error("student list failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list students")
		return
	}
	writeJSON(w, http.StatusOK, studentsResponse{Students: students, Total: total, Page: page, Size: size})
}

func (s *Server) handleStudentGet(w http.ResponseWriter, r *http.Request) {
	student, err := s.store.StudentByID(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "student not found")
			return
		}
		appLog.Error("student lookup failed", err)
		writeError(w, http.StatusInternalServerError, "failed to load student")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

// POST /api/students creates or replaces a student by student number.
func (s *Server) handleStudentSave(w http.ResponseWriter, r *http.Request) {
	var student model.Student
	if err := json.NewDecoder(r.Body).Decode(&student); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if student.StudentID == "" || student.StudentName == "" {
		writeError(w, http.StatusBadRequest, "student_id and student_name required")
		return
	}
	if err := s.store.SaveStudent(&student); err != nil {
		appLog.Error("student save failed", err, "id", student.StudentID)
		writeError(w, http.StatusInternalServerError, "failed to save student")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

// PUT /api/students/{id} updates a student; the path ID wins over any ID
// in the body.
func (s *Server) handleStudentUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.StudentByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "student not found")
			return
		}
		appLog.Error("student lookup failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to update student")
		return
	}

	var student model.Student
	if err := json.NewDecoder(r.Body).Decode(&student); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	student.StudentID = id
	if student.StudentName == "" {
		writeError(w, http.StatusBadRequest, "student_name required")
		return
	}
	if err := s.store.SaveStudent(&student); err != nil {
		appLog.Error("student update failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to update student")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

// DELETE /api/students/{id} removes the student together with their
// attendance and leave records.
func (s *Server) handleStudentDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.StudentByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "student not found")
			return
		}
		appLog.Error("student lookup failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete student")
		return
	}
	if err := s.store.DeleteStudent(id); err != nil {
		appLog.Error("student delete failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete student")
		return
	}
	appLog.Info("student deleted", "id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "student_id": id})
}
