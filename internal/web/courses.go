package web

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"kaoqin/internal/ics"
	appLog "kaoqin/internal/log"
	"kaoqin/internal/model"
)

// maxImportBody bounds uploaded ICS payloads (8 MiB).
const maxImportBody = 8 << 20

type coursesResponse struct {
	Courses []model.Course `json:"courses"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	Size    int            `json:"size"`
}

// handleCoursesList lists stored courses.
//
// GET /api/courses?q=线性代数&semester=...&page=1&size=20
func (s *Server) handleCoursesList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseIntDefault(q.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	size := parseIntDefault(q.Get("size"), 20)
	if size < 1 || size > 200 {
		size = 20
	}

	courses, total, err := s.store.Courses(q.Get("q"), q.Get("semester"), (page-1)*size, size)
	if err != nil {
		appLog.Error("course list failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list courses")
		return
	}
	writeJSON(w, http.StatusOK, coursesResponse{Courses: courses, Total: total, Page: page, Size: size})
}

func (s *Server) handleCourseDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "course id required")
		return
	}
	if _, err := s.store.CourseByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "course not found")
			return
		}
		appLog.Error("course lookup failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete course")
		return
	}
	if err := s.store.DeleteCourse(id); err != nil {
		appLog.Error("course delete failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete course")
		return
	}
	appLog.Info("course deleted", "id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "course_id": id})
}

func (s *Server) handleSemesters(w http.ResponseWriter, _ *http.Request) {
	semesters, err := s.store.Semesters()
	if err != nil {
		appLog.Error("semester list failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list semesters")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"semesters": semesters})
}

// handleImport ingests one uploaded ICS payload. Accepts either a
// multipart form with a "file" field or a raw text/calendar body.
//
// POST /api/import
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := readICSBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sum, err := s.importer.ImportBody(body, ics.Source{ID: "upload"})
	if err != nil {
		appLog.Error("ics upload import failed", err)
		writeError(w, http.StatusUnprocessableEntity, "failed to import calendar")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func readICSBody(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxImportBody)

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New("multipart field 'file' required")
		}
		defer file.Close()
		body, err := io.ReadAll(file)
		if err != nil {
			return nil, errors.New("failed to read uploaded file")
		}
		return body, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.New("failed to read request body")
	}
	if len(body) == 0 {
		return nil, errors.New("empty calendar body")
	}
	return body, nil
}

// handleRefresh re-imports every configured ICS feed now, without waiting
// for the cron schedule.
//
// POST /api/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sum, err := s.importer.RefreshAll(r.Context())
	if err != nil {
		appLog.Error("manual refresh failed", err)
		writeError(w, http.StatusBadGateway, "refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
