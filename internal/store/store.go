// Package store persists the attendance domain records in PostgreSQL.
// The schedule engine itself never touches this package; it receives
// course records from here through plain slices.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appLog "kaoqin/internal/log"
	"kaoqin/internal/model"
)

// Store wraps the gorm handle with the queries the web layer needs.
type Store struct {
	db *gorm.DB
}

// Open connects to PostgreSQL and migrates the schema.
// PreferSimpleProtocol keeps the driver compatible with transaction-pooling
// PgBouncer setups.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("store: empty DSN")
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)

	if err := db.AutoMigrate(
		&model.Course{},
		&model.Student{},
		&model.Attendance{},
		&model.LeaveRecord{},
		&model.User{},
	); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	appLog.Info("database connected")
	return &Store{db: db}, nil
}

// --- courses ---

// Courses lists courses matching the optional search term (id, name or
// teacher substring) and semester filter, with pagination.
func (s *Store) Courses(search, semester string, offset, limit int) ([]model.Course, int64, error) {
	q := s.db.Model(&model.Course{})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("course_id LIKE ? OR course_name LIKE ? OR teacher_name LIKE ?", like, like, like)
	}
	if semester != "" {
		q = q.Where("semester = ?", semester)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []model.Course
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Order("course_id").Find(&courses).Error; err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// AllCourses returns every course, optionally restricted to one semester.
// The timetable builder consumes this unfiltered; week filtering happens
// in the grid layer.
func (s *Store) AllCourses(semester string) ([]model.Course, error) {
	q := s.db.Model(&model.Course{})
	if semester != "" {
		q = q.Where("semester = ?", semester)
	}
	var courses []model.Course
	err := q.Order("course_id").Find(&courses).Error
	return courses, err
}

func (s *Store) CourseByID(id string) (*model.Course, error) {
	var course model.Course
	if err := s.db.First(&course, "course_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *Store) DeleteCourse(id string) error {
	// Attendance rows for the course go with it.
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", id).Delete(&model.Attendance{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Course{}, "course_id = ?", id).Error
	})
}

// UpsertCourses inserts or updates imported course records, returning how
// many were newly created vs refreshed.
func (s *Store) UpsertCourses(courses []model.Course) (created, updated int, err error) {
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, course := range courses {
			var existing model.Course
			ferr := tx.First(&existing, "course_id = ?", course.CourseID).Error
			switch {
			case ferr == nil:
				if uerr := tx.Model(&model.Course{}).
					Where("course_id = ?", course.CourseID).
					Updates(map[string]any{
						"course_name":  course.CourseName,
						"teacher_name": course.TeacherName,
						"course_time":  course.CourseTime,
						"course_place": course.CoursePlace,
						"semester":     course.Semester,
						"week_range":   course.WeekRange,
					}).Error; uerr != nil {
					return uerr
				}
				updated++
			case errors.Is(ferr, gorm.ErrRecordNotFound):
				if cerr := tx.Create(&course).Error; cerr != nil {
					return cerr
				}
				created++
			default:
				return ferr
			}
		}
		return nil
	})
	return created, updated, err
}

// Semesters returns the distinct semester labels, newest first.
func (s *Store) Semesters() ([]string, error) {
	var semesters []string
	err := s.db.Model(&model.Course{}).
		Distinct("semester").
		Where("semester <> ''").
		Order("semester DESC").
		Pluck("semester", &semesters).Error
	return semesters, err
}

// --- students ---

func (s *Store) Students(search string, offset, limit int) ([]model.Student, int64, error) {
	q := s.db.Model(&model.Student{})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("student_id LIKE ? OR student_name LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var students []model.Student
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Order("student_id").Find(&students).Error; err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

func (s *Store) StudentByID(id string) (*model.Student, error) {
	var student model.Student
	if err := s.db.First(&student, "student_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

// SaveStudent inserts the student, or updates the mutable fields when the
// student number already exists.
func (s *Store) SaveStudent(student *model.Student) error {
	var existing model.Student
	err := s.db.First(&existing, "student_id = ?", student.StudentID).Error
	switch {
	case err == nil:
		return s.db.Model(&model.Student{}).
			Where("student_id = ?", student.StudentID).
			Updates(map[string]any{
				"student_name":     student.StudentName,
				"political_status": student.PoliticalStatus,
				"phone":            student.Phone,
			}).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.Create(student).Error
	default:
		return err
	}
}

func (s *Store) DeleteStudent(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", id).Delete(&model.Attendance{}).Error; err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", id).Delete(&model.LeaveRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Student{}, "student_id = ?", id).Error
	})
}

// --- attendance ---

// SaveAttendanceBatch stores one round of marks for a course on a date,
// replacing any earlier marks for the same student × course × date.
func (s *Store) SaveAttendanceBatch(records []model.Attendance) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for i := range records {
			r := &records[i]
			if r.AttendanceID == uuid.Nil {
				r.AttendanceID = uuid.New()
			}
			if err := tx.Where(
				"student_id = ? AND course_id = ? AND attendance_date = ?",
				r.StudentID, r.CourseID, r.AttendanceDate,
			).Delete(&model.Attendance{}).Error; err != nil {
				return err
			}
			if err := tx.Create(r).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AttendanceForCourse lists a course's marks, optionally for one date,
// newest date first.
func (s *Store) AttendanceForCourse(courseID string, date *time.Time) ([]model.Attendance, error) {
	q := s.db.Where("course_id = ?", courseID)
	if date != nil {
		q = q.Where("attendance_date = ?", *date)
	}
	var records []model.Attendance
	err := q.Order("attendance_date DESC, student_id").Find(&records).Error
	return records, err
}

// AttendanceOnDate lists every mark recorded for the given date.
func (s *Store) AttendanceOnDate(date time.Time) ([]model.Attendance, error) {
	var records []model.Attendance
	err := s.db.Where("attendance_date = ?", date).
		Order("course_id, student_id").
		Find(&records).Error
	return records, err
}

// CourseAttendanceStats counts a course's marks by type.
func (s *Store) CourseAttendanceStats(courseID string) (map[model.AttendanceType]int64, error) {
	type row struct {
		AttendanceType model.AttendanceType
		N              int64
	}
	var rows []row
	err := s.db.Model(&model.Attendance{}).
		Select("attendance_type, COUNT(*) AS n").
		Where("course_id = ?", courseID).
		Group("attendance_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := make(map[model.AttendanceType]int64, len(rows))
	for _, r := range rows {
		stats[r.AttendanceType] = r.N
	}
	return stats, nil
}

// --- leave records ---

func (s *Store) Leaves(studentID string, offset, limit int) ([]model.LeaveRecord, int64, error) {
	q := s.db.Model(&model.LeaveRecord{})
	if studentID != "" {
		q = q.Where("student_id = ?", studentID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var leaves []model.LeaveRecord
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Order("leave_start_date DESC").Find(&leaves).Error; err != nil {
		return nil, 0, err
	}
	return leaves, total, nil
}

// SaveLeave validates and stores one leave application. The inclusive day
// count is derived from the date range.
func (s *Store) SaveLeave(leave *model.LeaveRecord) error {
	if leave.EndDate.Before(leave.StartDate) {
		return errors.New("store: leave end date before start date")
	}
	if leave.LeaveID == uuid.Nil {
		leave.LeaveID = uuid.New()
	}
	leave.Days = int(leave.EndDate.Sub(leave.StartDate).Hours()/24) + 1
	return s.db.Create(leave).Error
}

func (s *Store) DeleteLeave(id uuid.UUID) error {
	return s.db.Delete(&model.LeaveRecord{}, "leave_id = ?", id).Error
}

// LeaveStatsForRange sums leave records overlapping [start, end]: how many
// applications and how many total leave days. Used for the monthly view.
func (s *Store) LeaveStatsForRange(start, end time.Time) (count int64, days int64, err error) {
	type row struct {
		N    int64
		Days int64
	}
	var r row
	err = s.db.Model(&model.LeaveRecord{}).
		Select("COUNT(*) AS n, COALESCE(SUM(leave_days), 0) AS days").
		Where("leave_start_date <= ? AND leave_end_date >= ?", end, start).
		Scan(&r).Error
	if err != nil {
		return 0, 0, err
	}
	return r.N, r.Days, nil
}

// ActiveLeaveCount counts leave records covering the given date.
func (s *Store) ActiveLeaveCount(on time.Time) (int64, error) {
	var n int64
	err := s.db.Model(&model.LeaveRecord{}).
		Where("leave_start_date <= ? AND leave_end_date >= ?", on, on).
		Count(&n).Error
	return n, err
}

// --- dashboard ---

// Totals returns the student and course counts.
func (s *Store) Totals() (students, courses int64, err error) {
	if err = s.db.Model(&model.Student{}).Count(&students).Error; err != nil {
		return 0, 0, err
	}
	if err = s.db.Model(&model.Course{}).Count(&courses).Error; err != nil {
		return 0, 0, err
	}
	return students, courses, nil
}
