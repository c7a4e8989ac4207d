package model

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceType is the recorded outcome of one student × course × date.
type AttendanceType string

const (
	AttendanceNormal     AttendanceType = "正常"
	AttendanceLate       AttendanceType = "迟到"
	AttendanceEarlyLeave AttendanceType = "早退"
	AttendanceAbsent     AttendanceType = "缺席"
	AttendanceOnLeave    AttendanceType = "请假"
)

// Course is one weekly meeting pattern of a taught course. A course that
// meets at two different times carries two rows with distinct IDs
// (see importer: the ID encodes code, weekday and start time).
type Course struct {
	CourseID    string `json:"course_id" gorm:"type:varchar(40);primaryKey;column:course_id"`
	CourseName  string `json:"course_name" gorm:"type:varchar(100);not null;column:course_name"`
	TeacherName string `json:"teacher_name" gorm:"type:varchar(50);not null;column:teacher_name"`
	// CourseTime is the free-text schedule string, e.g. "周一3-4节" or
	// "周三 08:00-09:40". Parsed at render time by internal/schedule.
	CourseTime  string `json:"course_time" gorm:"type:varchar(50);not null;column:course_time"`
	CoursePlace string `json:"course_place" gorm:"type:varchar(50);column:course_place"`
	Semester    string `json:"semester" gorm:"type:varchar(30);not null;column:semester"`
	// WeekRange is the compact week-range notation, e.g. "1-8,13,15,17".
	// Empty means the course meets every week.
	WeekRange string `json:"week_range" gorm:"type:varchar(50);column:week_range"`
}

func (Course) TableName() string { return "course" }

// Student is one enrolled student.
type Student struct {
	StudentID       string    `json:"student_id" gorm:"type:varchar(20);primaryKey;column:student_id"`
	StudentName     string    `json:"student_name" gorm:"type:varchar(50);not null;column:student_name"`
	PoliticalStatus string    `json:"political_status" gorm:"type:varchar(20);column:political_status"`
	Phone           string    `json:"phone" gorm:"type:varchar(20);column:phone"`
	CreateTime      time.Time `json:"create_time" gorm:"column:create_time;autoCreateTime"`
}

func (Student) TableName() string { return "student" }

// Attendance is one mark for a student in a course on a date.
type Attendance struct {
	AttendanceID   uuid.UUID      `json:"attendance_id" gorm:"type:uuid;primaryKey;column:attendance_id"`
	StudentID      string         `json:"student_id" gorm:"type:varchar(20);not null;index;column:student_id"`
	CourseID       string         `json:"course_id" gorm:"type:varchar(40);not null;index;column:course_id"`
	AttendanceDate time.Time      `json:"attendance_date" gorm:"type:date;not null;column:attendance_date"`
	AttendanceType AttendanceType `json:"attendance_type" gorm:"type:varchar(20);not null;column:attendance_type"`
	// LateMinutes is only meaningful when AttendanceType is AttendanceLate.
	LateMinutes int       `json:"late_minutes" gorm:"column:late_minutes;default:0"`
	Note        string    `json:"note" gorm:"type:varchar(200);column:attendance_note"`
	CreateTime  time.Time `json:"create_time" gorm:"column:create_time;autoCreateTime"`
}

func (Attendance) TableName() string { return "attendance" }

// LeaveRecord is one leave application covering an inclusive date range.
type LeaveRecord struct {
	LeaveID    uuid.UUID `json:"leave_id" gorm:"type:uuid;primaryKey;column:leave_id"`
	StudentID  string    `json:"student_id" gorm:"type:varchar(20);not null;index;column:student_id"`
	LeaveType  string    `json:"leave_type" gorm:"type:varchar(20);not null;column:leave_type"`
	StartDate  time.Time `json:"start_date" gorm:"type:date;not null;column:leave_start_date"`
	EndDate    time.Time `json:"end_date" gorm:"type:date;not null;column:leave_end_date"`
	Days       int       `json:"days" gorm:"column:leave_days;not null"`
	Reason     string    `json:"reason" gorm:"type:varchar(500);column:leave_reason"`
	CreateTime time.Time `json:"create_time" gorm:"column:create_time;autoCreateTime"`
}

func (LeaveRecord) TableName() string { return "leave_record" }

// User is a login account for the admin UI.
type User struct {
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey;column:user_id"`
	Username     string    `json:"username" gorm:"type:varchar(50);uniqueIndex;not null;column:username"`
	PasswordHash string    `json:"-" gorm:"type:varchar(100);not null;column:password_hash"`
	Role         string    `json:"role" gorm:"type:varchar(20);default:user;column:role"`
	IsActive     bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string { return "app_user" }

// Occurrence represents a single concrete class meeting, after recurrence
// expansion and timezone normalization of the source calendar.
type Occurrence struct {
	SourceID string // calendar source ID (e.g., config ICS ID)
	UID      string // iCalendar UID

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, derived from the local start time.
	InstanceKey string

	Summary     string
	Description string
	Location    string

	AllDay bool

	// Start / End are in the configured display timezone.
	Start time.Time
	End   time.Time
}
