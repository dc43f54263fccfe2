package models

import (
	"time"

	"github.com/google/uuid"
)

// Student defines the student model based on the 'students' table.
// GPA and AttendancePct are nil when the column is NULL.
type Student struct {
	ID            uuid.UUID `json:"id" db:"id"`
	FullName      string    `json:"fullName" db:"full_name"`
	Email         string    `json:"email" db:"email"`
	GPA           *float64  `json:"gpa,omitempty" db:"gpa"`
	AttendancePct *float64  `json:"attendancePct,omitempty" db:"attendance_pct"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// Value returns the student's current value for metric, or nil when absent
func (s Student) Value(metric Metric) *float64 {
	switch metric {
	case MetricGPA:
		return s.GPA
	case MetricAttendance:
		return s.AttendancePct
	default:
		return nil
	}
}
