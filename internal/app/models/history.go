package models

import (
	"time"

	"github.com/google/uuid"
)

// GPARecord is one semester of GPA history, stored in 'gpa_history'
type GPARecord struct {
	StudentID  uuid.UUID `json:"studentId" db:"student_id"`
	Semester   string    `json:"semester" db:"semester"`
	GPA        float64   `json:"gpa" db:"gpa"`
	RecordedAt time.Time `json:"recordedAt" db:"recorded_at"`
}

// AttendanceRecord is one month of attendance history, stored in 'attendance_history'.
// DaysPresent + DaysAbsent always equals TotalDays.
type AttendanceRecord struct {
	StudentID     uuid.UUID `json:"studentId" db:"student_id"`
	Month         string    `json:"month" db:"month"`
	AttendancePct float64   `json:"attendancePct" db:"attendance_pct"`
	TotalDays     int       `json:"totalDays" db:"total_days"`
	DaysPresent   int       `json:"daysPresent" db:"days_present"`
	DaysAbsent    int       `json:"daysAbsent" db:"days_absent"`
	RecordedAt    time.Time `json:"recordedAt" db:"recorded_at"`
}

// Consistent reports whether the day counts satisfy the additive invariant
func (r AttendanceRecord) Consistent() bool {
	return r.DaysPresent >= 0 && r.DaysAbsent >= 0 && r.DaysPresent+r.DaysAbsent == r.TotalDays
}

// PeriodAverage is one row of the per-period average report
type PeriodAverage struct {
	Period  string  `json:"period" db:"period"`
	Records int64   `json:"records" db:"records"`
	Average float64 `json:"average" db:"average"`
}

// HistoryCheck holds the post-run validation counts for one history table
type HistoryCheck struct {
	Table              string          `json:"table"`
	Rows               int64           `json:"rows"`
	NullValues         int64           `json:"nullValues"`
	OutOfRange         int64           `json:"outOfRange"`
	AdditiveViolations int64           `json:"additiveViolations"`
	Averages           []PeriodAverage `json:"averages"`
}
