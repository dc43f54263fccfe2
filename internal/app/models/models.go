package models

// Metric names a current-snapshot column on the students table
type Metric string

const (
	MetricGPA        Metric = "gpa"
	MetricAttendance Metric = "attendance_pct"
)

// Valid reports whether m is a known metric
func (m Metric) Valid() bool {
	return m == MetricGPA || m == MetricAttendance
}

// Domain bounds for stored values
const (
	MinGPA        = 0.0
	MaxGPA        = 4.0
	MinAttendance = 0.0
	MaxAttendance = 100.0
)

// TrendClass is the direction bias applied to a generated series
type TrendClass string

const (
	TrendImproving TrendClass = "improving"
	TrendStable    TrendClass = "stable"
	TrendDeclining TrendClass = "declining"
)

// TrendClasses lists every trend class in report order
var TrendClasses = []TrendClass{TrendImproving, TrendStable, TrendDeclining}

// InsertResult is the outcome of an idempotent insert
type InsertResult int

const (
	// Inserted means a new row was created
	Inserted InsertResult = iota + 1
	// AlreadyExists means a row with the same (student, period) key was already present
	AlreadyExists
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case AlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}
