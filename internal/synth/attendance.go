package synth

import (
	"math"

	"github.com/google/uuid"
	"github.com/yigit/mentorlink/internal/app/models"
)

// Attendance walk parameters, in percentage points
const (
	baseAttendanceCap = 95.0
	baseJitter        = 2.5
	monthlyNoise      = 4.0
	minGenerated      = 45.0
	maxGenerated      = 100.0
	referenceGPA      = 3.0
)

// schoolDays are the possible totals of school days in a month
var schoolDays = []int{20, 21, 22}

// BaseAttendance derives the level a subject's monthly attendance fluctuates around:
// min(95, current + U(-2.5, 2.5)), nudged by (gpa - 3.0) * GPANudge when the subject has a GPA.
func (s *Synthesizer) BaseAttendance(current float64, gpa *float64) float64 {
	base := current + Uniform(s.rng, -baseJitter, baseJitter)
	if gpa != nil && s.gpaNudge != 0 {
		if g, err := checkValue(gpa, models.MinGPA, models.MaxGPA); err == nil {
			base += (g - referenceGPA) * s.gpaNudge
		}
	}
	return math.Min(baseAttendanceCap, base)
}

// AttendanceHistory builds one record per month, oldest first.
//
// Every month but the last is base * seasonal multiplier plus U(-4, 4) noise, clamped to
// [45, 100] and rounded to two decimals. The last month is the anchor and carries current exactly.
func (s *Synthesizer) AttendanceHistory(studentID uuid.UUID, base, current float64, periods []string) []models.AttendanceRecord {
	records := make([]models.AttendanceRecord, len(periods))
	last := len(periods) - 1

	for i, label := range periods {
		pct := current
		if i < last {
			pct = base*s.seasonal.Multiplier(label) + Uniform(s.rng, -monthlyNoise, monthlyNoise)
			pct = Round2(Clamp(pct, minGenerated, maxGenerated))
		}

		total := schoolDays[s.rng.IntN(len(schoolDays))]
		present := int(math.Round(pct / 100 * float64(total)))
		records[i] = models.AttendanceRecord{
			StudentID:     studentID,
			Month:         label,
			AttendancePct: pct,
			TotalDays:     total,
			DaysPresent:   present,
			DaysAbsent:    total - present,
			RecordedAt:    s.calendar.RecordedAt(label),
		}
	}

	return records
}

// validAttendanceRecord checks bounds and the additive day invariant
func validAttendanceRecord(rec models.AttendanceRecord) bool {
	return rec.AttendancePct >= models.MinAttendance &&
		rec.AttendancePct <= models.MaxAttendance &&
		rec.Consistent()
}
