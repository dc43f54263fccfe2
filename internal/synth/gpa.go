package synth

import (
	"github.com/google/uuid"
	"github.com/yigit/mentorlink/internal/app/models"
)

// GPAHistory builds one record per period, oldest first.
//
// The walk starts at the last (current) period, which carries current unchanged,
// and steps back in time applying the trend's backward delta. Every earlier value is
// clamped to [0, 4] and rounded to two decimals before it is emitted.
func (s *Synthesizer) GPAHistory(studentID uuid.UUID, current float64, trend models.TrendClass, periods []string) []models.GPARecord {
	records := make([]models.GPARecord, len(periods))
	gpa := current

	for i := len(periods) - 1; i >= 0; i-- {
		if i < len(periods)-1 {
			gpa = Round2(Clamp(gpa, models.MinGPA, models.MaxGPA))
		}
		records[i] = models.GPARecord{
			StudentID:  studentID,
			Semester:   periods[i],
			GPA:        gpa,
			RecordedAt: s.calendar.RecordedAt(periods[i]),
		}
		if i > 0 {
			gpa += backwardDelta(s.rng, trend)
		}
	}

	return records
}

// validGPARecord checks the bounds a GPA record must respect before it is stored
func validGPARecord(rec models.GPARecord) bool {
	return rec.GPA >= models.MinGPA && rec.GPA <= models.MaxGPA
}
