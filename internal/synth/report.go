package synth

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/yigit/mentorlink/internal/app/models"
)

// SubjectIssue records why a subject was skipped or its batch failed
type SubjectIssue struct {
	StudentID uuid.UUID
	Err       error
}

// Report summarizes one synthesis run over one metric
type Report struct {
	Metric  models.Metric
	Periods int
	// Subjects is the number of subjects seen
	Subjects int
	// Committed is the number of subjects whose batch was committed
	Committed int
	// Generated counts candidate records, including those of failed batches
	Generated int
	Inserted  int
	Existing  int
	Trends    map[models.TrendClass]int
	Skipped   []SubjectIssue
	Failed    []SubjectIssue
}

func newReport(metric models.Metric, periods int) *Report {
	return &Report{
		Metric:  metric,
		Periods: periods,
		Trends:  make(map[models.TrendClass]int),
	}
}

func (r *Report) commit(b batchResult) {
	r.Committed++
	r.Inserted += b.inserted
	r.Existing += b.existing
}

// TrendShare returns the fraction of committed subjects assigned trend
func (r *Report) TrendShare(trend models.TrendClass) float64 {
	if r.Committed == 0 {
		return 0
	}
	return float64(r.Trends[trend]) / float64(r.Committed)
}

// Err joins the errors of every failed subject, nil when none failed
func (r *Report) Err() error {
	if r == nil || len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("student %s: %w", f.StudentID, f.Err))
	}
	return errors.Join(errs...)
}
