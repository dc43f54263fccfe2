package seed

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/mentorlink/internal/app/models"
	"github.com/yigit/mentorlink/internal/synth"
)

// Summary is the end-of-run report printed by the seeder
type Summary struct {
	RunID       uuid.UUID
	Seed        uint64
	Started     time.Time
	Duration    time.Duration
	GPA         *synth.Report
	Attendance  *synth.Report
	Checks      []models.HistoryCheck
	CheckErrors []error
}

func (s *Summary) reports() []*synth.Report {
	var out []*synth.Report
	for _, r := range []*synth.Report{s.GPA, s.Attendance} {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// FailedSubjects is the number of subject batches that were rolled back
func (s *Summary) FailedSubjects() int {
	n := 0
	for _, r := range s.reports() {
		n += len(r.Failed)
	}
	return n
}

// SubjectErrors joins the errors of every failed subject across both metrics
func (s *Summary) SubjectErrors() error {
	var errs []error
	for _, r := range s.reports() {
		if err := r.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Metric, err))
		}
	}
	return errors.Join(errs...)
}

// Write prints the summary as aligned tables
func (s *Summary) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "History seeding summary")
	fmt.Fprintf(tw, "run id\t%s\n", s.RunID)
	fmt.Fprintf(tw, "seed\t%d\n", s.Seed)
	fmt.Fprintf(tw, "duration\t%s\n", s.Duration.Round(time.Millisecond))

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "METRIC\tPERIODS\tSUBJECTS\tCOMMITTED\tSKIPPED\tFAILED\tGENERATED\tINSERTED\tEXISTING")
	for _, r := range s.reports() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			r.Metric, r.Periods, r.Subjects, r.Committed, len(r.Skipped), len(r.Failed), r.Generated, r.Inserted, r.Existing)
	}

	if s.GPA != nil {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "TREND\tSUBJECTS\tSHARE")
		for _, trend := range models.TrendClasses {
			fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", trend, s.GPA.Trends[trend], s.GPA.TrendShare(trend)*100)
		}
	}

	if len(s.Checks) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "TABLE\tROWS\tNULL\tOUT OF RANGE\tADDITIVE VIOLATIONS")
		for _, c := range s.Checks {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", c.Table, c.Rows, c.NullValues, c.OutOfRange, c.AdditiveViolations)
		}

		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "TABLE\tPERIOD\tRECORDS\tAVERAGE")
		for _, c := range s.Checks {
			for _, avg := range c.Averages {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\n", c.Table, avg.Period, avg.Records, avg.Average)
			}
		}
	}

	for _, err := range s.CheckErrors {
		fmt.Fprintf(tw, "\ncheck error: %v\n", err)
	}
	if n := s.FailedSubjects(); n > 0 {
		fmt.Fprintf(tw, "\n%d subject batch(es) rolled back:\n", n)
		for _, r := range s.reports() {
			for _, f := range r.Failed {
				fmt.Fprintf(tw, "  %s\t%s\t%v\n", r.Metric, f.StudentID, f.Err)
			}
		}
	}

	return tw.Flush()
}
