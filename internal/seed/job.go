package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/mentorlink/internal/app/models"
	"github.com/yigit/mentorlink/internal/synth"
)

// SubjectReader loads the students that carry a metric
type SubjectReader interface {
	ReadSubjectsWithMetric(ctx context.Context, metric models.Metric) ([]models.Student, error)
}

// HistoryChecker runs the post-run validation aggregates
type HistoryChecker interface {
	CheckGPAHistory(ctx context.Context) (models.HistoryCheck, error)
	CheckAttendanceHistory(ctx context.Context) (models.HistoryCheck, error)
}

// Job runs GPA synthesis, then attendance synthesis, then the validation checks
type Job struct {
	Subjects         SubjectReader
	Checker          HistoryChecker
	Synthesizer      *synth.Synthesizer
	GPAPeriods       []string
	AttendanceMonths []string
	Seed             uint64
	Logger           zerolog.Logger
	Now              func() time.Time
}

// Run executes the job. Per-subject failures do not fail the run and show up in the
// summary. A returned error means the run was aborted and the summary is partial.
func (j *Job) Run(ctx context.Context) (*Summary, error) {
	now := j.Now
	if now == nil {
		now = time.Now
	}

	summary := &Summary{
		RunID:   uuid.New(),
		Seed:    j.Seed,
		Started: now(),
	}
	lgr := j.Logger.With().Str("runID", summary.RunID.String()).Logger()
	lgr.Info().Uint64("seed", j.Seed).Msg("History seeding started")
	defer func() { summary.Duration = now().Sub(summary.Started) }()

	var err error
	summary.GPA, err = j.synthesize(ctx, models.MetricGPA, j.GPAPeriods, j.Synthesizer.SynthesizeGPAHistory)
	if err != nil {
		return summary, err
	}
	summary.Attendance, err = j.synthesize(ctx, models.MetricAttendance, j.AttendanceMonths, j.Synthesizer.SynthesizeAttendanceHistory)
	if err != nil {
		return summary, err
	}

	if check, err := j.Checker.CheckGPAHistory(ctx); err != nil {
		lgr.Warn().Err(err).Msg("GPA history check failed")
		summary.CheckErrors = append(summary.CheckErrors, err)
	} else {
		summary.Checks = append(summary.Checks, check)
	}
	if check, err := j.Checker.CheckAttendanceHistory(ctx); err != nil {
		lgr.Warn().Err(err).Msg("Attendance history check failed")
		summary.CheckErrors = append(summary.CheckErrors, err)
	} else {
		summary.Checks = append(summary.Checks, check)
	}

	if err := summary.SubjectErrors(); err != nil {
		lgr.Warn().Int("failed", summary.FailedSubjects()).Msg("History seeding finished with failed subjects")
	} else {
		lgr.Info().Msg("History seeding finished")
	}
	return summary, nil
}

type synthesizeFn func(ctx context.Context, subjects []models.Student, periods []string) (*synth.Report, error)

func (j *Job) synthesize(ctx context.Context, metric models.Metric, periods []string, fn synthesizeFn) (*synth.Report, error) {
	subjects, err := j.Subjects.ReadSubjectsWithMetric(ctx, metric)
	if err != nil {
		return nil, fmt.Errorf("read %s subjects: %w", metric, err)
	}
	report, err := fn(ctx, subjects, periods)
	if err != nil {
		return report, fmt.Errorf("synthesize %s history: %w", metric, err)
	}
	return report, nil
}
