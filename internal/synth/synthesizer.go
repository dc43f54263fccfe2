package synth

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/mentorlink/internal/app/models"
	"github.com/yigit/mentorlink/internal/pkg/apperrors"
)

// Tx is one subject's unit of work. Rollback after a successful Commit must be a no-op.
type Tx interface {
	InsertGPARecord(ctx context.Context, rec models.GPARecord) (models.InsertResult, error)
	InsertAttendanceRecord(ctx context.Context, rec models.AttendanceRecord) (models.InsertResult, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store opens per-subject transactions
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Options configures a Synthesizer. Zero values select the defaults.
type Options struct {
	Random    Random
	Calendar  Calendar
	Seasonal  SeasonalTable
	Weights   TrendWeights
	GPANudge  float64
	TxTimeout time.Duration
	Logger    zerolog.Logger
}

// Synthesizer generates and persists GPA and attendance history.
// It is not safe for concurrent use.
type Synthesizer struct {
	store     Store
	rng       Random
	calendar  Calendar
	seasonal  SeasonalTable
	weights   TrendWeights
	gpaNudge  float64
	txTimeout time.Duration
	logger    zerolog.Logger
}

// NewSynthesizer creates a new Synthesizer writing to store
func NewSynthesizer(store Store, opts Options) *Synthesizer {
	if opts.Random == nil {
		opts.Random = NewRandom(uint64(time.Now().UnixNano()))
	}
	if opts.Seasonal == nil {
		opts.Seasonal = SeasonalTable{}
	}
	if opts.Weights.total() <= 0 {
		opts.Weights = DefaultTrendWeights
	}
	if opts.TxTimeout <= 0 {
		opts.TxTimeout = 30 * time.Second
	}
	return &Synthesizer{
		store:     store,
		rng:       opts.Random,
		calendar:  opts.Calendar,
		seasonal:  opts.Seasonal,
		weights:   opts.Weights,
		gpaNudge:  opts.GPANudge,
		txTimeout: opts.TxTimeout,
		logger:    opts.Logger,
	}
}

// SynthesizeGPAHistory generates GPA history for every subject with a usable current GPA.
// periods is ordered oldest first and its last label is the current semester.
func (s *Synthesizer) SynthesizeGPAHistory(ctx context.Context, subjects []models.Student, periods []string) (*Report, error) {
	if len(periods) == 0 {
		return nil, apperrors.ErrNoPeriods
	}

	report := newReport(models.MetricGPA, len(periods))
	s.logger.Info().Int("subjects", len(subjects)).Strs("periods", periods).Msg("Synthesizing GPA history")

	for _, subject := range subjects {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Subjects++

		current, err := checkValue(subject.GPA, models.MinGPA, models.MaxGPA)
		if err != nil {
			s.skip(report, subject.ID, err)
			continue
		}

		trend := DrawTrend(s.rng, s.weights)
		records := s.GPAHistory(subject.ID, current, trend, periods)
		report.Generated += len(records)

		batch, err := s.persist(ctx, len(records), func(ctx context.Context, tx Tx, i int) (models.InsertResult, error) {
			if !validGPARecord(records[i]) {
				return 0, fmt.Errorf("%w: gpa %.2f for %s", apperrors.ErrInvalidMetric, records[i].GPA, records[i].Semester)
			}
			return tx.InsertGPARecord(ctx, records[i])
		})
		if err != nil {
			s.fail(report, subject.ID, err)
			continue
		}

		report.commit(batch)
		report.Trends[trend]++
		s.logger.Debug().
			Str("studentID", subject.ID.String()).
			Str("trend", string(trend)).
			Int("inserted", batch.inserted).
			Int("existing", batch.existing).
			Msg("GPA history stored")
	}

	return report, nil
}

// SynthesizeAttendanceHistory generates monthly attendance history for every subject with a
// usable current attendance. periods is ordered oldest first and its last label is the current month.
func (s *Synthesizer) SynthesizeAttendanceHistory(ctx context.Context, subjects []models.Student, periods []string) (*Report, error) {
	if len(periods) == 0 {
		return nil, apperrors.ErrNoPeriods
	}

	report := newReport(models.MetricAttendance, len(periods))
	s.logger.Info().Int("subjects", len(subjects)).Strs("months", periods).Msg("Synthesizing attendance history")

	for _, subject := range subjects {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Subjects++

		current, err := checkValue(subject.AttendancePct, models.MinAttendance, models.MaxAttendance)
		if err != nil {
			s.skip(report, subject.ID, err)
			continue
		}

		base := s.BaseAttendance(current, subject.GPA)
		records := s.AttendanceHistory(subject.ID, base, current, periods)
		report.Generated += len(records)

		batch, err := s.persist(ctx, len(records), func(ctx context.Context, tx Tx, i int) (models.InsertResult, error) {
			if !validAttendanceRecord(records[i]) {
				return 0, fmt.Errorf("%w: attendance %.2f (%d+%d/%d) for %s", apperrors.ErrInvalidMetric,
					records[i].AttendancePct, records[i].DaysPresent, records[i].DaysAbsent, records[i].TotalDays, records[i].Month)
			}
			return tx.InsertAttendanceRecord(ctx, records[i])
		})
		if err != nil {
			s.fail(report, subject.ID, err)
			continue
		}

		report.commit(batch)
		s.logger.Debug().
			Str("studentID", subject.ID.String()).
			Float64("base", base).
			Int("inserted", batch.inserted).
			Int("existing", batch.existing).
			Msg("Attendance history stored")
	}

	return report, nil
}

type batchResult struct {
	inserted int
	existing int
}

type insertFn func(ctx context.Context, tx Tx, i int) (models.InsertResult, error)

// persist writes n records inside one transaction. Any error rolls the whole batch back.
func (s *Synthesizer) persist(ctx context.Context, n int, insert insertFn) (batchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return batchResult{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var batch batchResult
	for i := 0; i < n; i++ {
		res, err := insert(ctx, tx, i)
		if err != nil {
			return batchResult{}, err
		}
		switch res {
		case models.Inserted:
			batch.inserted++
		case models.AlreadyExists:
			batch.existing++
		default:
			return batchResult{}, fmt.Errorf("%w: unexpected insert result %d", apperrors.ErrPersistenceFailed, res)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return batchResult{}, fmt.Errorf("commit transaction: %w", err)
	}
	return batch, nil
}

func (s *Synthesizer) skip(report *Report, id uuid.UUID, err error) {
	report.Skipped = append(report.Skipped, SubjectIssue{StudentID: id, Err: err})
	s.logger.Warn().Err(err).Str("studentID", id.String()).Str("metric", string(report.Metric)).Msg("Skipping subject with unusable metric")
}

func (s *Synthesizer) fail(report *Report, id uuid.UUID, err error) {
	report.Failed = append(report.Failed, SubjectIssue{StudentID: id, Err: err})
	s.logger.Error().Err(err).Str("studentID", id.String()).Str("metric", string(report.Metric)).Msg("Subject batch rolled back")
}

// checkValue validates a current metric value against its domain bounds
func checkValue(v *float64, lo, hi float64) (float64, error) {
	if v == nil {
		return 0, apperrors.ErrMissingMetric
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < lo || *v > hi {
		return 0, fmt.Errorf("%w: %v outside [%g, %g]", apperrors.ErrInvalidMetric, *v, lo, hi)
	}
	return *v, nil
}
