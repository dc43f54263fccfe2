package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/mentorlink/internal/app/models"
	"github.com/yigit/mentorlink/internal/pkg/logger"
)

// historyTable describes the columns a validation pass reads from one history table
type historyTable struct {
	name     string
	period   string
	value    string
	min, max float64
	additive bool
}

var (
	gpaTable        = historyTable{name: "gpa_history", period: "semester", value: "gpa", min: models.MinGPA, max: models.MaxGPA}
	attendanceTable = historyTable{name: "attendance_history", period: "month", value: "attendance_pct", min: models.MinAttendance, max: models.MaxAttendance, additive: true}
)

// ReportRepository runs the post-run validation aggregates
type ReportRepository struct {
	db Querier
	sb squirrel.StatementBuilderType
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db Querier) *ReportRepository {
	return &ReportRepository{
		db: db,
		sb: statementBuilder(),
	}
}

// CheckGPAHistory counts NULL and out-of-range GPA rows and averages GPA per semester
func (r *ReportRepository) CheckGPAHistory(ctx context.Context) (models.HistoryCheck, error) {
	return r.check(ctx, gpaTable)
}

// CheckAttendanceHistory counts NULL, out-of-range and inconsistent attendance rows
// and averages attendance per month
func (r *ReportRepository) CheckAttendanceHistory(ctx context.Context) (models.HistoryCheck, error) {
	return r.check(ctx, attendanceTable)
}

func (r *ReportRepository) check(ctx context.Context, t historyTable) (models.HistoryCheck, error) {
	check := models.HistoryCheck{Table: t.name}

	additive := "0"
	if t.additive {
		additive = "COUNT(*) FILTER (WHERE days_present + days_absent <> total_days)"
	}
	sql, args, err := r.sb.Select(
		"COUNT(*)",
		fmt.Sprintf("COUNT(*) FILTER (WHERE %s IS NULL)", t.value),
		fmt.Sprintf("COUNT(*) FILTER (WHERE %s < %g OR %s > %g)", t.value, t.min, t.value, t.max),
		additive,
	).From(t.name).ToSql()
	if err != nil {
		return check, fmt.Errorf("failed to build %s check query: %w", t.name, err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&check.Rows, &check.NullValues, &check.OutOfRange, &check.AdditiveViolations)
	if err != nil {
		logger.Error().Err(err).Str("table", t.name).Msg("Error running history check")
		return check, fmt.Errorf("error checking %s: %w", t.name, err)
	}

	check.Averages, err = r.averages(ctx, t)
	if err != nil {
		return check, err
	}
	return check, nil
}

func (r *ReportRepository) averages(ctx context.Context, t historyTable) ([]models.PeriodAverage, error) {
	sql, args, err := r.sb.Select(t.period, "COUNT(*)", fmt.Sprintf("COALESCE(AVG(%s), 0)::float8", t.value)).
		From(t.name).
		GroupBy(t.period).
		OrderBy("MIN(recorded_at) ASC", t.period+" ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s averages query: %w", t.name, err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying %s averages: %w", t.name, err)
	}
	defer rows.Close()

	averages := []models.PeriodAverage{}
	for rows.Next() {
		var avg models.PeriodAverage
		if err := rows.Scan(&avg.Period, &avg.Records, &avg.Average); err != nil {
			return nil, fmt.Errorf("error scanning %s average row: %w", t.name, err)
		}
		averages = append(averages, avg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s average rows: %w", t.name, err)
	}
	return averages, nil
}
