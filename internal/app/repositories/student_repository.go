package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/mentorlink/internal/app/models"
	"github.com/yigit/mentorlink/internal/pkg/apperrors"
	"github.com/yigit/mentorlink/internal/pkg/dberrors"
	"github.com/yigit/mentorlink/internal/pkg/logger"
)

var studentColumns = []string{"id", "full_name", "email", "gpa", "attendance_pct", "created_at"}

// StudentRepository handles student database operations
type StudentRepository struct {
	db Querier
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db Querier) *StudentRepository {
	return &StudentRepository{
		db: db,
		sb: statementBuilder(),
	}
}

// WithTx returns a copy of the repository that runs its queries on tx
func (r *StudentRepository) WithTx(tx pgx.Tx) *StudentRepository {
	return &StudentRepository{db: tx, sb: r.sb}
}

// Count returns the number of rows in the students table
func (r *StudentRepository) Count(ctx context.Context) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").From("students").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count students query: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		logger.Error().Err(err).Msg("Error counting students")
		return 0, fmt.Errorf("error counting students: %w", err)
	}
	return count, nil
}

// CreateStudent inserts a student unless one with the same email exists.
// The generated id is written back to student on insert.
func (r *StudentRepository) CreateStudent(ctx context.Context, student *models.Student) (models.InsertResult, error) {
	sql, args, err := r.sb.Insert("students").
		Columns("full_name", "email", "gpa", "attendance_pct").
		Values(student.FullName, student.Email, student.GPA, student.AttendancePct).
		Suffix("ON CONFLICT (email) DO NOTHING RETURNING id, created_at").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create student query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&student.ID, &student.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		logger.Debug().Str("email", student.Email).Msg("Student already exists, skipping")
		return models.AlreadyExists, nil
	case dberrors.IsCheckViolation(err):
		return 0, fmt.Errorf("%w: %s", apperrors.ErrConstraintFailed, dberrors.ConstraintName(err))
	case err != nil:
		logger.Error().Err(err).Str("email", student.Email).Msg("Error executing create student query")
		return 0, fmt.Errorf("error creating student: %w", err)
	}

	return models.Inserted, nil
}

// ReadSubjectsWithMetric returns every student whose metric column is not NULL, ordered by email
func (r *StudentRepository) ReadSubjectsWithMetric(ctx context.Context, metric models.Metric) ([]models.Student, error) {
	if !metric.Valid() {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownMetric, metric)
	}

	sql, args, err := r.sb.Select(studentColumns...).
		From("students").
		Where(squirrel.NotEq{string(metric): nil}).
		OrderBy("email ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build read subjects query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("metric", string(metric)).Msg("Error querying subjects")
		return nil, fmt.Errorf("error querying subjects: %w", err)
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(&s.ID, &s.FullName, &s.Email, &s.GPA, &s.AttendancePct, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning student row: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student rows: %w", err)
	}

	return students, nil
}
