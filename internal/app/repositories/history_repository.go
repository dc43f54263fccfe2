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
)

// TxBeginner opens transactions, satisfied by *pgxpool.Pool and *pgx.Conn
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// HistoryRepository writes GPA and attendance history rows
type HistoryRepository struct {
	db TxBeginner
	sb squirrel.StatementBuilderType
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db TxBeginner) *HistoryRepository {
	return &HistoryRepository{
		db: db,
		sb: statementBuilder(),
	}
}

// Begin opens a transaction for one subject's batch of history rows
func (r *HistoryRepository) Begin(ctx context.Context) (*HistoryTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailed, err)
	}
	return &HistoryTx{tx: tx, sb: r.sb}, nil
}

// HistoryTx inserts history rows inside one transaction
type HistoryTx struct {
	tx pgx.Tx
	sb squirrel.StatementBuilderType
}

// InsertGPARecord inserts rec unless a row for (student, semester) exists
func (t *HistoryTx) InsertGPARecord(ctx context.Context, rec models.GPARecord) (models.InsertResult, error) {
	sql, args, err := t.sb.Insert("gpa_history").
		Columns("student_id", "semester", "gpa", "recorded_at").
		Values(rec.StudentID, rec.Semester, rec.GPA, rec.RecordedAt).
		Suffix("ON CONFLICT (student_id, semester) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert gpa history query: %w", err)
	}
	return t.insert(ctx, sql, args)
}

// InsertAttendanceRecord inserts rec unless a row for (student, month) exists
func (t *HistoryTx) InsertAttendanceRecord(ctx context.Context, rec models.AttendanceRecord) (models.InsertResult, error) {
	sql, args, err := t.sb.Insert("attendance_history").
		Columns("student_id", "month", "attendance_pct", "total_days", "days_present", "days_absent", "recorded_at").
		Values(rec.StudentID, rec.Month, rec.AttendancePct, rec.TotalDays, rec.DaysPresent, rec.DaysAbsent, rec.RecordedAt).
		Suffix("ON CONFLICT (student_id, month) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert attendance history query: %w", err)
	}
	return t.insert(ctx, sql, args)
}

func (t *HistoryTx) insert(ctx context.Context, sql string, args []any) (models.InsertResult, error) {
	var id int64
	err := t.tx.QueryRow(ctx, sql, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.AlreadyExists, nil
	}
	if err != nil {
		return 0, mapWriteError(err)
	}
	return models.Inserted, nil
}

// Commit commits the batch
func (t *HistoryTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", apperrors.ErrPersistenceFailed, err)
	}
	return nil
}

// Rollback discards the batch. It is a no-op once the transaction is closed.
func (t *HistoryTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("%w: rollback: %v", apperrors.ErrPersistenceFailed, err)
	}
	return nil
}

// mapWriteError translates PostgreSQL write failures into application errors
func mapWriteError(err error) error {
	switch {
	case dberrors.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %v", apperrors.ErrStudentNotFound, err)
	case dberrors.IsCheckViolation(err), dberrors.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s", apperrors.ErrConstraintFailed, dberrors.ConstraintName(err))
	default:
		return fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailed, err)
	}
}
