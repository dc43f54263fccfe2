// Package synthtest provides an in-memory history store for tests.
package synthtest

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/yigit/mentorlink/internal/app/models"
	"github.com/yigit/mentorlink/internal/pkg/apperrors"
	"github.com/yigit/mentorlink/internal/synth"
)

// ErrInjected is returned for students registered with FailFor
var ErrInjected = errors.New("injected persistence failure")

var errTxClosed = errors.New("tx is closed")

type rowKey struct {
	student uuid.UUID
	period  string
}

// MemoryStore keeps students and history rows in memory and mimics the
// insert-or-ignore semantics of the SQL repository.
type MemoryStore struct {
	mu         sync.Mutex
	students   []models.Student
	gpa        map[rowKey]models.GPARecord
	attendance map[rowKey]models.AttendanceRecord
	failFor    map[uuid.UUID]error
	BeginErr   error
	Commits    int
	Rollbacks  int
}

// NewMemoryStore creates an empty store holding students
func NewMemoryStore(students ...models.Student) *MemoryStore {
	return &MemoryStore{
		students:   students,
		gpa:        make(map[rowKey]models.GPARecord),
		attendance: make(map[rowKey]models.AttendanceRecord),
		failFor:    make(map[uuid.UUID]error),
	}
}

// FailFor makes every insert for id fail with err (ErrInjected when err is nil)
func (m *MemoryStore) FailFor(id uuid.UUID, err error) {
	if err == nil {
		err = ErrInjected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFor[id] = err
}

// ReadSubjectsWithMetric returns students whose metric is not NULL
func (m *MemoryStore) ReadSubjectsWithMetric(_ context.Context, metric models.Metric) ([]models.Student, error) {
	if !metric.Valid() {
		return nil, apperrors.ErrUnknownMetric
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Student
	for _, s := range m.students {
		if s.Value(metric) != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

// Begin opens a buffered transaction
func (m *MemoryStore) Begin(_ context.Context) (synth.Tx, error) {
	if m.BeginErr != nil {
		return nil, m.BeginErr
	}
	return &memTx{store: m}, nil
}

// GPARecords returns the committed GPA rows for id, oldest first
func (m *MemoryStore) GPARecords(id uuid.UUID) []models.GPARecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GPARecord
	for k, r := range m.gpa {
		if k.student == id {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out
}

// AttendanceRecords returns the committed attendance rows for id, oldest first
func (m *MemoryStore) AttendanceRecords(id uuid.UUID) []models.AttendanceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AttendanceRecord
	for k, r := range m.attendance {
		if k.student == id {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out
}

// RowCounts returns the number of committed GPA and attendance rows
func (m *MemoryStore) RowCounts() (gpa, attendance int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.gpa), len(m.attendance)
}

// CheckGPAHistory computes the validation counts over committed GPA rows
func (m *MemoryStore) CheckGPAHistory(_ context.Context) (models.HistoryCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	check := models.HistoryCheck{Table: "gpa_history", Rows: int64(len(m.gpa))}
	sums := map[string]*models.PeriodAverage{}
	for _, r := range m.gpa {
		if r.GPA < models.MinGPA || r.GPA > models.MaxGPA {
			check.OutOfRange++
		}
		addAverage(sums, r.Semester, r.GPA)
	}
	check.Averages = finishAverages(sums)
	return check, nil
}

// CheckAttendanceHistory computes the validation counts over committed attendance rows
func (m *MemoryStore) CheckAttendanceHistory(_ context.Context) (models.HistoryCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	check := models.HistoryCheck{Table: "attendance_history", Rows: int64(len(m.attendance))}
	sums := map[string]*models.PeriodAverage{}
	for _, r := range m.attendance {
		if r.AttendancePct < models.MinAttendance || r.AttendancePct > models.MaxAttendance {
			check.OutOfRange++
		}
		if !r.Consistent() {
			check.AdditiveViolations++
		}
		addAverage(sums, r.Month, r.AttendancePct)
	}
	check.Averages = finishAverages(sums)
	return check, nil
}

func addAverage(sums map[string]*models.PeriodAverage, period string, v float64) {
	avg, ok := sums[period]
	if !ok {
		avg = &models.PeriodAverage{Period: period}
		sums[period] = avg
	}
	avg.Records++
	avg.Average += v
}

func finishAverages(sums map[string]*models.PeriodAverage) []models.PeriodAverage {
	out := make([]models.PeriodAverage, 0, len(sums))
	for _, avg := range sums {
		avg.Average /= float64(avg.Records)
		out = append(out, *avg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

type memTx struct {
	store      *MemoryStore
	gpa        []models.GPARecord
	attendance []models.AttendanceRecord
	closed     bool
}

func (tx *memTx) failure(id uuid.UUID) error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	return tx.store.failFor[id]
}

func (tx *memTx) InsertGPARecord(_ context.Context, rec models.GPARecord) (models.InsertResult, error) {
	if tx.closed {
		return 0, errTxClosed
	}
	if err := tx.failure(rec.StudentID); err != nil {
		return 0, err
	}
	tx.store.mu.Lock()
	_, exists := tx.store.gpa[rowKey{rec.StudentID, rec.Semester}]
	tx.store.mu.Unlock()
	for _, pending := range tx.gpa {
		if pending.StudentID == rec.StudentID && pending.Semester == rec.Semester {
			exists = true
		}
	}
	if exists {
		return models.AlreadyExists, nil
	}
	tx.gpa = append(tx.gpa, rec)
	return models.Inserted, nil
}

func (tx *memTx) InsertAttendanceRecord(_ context.Context, rec models.AttendanceRecord) (models.InsertResult, error) {
	if tx.closed {
		return 0, errTxClosed
	}
	if err := tx.failure(rec.StudentID); err != nil {
		return 0, err
	}
	tx.store.mu.Lock()
	_, exists := tx.store.attendance[rowKey{rec.StudentID, rec.Month}]
	tx.store.mu.Unlock()
	for _, pending := range tx.attendance {
		if pending.StudentID == rec.StudentID && pending.Month == rec.Month {
			exists = true
		}
	}
	if exists {
		return models.AlreadyExists, nil
	}
	tx.attendance = append(tx.attendance, rec)
	return models.Inserted, nil
}

func (tx *memTx) Commit(_ context.Context) error {
	if tx.closed {
		return errTxClosed
	}
	tx.closed = true
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	for _, r := range tx.gpa {
		tx.store.gpa[rowKey{r.StudentID, r.Semester}] = r
	}
	for _, r := range tx.attendance {
		tx.store.attendance[rowKey{r.StudentID, r.Month}] = r
	}
	tx.store.Commits++
	return nil
}

func (tx *memTx) Rollback(_ context.Context) error {
	if tx.closed {
		return nil
	}
	tx.closed = true
	tx.store.mu.Lock()
	tx.store.Rollbacks++
	tx.store.mu.Unlock()
	return nil
}
