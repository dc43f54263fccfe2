package synth_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/mentorlink/internal/app/models"
	"github.com/yigit/mentorlink/internal/pkg/apperrors"
	"github.com/yigit/mentorlink/internal/synth"
	"github.com/yigit/mentorlink/internal/synth/synthtest"
)

var (
	semesters = []string{"Fall 2023", "Spring 2024", "Fall 2024", "Spring 2025"}
	months    = []string{"2025-01", "2025-02", "2025-03", "2025-04", "2025-05", "2025-06"}
)

func ptr(v float64) *float64 { return &v }

func student(gpa, attendance *float64) models.Student {
	return models.Student{ID: uuid.New(), GPA: gpa, AttendancePct: attendance}
}

func newSynth(store synth.Store, r synth.Random, seasonal synth.SeasonalTable) *synth.Synthesizer {
	return synth.NewSynthesizer(store, synth.Options{
		Random:    r,
		Seasonal:  seasonal,
		TxTimeout: time.Second,
	})
}

func TestGPAHistoryImprovingMidpoint(t *testing.T) {
	s := newSynth(synthtest.NewMemoryStore(), synth.Midpoint{}, nil)
	id := uuid.New()

	records := s.GPAHistory(id, 3.60, models.TrendImproving, []string{"P1", "P2", "P3"})
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	want := []float64{3.40, 3.50, 3.60}
	for i, rec := range records {
		if rec.GPA != want[i] {
			t.Errorf("records[%d].GPA = %v, want %v", i, rec.GPA, want[i])
		}
		if rec.StudentID != id {
			t.Errorf("records[%d].StudentID = %v, want %v", i, rec.StudentID, id)
		}
	}
	if !(records[0].GPA <= records[1].GPA && records[1].GPA <= records[2].GPA) {
		t.Errorf("improving series is not ascending: %v", records)
	}
	if records[0].Semester != "P1" || records[2].Semester != "P3" {
		t.Errorf("records out of order: %s .. %s", records[0].Semester, records[2].Semester)
	}
}

func TestGPAHistoryTrendDirections(t *testing.T) {
	s := newSynth(synthtest.NewMemoryStore(), synth.Midpoint{}, nil)
	periods := []string{"P1", "P2", "P3"}

	tests := []struct {
		name    string
		current float64
		trend   models.TrendClass
		want    []float64
		tol     float64
	}{
		{name: "stable midpoint is flat", current: 3.00, trend: models.TrendStable, want: []float64{3.00, 3.00, 3.00}},
		// midpoint declining steps land on half cents
		{name: "declining was higher", current: 2.50, trend: models.TrendDeclining, want: []float64{2.75, 2.63, 2.50}, tol: 0.011},
		{name: "declining clamps at 4", current: 3.95, trend: models.TrendDeclining, want: []float64{4.00, 4.00, 3.95}},
		{name: "improving clamps at 0", current: 0.05, trend: models.TrendImproving, want: []float64{0.00, 0.00, 0.05}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := s.GPAHistory(uuid.New(), tt.current, tt.trend, periods)
			for i, rec := range records {
				if math.Abs(rec.GPA-tt.want[i]) > tt.tol+1e-9 {
					t.Errorf("records[%d].GPA = %v, want %v", i, rec.GPA, tt.want[i])
				}
			}
		})
	}
}

func TestAttendanceHistorySeasonalMidpoint(t *testing.T) {
	seasonal := synth.SeasonalTable{"2025-02": synth.LowAttendanceMultiplier}
	s := newSynth(synthtest.NewMemoryStore(), synth.Midpoint{}, seasonal)

	records := s.AttendanceHistory(uuid.New(), 90.0, 97.0, []string{"2025-01", "2025-02", "2025-03"})
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	low := records[1]
	if low.AttendancePct != 85.5 {
		t.Errorf("low month attendance = %v, want 85.5", low.AttendancePct)
	}
	if low.TotalDays != 21 || low.DaysPresent != 18 || low.DaysAbsent != 3 {
		t.Errorf("low month days = %d/%d/%d, want 21/18/3", low.TotalDays, low.DaysPresent, low.DaysAbsent)
	}

	if records[0].AttendancePct != 90.0 {
		t.Errorf("normal month attendance = %v, want 90", records[0].AttendancePct)
	}
	if records[2].AttendancePct != 97.0 {
		t.Errorf("anchor attendance = %v, want 97", records[2].AttendancePct)
	}
}

func TestBaseAttendance(t *testing.T) {
	tests := []struct {
		name    string
		nudge   float64
		current float64
		gpa     *float64
		want    float64
	}{
		{name: "midpoint keeps current", current: 88, want: 88},
		{name: "capped at 95", current: 99, want: 95},
		{name: "gpa ignored without nudge", current: 80, gpa: ptr(4.0), want: 80},
		{name: "higher gpa nudges up", nudge: 2, current: 80, gpa: ptr(4.0), want: 82},
		{name: "lower gpa nudges down", nudge: 2, current: 80, gpa: ptr(2.0), want: 78},
		{name: "invalid gpa ignored", nudge: 2, current: 80, gpa: ptr(9.0), want: 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := synth.NewSynthesizer(synthtest.NewMemoryStore(), synth.Options{Random: synth.Midpoint{}, GPANudge: tt.nudge})
			if got := s.BaseAttendance(tt.current, tt.gpa); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("BaseAttendance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSynthesizeInvariants(t *testing.T) {
	var subjects []models.Student
	for _, v := range []struct{ gpa, att float64 }{
		{0.0, 45.0}, {4.0, 100.0}, {3.456, 63.21}, {1.2, 0.0}, {2.75, 88.8}, {3.99, 99.99},
	} {
		subjects = append(subjects, student(ptr(v.gpa), ptr(v.att)))
	}
	for i := 0; i < 200; i++ {
		subjects = append(subjects, student(ptr(float64(i%401)/100), ptr(float64(i%101))))
	}

	store := synthtest.NewMemoryStore()
	seasonal := synth.SeasonalTable{"2025-02": 0.95, "2025-04": 0.90}
	s := newSynth(store, synth.NewRandom(1), seasonal)
	ctx := context.Background()

	gpaReport, err := s.SynthesizeGPAHistory(ctx, subjects, semesters)
	if err != nil {
		t.Fatalf("SynthesizeGPAHistory() error = %v", err)
	}
	attReport, err := s.SynthesizeAttendanceHistory(ctx, subjects, months)
	if err != nil {
		t.Fatalf("SynthesizeAttendanceHistory() error = %v", err)
	}
	if gpaReport.Committed != len(subjects) || attReport.Committed != len(subjects) {
		t.Fatalf("committed = %d/%d, want %d", gpaReport.Committed, attReport.Committed, len(subjects))
	}

	for _, subj := range subjects {
		gpa := store.GPARecords(subj.ID)
		if len(gpa) != len(semesters) {
			t.Fatalf("student %s has %d gpa rows, want %d", subj.ID, len(gpa), len(semesters))
		}
		if anchor := gpa[len(gpa)-1]; anchor.Semester != semesters[len(semesters)-1] || anchor.GPA != *subj.GPA {
			t.Errorf("gpa anchor = %s %v, want %s %v", anchor.Semester, anchor.GPA, semesters[len(semesters)-1], *subj.GPA)
		}
		for _, rec := range gpa {
			if rec.GPA < 0 || rec.GPA > 4 {
				t.Errorf("gpa %v out of [0,4] for %s", rec.GPA, rec.Semester)
			}
		}

		att := store.AttendanceRecords(subj.ID)
		if len(att) != len(months) {
			t.Fatalf("student %s has %d attendance rows, want %d", subj.ID, len(att), len(months))
		}
		anchor := att[len(att)-1]
		if anchor.Month != months[len(months)-1] || anchor.AttendancePct != *subj.AttendancePct {
			t.Errorf("attendance anchor = %s %v, want %v", anchor.Month, anchor.AttendancePct, *subj.AttendancePct)
		}
		for i, rec := range att {
			if rec.DaysPresent+rec.DaysAbsent != rec.TotalDays {
				t.Errorf("%s: %d + %d != %d", rec.Month, rec.DaysPresent, rec.DaysAbsent, rec.TotalDays)
			}
			if rec.TotalDays < 20 || rec.TotalDays > 22 {
				t.Errorf("%s: total days %d not in {20,21,22}", rec.Month, rec.TotalDays)
			}
			if rec.AttendancePct < 0 || rec.AttendancePct > 100 {
				t.Errorf("%s: attendance %v out of [0,100]", rec.Month, rec.AttendancePct)
			}
			if i < len(att)-1 && (rec.AttendancePct < 45 || rec.AttendancePct > 100) {
				t.Errorf("%s: generated attendance %v out of [45,100]", rec.Month, rec.AttendancePct)
			}
		}
	}

	gpaCheck, _ := store.CheckGPAHistory(ctx)
	attCheck, _ := store.CheckAttendanceHistory(ctx)
	if gpaCheck.OutOfRange != 0 || attCheck.OutOfRange != 0 || attCheck.AdditiveViolations != 0 {
		t.Errorf("validation counts = %+v / %+v, want zero violations", gpaCheck, attCheck)
	}
}

func TestSynthesizeIsIdempotent(t *testing.T) {
	subjects := []models.Student{
		student(ptr(3.1), ptr(91)),
		student(ptr(2.2), ptr(75)),
		student(ptr(3.9), ptr(98)),
	}
	store := synthtest.NewMemoryStore()
	ctx := context.Background()

	first, err := newSynth(store, synth.NewRandom(3), nil).SynthesizeGPAHistory(ctx, subjects, semesters)
	if err != nil {
		t.Fatalf("first run error = %v", err)
	}
	firstAtt, err := newSynth(store, synth.NewRandom(3), nil).SynthesizeAttendanceHistory(ctx, subjects, months)
	if err != nil {
		t.Fatalf("first attendance run error = %v", err)
	}
	gpaRows, attRows := store.RowCounts()

	second, err := newSynth(store, synth.NewRandom(99), nil).SynthesizeGPAHistory(ctx, subjects, semesters)
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}
	secondAtt, err := newSynth(store, synth.NewRandom(99), nil).SynthesizeAttendanceHistory(ctx, subjects, months)
	if err != nil {
		t.Fatalf("second attendance run error = %v", err)
	}

	if first.Inserted != len(subjects)*len(semesters) || first.Existing != 0 {
		t.Errorf("first run inserted/existing = %d/%d", first.Inserted, first.Existing)
	}
	if firstAtt.Inserted != len(subjects)*len(months) {
		t.Errorf("first attendance run inserted = %d", firstAtt.Inserted)
	}
	if second.Inserted != 0 || second.Existing != len(subjects)*len(semesters) {
		t.Errorf("second run inserted/existing = %d/%d, want 0/%d", second.Inserted, second.Existing, len(subjects)*len(semesters))
	}
	if secondAtt.Inserted != 0 || secondAtt.Existing != len(subjects)*len(months) {
		t.Errorf("second attendance run inserted/existing = %d/%d", secondAtt.Inserted, secondAtt.Existing)
	}

	if g, a := store.RowCounts(); g != gpaRows || a != attRows {
		t.Errorf("row counts after rerun = %d/%d, want %d/%d", g, a, gpaRows, attRows)
	}
}

func TestSynthesizeTrendDistribution(t *testing.T) {
	subjects := make([]models.Student, 2000)
	for i := range subjects {
		subjects[i] = student(ptr(3.0), nil)
	}
	s := newSynth(synthtest.NewMemoryStore(), synth.NewRandom(2024), nil)

	report, err := s.SynthesizeGPAHistory(context.Background(), subjects, []string{"Fall 2024", "Spring 2025"})
	if err != nil {
		t.Fatalf("SynthesizeGPAHistory() error = %v", err)
	}

	tests := []struct {
		trend models.TrendClass
		want  float64
	}{
		{models.TrendImproving, 0.60},
		{models.TrendStable, 0.25},
		{models.TrendDeclining, 0.15},
	}
	total := 0
	for _, tt := range tests {
		total += report.Trends[tt.trend]
		if got := report.TrendShare(tt.trend); math.Abs(got-tt.want) > 0.05 {
			t.Errorf("share of %s = %.3f, want %.2f +/- 0.05", tt.trend, got, tt.want)
		}
	}
	if total != len(subjects) {
		t.Errorf("trend tallies sum to %d, want %d", total, len(subjects))
	}
}

func TestSynthesizeSkipsInputDefects(t *testing.T) {
	good := student(ptr(3.2), ptr(90))
	subjects := []models.Student{
		good,
		student(nil, nil),
		student(ptr(math.NaN()), ptr(math.Inf(1))),
		student(ptr(4.5), ptr(101)),
		student(ptr(-0.1), ptr(-3)),
	}
	store := synthtest.NewMemoryStore()
	s := newSynth(store, synth.NewRandom(5), nil)
	ctx := context.Background()

	for _, run := range []struct {
		name string
		fn   func() (*synth.Report, error)
	}{
		{"gpa", func() (*synth.Report, error) { return s.SynthesizeGPAHistory(ctx, subjects, semesters) }},
		{"attendance", func() (*synth.Report, error) { return s.SynthesizeAttendanceHistory(ctx, subjects, months) }},
	} {
		t.Run(run.name, func(t *testing.T) {
			report, err := run.fn()
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if report.Subjects != 5 || report.Committed != 1 || len(report.Skipped) != 4 || len(report.Failed) != 0 {
				t.Errorf("subjects/committed/skipped/failed = %d/%d/%d/%d, want 5/1/4/0",
					report.Subjects, report.Committed, len(report.Skipped), len(report.Failed))
			}
			for _, issue := range report.Skipped {
				if !apperrors.Is(issue.Err, apperrors.ErrMissingMetric, apperrors.ErrInvalidMetric) {
					t.Errorf("skip reason = %v, want missing or invalid metric", issue.Err)
				}
			}
			if report.Err() != nil {
				t.Errorf("Err() = %v, want nil", report.Err())
			}
		})
	}
}

func TestSynthesizeIsolatesFailedBatch(t *testing.T) {
	ok1 := student(ptr(3.0), ptr(90))
	broken := student(ptr(2.0), ptr(80))
	ok2 := student(ptr(3.5), ptr(95))

	store := synthtest.NewMemoryStore()
	store.FailFor(broken.ID, nil)
	s := newSynth(store, synth.NewRandom(11), nil)

	report, err := s.SynthesizeGPAHistory(context.Background(), []models.Student{ok1, broken, ok2}, semesters)
	if err != nil {
		t.Fatalf("SynthesizeGPAHistory() error = %v", err)
	}

	if report.Committed != 2 || len(report.Failed) != 1 {
		t.Fatalf("committed/failed = %d/%d, want 2/1", report.Committed, len(report.Failed))
	}
	if report.Failed[0].StudentID != broken.ID {
		t.Errorf("failed student = %v, want %v", report.Failed[0].StudentID, broken.ID)
	}
	if !errors.Is(report.Err(), synthtest.ErrInjected) {
		t.Errorf("Err() = %v, want ErrInjected", report.Err())
	}
	if got := store.GPARecords(broken.ID); len(got) != 0 {
		t.Errorf("failed student has %d rows, want 0", len(got))
	}
	if len(store.GPARecords(ok1.ID)) != len(semesters) || len(store.GPARecords(ok2.ID)) != len(semesters) {
		t.Error("healthy students were not fully stored")
	}
	if report.Generated != 3*len(semesters) || report.Inserted != 2*len(semesters) {
		t.Errorf("generated/inserted = %d/%d", report.Generated, report.Inserted)
	}
	if store.Commits != 2 || store.Rollbacks != 1 {
		t.Errorf("commits/rollbacks = %d/%d, want 2/1", store.Commits, store.Rollbacks)
	}
	if got := report.Trends[models.TrendImproving] + report.Trends[models.TrendStable] + report.Trends[models.TrendDeclining]; got != 2 {
		t.Errorf("trend tallies = %d, want 2", got)
	}
}

func TestSynthesizeBeginFailure(t *testing.T) {
	store := synthtest.NewMemoryStore()
	store.BeginErr = errors.New("connection refused")
	s := newSynth(store, synth.NewRandom(1), nil)

	report, err := s.SynthesizeAttendanceHistory(context.Background(), []models.Student{student(nil, ptr(90))}, months)
	if err != nil {
		t.Fatalf("SynthesizeAttendanceHistory() error = %v", err)
	}
	if len(report.Failed) != 1 || report.Committed != 0 {
		t.Errorf("failed/committed = %d/%d, want 1/0", len(report.Failed), report.Committed)
	}
}

func TestSynthesizeRequiresPeriods(t *testing.T) {
	s := newSynth(synthtest.NewMemoryStore(), synth.NewRandom(1), nil)
	ctx := context.Background()

	if _, err := s.SynthesizeGPAHistory(ctx, nil, nil); !errors.Is(err, apperrors.ErrNoPeriods) {
		t.Errorf("SynthesizeGPAHistory() error = %v, want ErrNoPeriods", err)
	}
	if _, err := s.SynthesizeAttendanceHistory(ctx, nil, []string{}); !errors.Is(err, apperrors.ErrNoPeriods) {
		t.Errorf("SynthesizeAttendanceHistory() error = %v, want ErrNoPeriods", err)
	}
}

func TestSynthesizeSinglePeriodIsAnchorOnly(t *testing.T) {
	store := synthtest.NewMemoryStore()
	subj := student(ptr(2.87), ptr(73.4))
	s := newSynth(store, synth.NewRandom(8), nil)
	ctx := context.Background()

	if _, err := s.SynthesizeGPAHistory(ctx, []models.Student{subj}, []string{"Spring 2025"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SynthesizeAttendanceHistory(ctx, []models.Student{subj}, []string{"2025-06"}); err != nil {
		t.Fatal(err)
	}
	if got := store.GPARecords(subj.ID); len(got) != 1 || got[0].GPA != 2.87 {
		t.Errorf("gpa rows = %+v, want single anchor 2.87", got)
	}
	if got := store.AttendanceRecords(subj.ID); len(got) != 1 || got[0].AttendancePct != 73.4 {
		t.Errorf("attendance rows = %+v, want single anchor 73.4", got)
	}
}

func TestSynthesizeStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newSynth(synthtest.NewMemoryStore(), synth.NewRandom(1), nil)

	report, err := s.SynthesizeGPAHistory(ctx, []models.Student{student(ptr(3), nil)}, semesters)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if report == nil || report.Committed != 0 {
		t.Errorf("report = %+v, want nothing committed", report)
	}
}

func TestRecordedAtFollowsLabels(t *testing.T) {
	store := synthtest.NewMemoryStore()
	subj := student(ptr(3.0), nil)
	s := newSynth(store, synth.NewRandom(2), nil)

	if _, err := s.SynthesizeGPAHistory(context.Background(), []models.Student{subj}, semesters); err != nil {
		t.Fatal(err)
	}
	for _, rec := range store.GPARecords(subj.ID) {
		want, ok := synth.ParsePeriod(rec.Semester)
		if !ok || !rec.RecordedAt.Equal(want) {
			t.Errorf("%s recorded at %v, want %v", rec.Semester, rec.RecordedAt, want)
		}
	}
}
