package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/mentorlink/internal/app/models"
	"github.com/yigit/mentorlink/internal/synth"
)

// StudentCreator is implemented by repositories.StudentRepository
type StudentCreator interface {
	Count(ctx context.Context) (int64, error)
	CreateStudent(ctx context.Context, student *models.Student) (models.InsertResult, error)
}

var (
	firstNames = []string{"Ayse", "Mehmet", "Elif", "Can", "Zeynep", "Emre", "Deniz", "Selin", "Burak", "Ece", "Kerem", "Naz"}
	lastNames  = []string{"Yilmaz", "Kaya", "Demir", "Celik", "Sahin", "Arslan", "Dogan", "Kurt", "Aydin", "Ozturk"}
)

// DemoEmailDomain is the domain of every generated demo student
const DemoEmailDomain = "demo.mentorlink.edu"

// Every tenth demo student has no GPA yet and every seventh no attendance,
// so the skip path of the synthesizer is exercised on demo data.
const (
	noGPAEvery        = 10
	noAttendanceEvery = 7
)

// DemoStudents builds n demo students from r. The same source state yields the same students.
func DemoStudents(r synth.Random, n int) []models.Student {
	students := make([]models.Student, 0, n)
	for i := 0; i < n; i++ {
		first := firstNames[r.IntN(len(firstNames))]
		last := lastNames[r.IntN(len(lastNames))]

		s := models.Student{
			FullName: first + " " + last,
			Email:    fmt.Sprintf("%s.%s.%03d@%s", strings.ToLower(first), strings.ToLower(last), i+1, DemoEmailDomain),
		}

		gpa := synth.Round2(synth.Uniform(r, 1.8, models.MaxGPA))
		attendance := synth.Round2(synth.Uniform(r, 60, models.MaxAttendance))
		if (i+1)%noGPAEvery != 0 {
			s.GPA = &gpa
		}
		if (i+1)%noAttendanceEvery != 0 {
			s.AttendancePct = &attendance
		}
		students = append(students, s)
	}
	return students
}

// CreateDemoStudents inserts students when the students table is empty.
// It returns the number of rows inserted.
func CreateDemoStudents(ctx context.Context, repo StudentCreator, students []models.Student, lgr zerolog.Logger) (int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		lgr.Info().Int64("existing", count).Msg("Students already present, skipping demo seed")
		return 0, nil
	}

	inserted := 0
	for i := range students {
		res, err := repo.CreateStudent(ctx, &students[i])
		if err != nil {
			return inserted, fmt.Errorf("create demo student %s: %w", students[i].Email, err)
		}
		if res == models.Inserted {
			inserted++
		}
	}

	lgr.Info().Int("inserted", inserted).Msg("Demo students created")
	return inserted, nil
}
