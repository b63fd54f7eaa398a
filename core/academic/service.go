package academic

import (
	"context"
	"errors"
	"time"

	"github.com/akadahq/akada/core"
)

var (
	// errors
	ErrStudentNotFound         = errors.New("student not found")
	ErrSeasonNotFound          = errors.New("season not found")
	ErrSemesterNotFound        = errors.New("semester not found")
	ErrLevelNotFound           = errors.New("level not found")
	ErrUnitRequirementNotFound = errors.New("unit requirement not found")
)

type (
	// CatalogRepository is the curriculum catalog port: programs, levels,
	// curriculum edges, prerequisite edges and period unit requirements.
	// All reads return active rows only where an IsActive flag exists.
	CatalogRepository interface {
		GetLevelsByDegreeType(ctx context.Context, dt DegreeType) ([]Level, error)
		GetProgramCoursesForLevels(ctx context.Context, programID string, levelIDs ...string) ([]ProgramCourse, error)
		GetPrerequisitesForCourses(ctx context.Context, courseIDs ...string) ([]CoursePrerequisite, error)
		GetUnitRequirement(ctx context.Context, programID, levelID string, st SemesterType) (PeriodUnitRequirement, error)
		GetSeason(ctx context.Context, id string) (Season, error)
		GetSemester(ctx context.Context, id string) (Semester, error)
		// GetFirstSemester returns the season's first FIRST-type semester.
		GetFirstSemester(ctx context.Context, seasonID string) (Semester, error)
	}

	// StudentRepository is the student-record store port.
	StudentRepository interface {
		// GetStudent returns the student with their academic context
		// (current level, program, department, admission season) joined in.
		GetStudent(ctx context.Context, id string) (Student, error)
		// FilterStudents is a single bulk read with the same joins.
		FilterStudents(ctx context.Context, filter StudentFilter) ([]Student, error)
		// GetRegistrations returns the student's registrations with scores,
		// restricted to seasons starting at or after `since` (zero = all).
		GetRegistrations(ctx context.Context, studentID string, since time.Time) ([]StudentCourseRegistration, error)
		// UpdateStudentAcademicStates applies every staged update in one
		// transaction; each row is conditioned on its Prior* state and any
		// lost update fails the whole transaction.
		UpdateStudentAcademicStates(ctx context.Context, updates []StudentStateUpdate) error
	}

	Service struct {
		catalog  CatalogRepository
		students StudentRepository
		log      core.Logger
	}
)

func NewService(catalog CatalogRepository, students StudentRepository, log core.Logger) *Service {
	return &Service{
		catalog:  catalog,
		students: students,
		log:      log,
	}
}

// GetStudent returns the student with their academic context resolved.
func (svc *Service) GetStudent(ctx context.Context, id string) (Student, error) {
	return svc.students.GetStudent(ctx, id)
}
