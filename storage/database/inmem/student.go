package inmemdb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/akadahq/akada/core/academic"
)

type studentRepository struct {
	db *DB
}

var _ academic.StudentRepository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

// join resolves the student's academic context the way the SQL repository's
// joined read does.
func (repo *studentRepository) join(st academic.Student) academic.Student {
	if l, ok := repo.db.levels[st.CurrentLevelID]; ok {
		st.CurrentLevel = &l
	}
	if p, ok := repo.db.programs[st.ProgramID]; ok {
		st.Program = &p
	}
	if d, ok := repo.db.departments[st.DepartmentID]; ok {
		st.Department = &d
	}
	if s, ok := repo.db.seasons[st.AdmissionSeasonID]; ok {
		st.AdmissionSeason = &s
	}
	return st
}

func (repo *studentRepository) GetStudent(_ context.Context, id string) (academic.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	st, ok := repo.db.students[id]
	if !ok {
		return academic.Student{}, academic.ErrStudentNotFound
	}
	return repo.join(*st), nil
}

func (repo *studentRepository) FilterStudents(_ context.Context, filter academic.StudentFilter) ([]academic.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	studs := make([]academic.Student, 0)
	for _, st := range repo.db.students {
		joined := repo.join(*st)
		if filter.IsActive != nil && joined.IsActive != *filter.IsActive {
			continue
		}
		if filter.IsGraduated != nil && joined.IsGraduated != *filter.IsGraduated {
			continue
		}
		if filter.ProgramID != "" && joined.ProgramID != filter.ProgramID {
			continue
		}
		if filter.DepartmentID != "" && joined.DepartmentID != filter.DepartmentID {
			continue
		}
		if filter.FacultyID != "" && (joined.Department == nil || joined.Department.FacultyID != filter.FacultyID) {
			continue
		}
		if filter.DegreeType != "" && (joined.Program == nil || joined.Program.DegreeType != filter.DegreeType) {
			continue
		}
		if filter.Progressible && (joined.Program == nil || joined.Program.Duration == 0) {
			continue
		}
		studs = append(studs, joined)
	}
	sort.Slice(studs, func(i, j int) bool { return studs[i].RegNo < studs[j].RegNo })
	return studs, nil
}

func (repo *studentRepository) GetRegistrations(_ context.Context, studentID string, since time.Time) ([]academic.StudentCourseRegistration, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	regs := make([]academic.StudentCourseRegistration, 0)
	for _, reg := range repo.db.registrations {
		if reg.StudentID != studentID {
			continue
		}
		if !since.IsZero() {
			season, ok := repo.db.seasons[reg.SeasonID]
			if !ok || season.StartDate.Before(since) {
				continue
			}
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

func (repo *studentRepository) UpdateStudentAcademicStates(_ context.Context, updates []academic.StudentStateUpdate) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	// verify every optimistic precondition before touching anything so the
	// batch applies all-or-nothing, like the SQL transaction does
	for _, up := range updates {
		st, ok := repo.db.students[up.StudentID]
		if !ok {
			return fmt.Errorf("inmemdb: student %s not found", up.StudentID)
		}
		if st.CurrentLevelID != up.PriorLevelID ||
			st.CurrentSeasonID != up.PriorSeasonID ||
			st.CurrentSemesterID != up.PriorSemesterID ||
			st.IsGraduated != up.PriorGraduated {
			return fmt.Errorf("inmemdb: student %s was modified concurrently", up.StudentID)
		}
	}
	now := time.Now().UTC()
	for _, up := range updates {
		st := repo.db.students[up.StudentID]
		st.CurrentLevelID = up.NewLevelID
		st.CurrentSeasonID = up.NewSeasonID
		st.CurrentSemesterID = up.NewSemesterID
		st.IsGraduated = up.Graduated
		st.IsActive = up.Active
		st.GraduationSeason = up.GraduationSeasonID
		st.GraduationSem = up.GraduationSemID
		st.UpdatedAt = now
	}
	return nil
}
