package academic

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	logsvc "github.com/akadahq/akada/services/logger"
)

// mock repositories: plain in-memory implementations of the repository
// ports, with injectable errors for the store-failure paths.

type mockCatalogRepo struct {
	levels         []Level
	programCourses []ProgramCourse
	prereqs        []CoursePrerequisite
	unitReqs       []PeriodUnitRequirement
	seasons        map[string]Season
	semesters      map[string]Semester

	err error // when set, every call fails
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{
		seasons:   make(map[string]Season),
		semesters: make(map[string]Semester),
	}
}

func (m *mockCatalogRepo) GetLevelsByDegreeType(_ context.Context, dt DegreeType) ([]Level, error) {
	if m.err != nil {
		return nil, m.err
	}
	var levels []Level
	for _, l := range m.levels {
		if l.DegreeType == dt {
			levels = append(levels, l)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].Value < levels[j].Value })
	return levels, nil
}

func (m *mockCatalogRepo) GetProgramCoursesForLevels(_ context.Context, programID string, levelIDs ...string) ([]ProgramCourse, error) {
	if m.err != nil {
		return nil, m.err
	}
	wanted := make(map[string]bool, len(levelIDs))
	for _, id := range levelIDs {
		wanted[id] = true
	}
	var pcs []ProgramCourse
	for _, pc := range m.programCourses {
		if pc.IsActive && pc.ProgramID == programID && wanted[pc.LevelID] {
			pcs = append(pcs, pc)
		}
	}
	return pcs, nil
}

func (m *mockCatalogRepo) GetPrerequisitesForCourses(_ context.Context, courseIDs ...string) ([]CoursePrerequisite, error) {
	if m.err != nil {
		return nil, m.err
	}
	wanted := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = true
	}
	var pres []CoursePrerequisite
	for _, pre := range m.prereqs {
		if pre.IsActive && wanted[pre.CourseID] {
			pres = append(pres, pre)
		}
	}
	return pres, nil
}

func (m *mockCatalogRepo) GetUnitRequirement(_ context.Context, programID, levelID string, st SemesterType) (PeriodUnitRequirement, error) {
	if m.err != nil {
		return PeriodUnitRequirement{}, m.err
	}
	for _, ur := range m.unitReqs {
		if ur.ProgramID == programID && ur.LevelID == levelID && ur.SemesterType == st {
			return ur, nil
		}
	}
	return PeriodUnitRequirement{}, ErrUnitRequirementNotFound
}

func (m *mockCatalogRepo) GetSeason(_ context.Context, id string) (Season, error) {
	if m.err != nil {
		return Season{}, m.err
	}
	if s, ok := m.seasons[id]; ok {
		return s, nil
	}
	return Season{}, ErrSeasonNotFound
}

func (m *mockCatalogRepo) GetSemester(_ context.Context, id string) (Semester, error) {
	if m.err != nil {
		return Semester{}, m.err
	}
	if s, ok := m.semesters[id]; ok {
		return s, nil
	}
	return Semester{}, ErrSemesterNotFound
}

func (m *mockCatalogRepo) GetFirstSemester(_ context.Context, seasonID string) (Semester, error) {
	if m.err != nil {
		return Semester{}, m.err
	}
	var first *Semester
	for _, s := range m.semesters {
		if s.SeasonID != seasonID || s.Type != SemesterFirst {
			continue
		}
		s := s
		if first == nil || s.Number < first.Number {
			first = &s
		}
	}
	if first == nil {
		return Semester{}, ErrSemesterNotFound
	}
	return *first, nil
}

type mockStudentRepo struct {
	students map[string]*Student
	regs     []StudentCourseRegistration
	seasons  map[string]Season // for the since-season-start restriction

	filterErr error
	updateErr error
	commits   [][]StudentStateUpdate // recorded successful commits
}

func newMockStudentRepo(catalog *mockCatalogRepo) *mockStudentRepo {
	return &mockStudentRepo{
		students: make(map[string]*Student),
		seasons:  catalog.seasons,
	}
}

func (m *mockStudentRepo) GetStudent(_ context.Context, id string) (Student, error) {
	if st, ok := m.students[id]; ok {
		return *st, nil
	}
	return Student{}, ErrStudentNotFound
}

func (m *mockStudentRepo) FilterStudents(_ context.Context, filter StudentFilter) ([]Student, error) {
	if m.filterErr != nil {
		return nil, m.filterErr
	}
	var studs []Student
	for _, st := range m.students {
		if filter.IsActive != nil && st.IsActive != *filter.IsActive {
			continue
		}
		if filter.IsGraduated != nil && st.IsGraduated != *filter.IsGraduated {
			continue
		}
		if filter.ProgramID != "" && st.ProgramID != filter.ProgramID {
			continue
		}
		if filter.DepartmentID != "" && st.DepartmentID != filter.DepartmentID {
			continue
		}
		if filter.FacultyID != "" && (st.Department == nil || st.Department.FacultyID != filter.FacultyID) {
			continue
		}
		if filter.DegreeType != "" && (st.Program == nil || st.Program.DegreeType != filter.DegreeType) {
			continue
		}
		if filter.Progressible && (st.Program == nil || st.Program.Duration == 0) {
			continue
		}
		studs = append(studs, *st)
	}
	sort.Slice(studs, func(i, j int) bool { return studs[i].RegNo < studs[j].RegNo })
	return studs, nil
}

func (m *mockStudentRepo) GetRegistrations(_ context.Context, studentID string, since time.Time) ([]StudentCourseRegistration, error) {
	var regs []StudentCourseRegistration
	for _, reg := range m.regs {
		if reg.StudentID != studentID {
			continue
		}
		if !since.IsZero() {
			season, ok := m.seasons[reg.SeasonID]
			if !ok || season.StartDate.Before(since) {
				continue
			}
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

func (m *mockStudentRepo) UpdateStudentAcademicStates(_ context.Context, updates []StudentStateUpdate) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	for _, up := range updates {
		st, ok := m.students[up.StudentID]
		if !ok {
			return fmt.Errorf("student %s not found", up.StudentID)
		}
		if st.CurrentLevelID != up.PriorLevelID ||
			st.CurrentSeasonID != up.PriorSeasonID ||
			st.CurrentSemesterID != up.PriorSemesterID ||
			st.IsGraduated != up.PriorGraduated {
			return fmt.Errorf("student %s was modified concurrently", up.StudentID)
		}
	}
	for _, up := range updates {
		st := m.students[up.StudentID]
		st.CurrentLevelID = up.NewLevelID
		st.CurrentSeasonID = up.NewSeasonID
		st.CurrentSemesterID = up.NewSemesterID
		st.IsGraduated = up.Graduated
		st.IsActive = up.Active
		st.GraduationSeason = up.GraduationSeasonID
		st.GraduationSem = up.GraduationSemID
		if st.CurrentLevel != nil {
			for _, l := range levelIndex {
				if l.ID == up.NewLevelID {
					lvl := l
					st.CurrentLevel = &lvl
					break
				}
			}
		}
	}
	m.commits = append(m.commits, updates)
	return nil
}

// levelIndex lets the mock student repo re-join CurrentLevel after an
// update, like the SQL repository's joined reads would on the next batch.
var levelIndex []Level

// test environment

type testEnv struct {
	catalog  *mockCatalogRepo
	students *mockStudentRepo
	svc      *Service

	ids int
}

func newTestEnv() *testEnv {
	catalog := newMockCatalogRepo()
	students := newMockStudentRepo(catalog)
	logger := logsvc.NewConsoleLogger(log.New(os.Stdout, "TEST : ", 0))
	logger.Enable(false) // flip on when debugging a failing test
	levelIndex = nil
	return &testEnv{
		catalog:  catalog,
		students: students,
		svc:      NewService(catalog, students, logger),
	}
}

func (env *testEnv) nextID(prefix string) string {
	env.ids++
	return fmt.Sprintf("%s-%d", prefix, env.ids)
}

func (env *testEnv) addLevel(dt DegreeType, name string, value, order int) Level {
	l := Level{ID: env.nextID("lvl"), Name: name, Value: value, Order: order, DegreeType: dt}
	env.catalog.levels = append(env.catalog.levels, l)
	levelIndex = append(levelIndex, l)
	return l
}

func (env *testEnv) addSeason(name string, start time.Time) Season {
	s := Season{ID: env.nextID("season"), Name: name, StartDate: start, EndDate: start.AddDate(1, 0, 0)}
	env.catalog.seasons[s.ID] = s
	return s
}

func (env *testEnv) addSemester(season Season, st SemesterType, number int) Semester {
	s := Semester{ID: env.nextID("sem"), SeasonID: season.ID, Type: st, Number: number}
	env.catalog.semesters[s.ID] = s
	return s
}

func (env *testEnv) addProgram(dt DegreeType, duration int) Program {
	p := Program{ID: env.nextID("prog"), Name: string(dt) + " Program", DepartmentID: "dept-1", DegreeType: dt, Duration: duration}
	return p
}

func (env *testEnv) addCourse(code string, preferred ...SemesterType) Course {
	c := Course{ID: env.nextID("crs"), Code: code, Title: code, Units: 3}
	if len(preferred) > 0 {
		c.PreferredSemesterType = null.StringFrom(string(preferred[0]))
	}
	return c
}

func (env *testEnv) addProgramCourse(prog Program, level Level, course Course, elective bool) ProgramCourse {
	pc := ProgramCourse{
		ID:         env.nextID("pc"),
		ProgramID:  prog.ID,
		LevelID:    level.ID,
		IsElective: elective,
		IsActive:   true,
		Course:     course,
	}
	env.catalog.programCourses = append(env.catalog.programCourses, pc)
	return pc
}

func (env *testEnv) addPrerequisite(course, prerequisite Course) {
	env.catalog.prereqs = append(env.catalog.prereqs, CoursePrerequisite{
		ID:           env.nextID("pre"),
		CourseID:     course.ID,
		IsActive:     true,
		Prerequisite: prerequisite,
	})
}

func (env *testEnv) addStudent(regNo string, prog Program, level Level, admission Season, season Season, semester Semester) Student {
	lvl, adm := level, admission
	st := Student{
		ID:                env.nextID("stu"),
		RegNo:             regNo,
		ProgramID:         prog.ID,
		DepartmentID:      prog.DepartmentID,
		CurrentLevelID:    level.ID,
		CurrentSeasonID:   season.ID,
		CurrentSemesterID: semester.ID,
		AdmissionSeasonID: admission.ID,
		IsActive:          true,
		CurrentLevel:      &lvl,
		Program:           &prog,
		Department:        &Department{ID: prog.DepartmentID, Name: "Dept", FacultyID: "fac-1"},
		AdmissionSeason:   &adm,
	}
	env.students.students[st.ID] = &st
	return st
}

// addRegistration records an attempt; grade "" means no score yet.
func (env *testEnv) addRegistration(st Student, course Course, season Season, semester Semester, grade string) StudentCourseRegistration {
	reg := StudentCourseRegistration{
		ID:         env.nextID("reg"),
		StudentID:  st.ID,
		SeasonID:   season.ID,
		SemesterID: semester.ID,
		Course:     course,
	}
	if grade != "" {
		reg.Score = &Score{ID: env.nextID("score"), RegistrationID: reg.ID, Grade: null.StringFrom(grade)}
	}
	env.students.regs = append(env.students.regs, reg)
	return reg
}
