// Package inmemdb provides in-memory implementations of the academic
// repository ports. They back tests and local development; behavior mirrors
// the SQL repositories, including all-or-nothing batched state updates.
package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/akadahq/akada/core/academic"
)

type DB struct {
	mu sync.RWMutex

	faculties   map[string]academic.Faculty
	departments map[string]academic.Department
	levels      map[string]academic.Level
	programs    map[string]academic.Program
	courses     map[string]academic.Course
	seasons     map[string]academic.Season
	semesters   map[string]academic.Semester

	programCourses []academic.ProgramCourse
	prerequisites  []academic.CoursePrerequisite
	unitReqs       []academic.PeriodUnitRequirement

	students      map[string]*academic.Student
	registrations []academic.StudentCourseRegistration
}

func Open() *DB {
	return &DB{
		faculties:   make(map[string]academic.Faculty),
		departments: make(map[string]academic.Department),
		levels:      make(map[string]academic.Level),
		programs:    make(map[string]academic.Program),
		courses:     make(map[string]academic.Course),
		seasons:     make(map[string]academic.Season),
		semesters:   make(map[string]academic.Semester),
		students:    make(map[string]*academic.Student),
	}
}

func newID(id ...string) string {
	if len(id) > 0 && id[0] != "" {
		return id[0]
	}
	return uuid.New().String()
}

// Seeding helpers. Each returns the stored value with its id populated.

func (db *DB) AddFaculty(f academic.Faculty) academic.Faculty {
	db.mu.Lock()
	defer db.mu.Unlock()
	f.ID = newID(f.ID)
	db.faculties[f.ID] = f
	return f
}

func (db *DB) AddDepartment(d academic.Department) academic.Department {
	db.mu.Lock()
	defer db.mu.Unlock()
	d.ID = newID(d.ID)
	db.departments[d.ID] = d
	return d
}

func (db *DB) AddLevel(l academic.Level) academic.Level {
	db.mu.Lock()
	defer db.mu.Unlock()
	l.ID = newID(l.ID)
	db.levels[l.ID] = l
	return l
}

func (db *DB) AddProgram(p academic.Program) academic.Program {
	db.mu.Lock()
	defer db.mu.Unlock()
	p.ID = newID(p.ID)
	db.programs[p.ID] = p
	return p
}

func (db *DB) AddCourse(c academic.Course) academic.Course {
	db.mu.Lock()
	defer db.mu.Unlock()
	c.ID = newID(c.ID)
	db.courses[c.ID] = c
	return c
}

func (db *DB) AddSeason(s academic.Season) academic.Season {
	db.mu.Lock()
	defer db.mu.Unlock()
	s.ID = newID(s.ID)
	db.seasons[s.ID] = s
	return s
}

func (db *DB) AddSemester(s academic.Semester) academic.Semester {
	db.mu.Lock()
	defer db.mu.Unlock()
	s.ID = newID(s.ID)
	db.semesters[s.ID] = s
	return s
}

func (db *DB) AddProgramCourse(pc academic.ProgramCourse) academic.ProgramCourse {
	db.mu.Lock()
	defer db.mu.Unlock()
	pc.ID = newID(pc.ID)
	if c, ok := db.courses[pc.Course.ID]; ok {
		pc.Course = c
	}
	db.programCourses = append(db.programCourses, pc)
	return pc
}

func (db *DB) AddPrerequisite(pre academic.CoursePrerequisite) academic.CoursePrerequisite {
	db.mu.Lock()
	defer db.mu.Unlock()
	pre.ID = newID(pre.ID)
	if c, ok := db.courses[pre.Prerequisite.ID]; ok {
		pre.Prerequisite = c
	}
	db.prerequisites = append(db.prerequisites, pre)
	return pre
}

func (db *DB) AddUnitRequirement(ur academic.PeriodUnitRequirement) academic.PeriodUnitRequirement {
	db.mu.Lock()
	defer db.mu.Unlock()
	ur.ID = newID(ur.ID)
	db.unitReqs = append(db.unitReqs, ur)
	return ur
}

func (db *DB) AddStudent(st academic.Student) academic.Student {
	db.mu.Lock()
	defer db.mu.Unlock()
	st.ID = newID(st.ID)
	db.students[st.ID] = &st
	return st
}

func (db *DB) AddRegistration(reg academic.StudentCourseRegistration) academic.StudentCourseRegistration {
	db.mu.Lock()
	defer db.mu.Unlock()
	reg.ID = newID(reg.ID)
	if c, ok := db.courses[reg.Course.ID]; ok {
		reg.Course = c
	}
	db.registrations = append(db.registrations, reg)
	return reg
}
