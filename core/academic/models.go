package academic

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// DegreeType identifies the qualification family a Program awards.
type DegreeType string

const (
	DegreeUndergraduate       DegreeType = "UNDERGRADUATE"
	DegreeND                  DegreeType = "ND"
	DegreeNCE                 DegreeType = "NCE"
	DegreeHND                 DegreeType = "HND"
	DegreePostgraduateDiploma DegreeType = "POSTGRADUATE_DIPLOMA"
	DegreeMasters             DegreeType = "MASTERS"
	DegreePhD                 DegreeType = "PHD"
	DegreeCertificate         DegreeType = "CERTIFICATE"
	DegreeDiploma             DegreeType = "DIPLOMA"
	DegreeAssociate           DegreeType = "ASSOCIATE"
	DegreeProfessionalDoc     DegreeType = "PROFESSIONAL_DOCTORATE"
)

// AllDegreeTypes lists every supported degree type, fixed-increment family first.
var AllDegreeTypes = []DegreeType{
	DegreeUndergraduate, DegreeND, DegreeNCE, DegreeHND,
	DegreePostgraduateDiploma, DegreeMasters, DegreePhD,
	DegreeCertificate, DegreeDiploma, DegreeAssociate, DegreeProfessionalDoc,
}

func (dt DegreeType) Valid() bool {
	for _, t := range AllDegreeTypes {
		if dt == t {
			return true
		}
	}
	return false
}

// SemesterType types a teaching period within a season.
type SemesterType string

const (
	SemesterFirst  SemesterType = "FIRST"
	SemesterSecond SemesterType = "SECOND"
)

// Scope is the organizational breadth of a batch operation.
type Scope string

const (
	ScopeAll        Scope = "ALL"
	ScopeFaculty    Scope = "FACULTY"
	ScopeDepartment Scope = "DEPARTMENT"
	ScopeProgram    Scope = "PROGRAM"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeAll, ScopeFaculty, ScopeDepartment, ScopeProgram:
		return true
	}
	return false
}

// MinLevelValue is the entry level value for the 100-numbering convention.
const MinLevelValue = 100

// LevelStep is the fixed-increment family's level-value step.
const LevelStep = 100

type Faculty struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Department struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FacultyID string `json:"faculty_id"`
}

// Level is a discrete academic stage within a degree type.
// Levels are totally ordered within a degree type: by Value for the
// fixed-increment family, by (Order, Value) for the ordered-sequence family.
type Level struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Value      int        `json:"value"`
	Order      int        `json:"order"`
	DegreeType DegreeType `json:"degree_type"`
}

// rank is the level's position key within its degree type.
func (l Level) rank() int {
	if l.Order != 0 {
		return l.Order
	}
	return l.Value
}

type Program struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	DepartmentID string     `json:"department_id"`
	DegreeType   DegreeType `json:"degree_type"`
	// Duration is the number of levels in the program.
	// Duration == 0 disables progression and graduation checks entirely.
	Duration int `json:"duration"`
}

// FinalLevelValue is the terminal level value under the 100-numbering convention.
func (p Program) FinalLevelValue() int {
	return p.Duration * LevelStep
}

type Course struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Title string `json:"title"`
	Units int    `json:"units"`
	// PreferredSemesterType restricts which semester type the course runs in;
	// null means the course is offered in every semester type.
	PreferredSemesterType null.String `json:"preferred_semester_type"`
}

// OfferedIn reports whether the course runs in the given semester type.
func (c Course) OfferedIn(st SemesterType) bool {
	return !c.PreferredSemesterType.Valid || c.PreferredSemesterType.String == string(st)
}

// ProgramCourse is a curriculum edge: (program, level) -> course.
// Only active edges count toward graduation and offerings.
type ProgramCourse struct {
	ID         string `json:"id"`
	ProgramID  string `json:"program_id"`
	LevelID    string `json:"level_id"`
	IsElective bool   `json:"is_elective"`
	IsActive   bool   `json:"is_active"`
	Course     Course `json:"course"`
}

// CoursePrerequisite is a directed edge course -> prerequisite course.
type CoursePrerequisite struct {
	ID           string `json:"id"`
	CourseID     string `json:"course_id"`
	IsActive     bool   `json:"is_active"`
	Prerequisite Course `json:"prerequisite"`
}

// Season is a top-level academic year / admission cycle.
type Season struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Semester is a teaching period within a Season.
type Semester struct {
	ID       string       `json:"id"`
	SeasonID string       `json:"season_id"`
	Type     SemesterType `json:"type"`
	Number   int          `json:"number"`
}

// Non-passing grades. Any other recorded grade is a pass.
const (
	GradeFail       = "F"
	GradeIncomplete = "I"
)

type Score struct {
	ID             string      `json:"id"`
	RegistrationID string      `json:"registration_id"`
	Grade          null.String `json:"grade"`
}

// Passing reports whether the score carries a recorded, non-failing grade.
func (s Score) Passing() bool {
	if !s.Grade.Valid {
		return false
	}
	return s.Grade.String != GradeFail && s.Grade.String != GradeIncomplete
}

// StudentCourseRegistration is one (student, course, season, semester) attempt,
// optionally linked to a graded Score.
type StudentCourseRegistration struct {
	ID         string `json:"id"`
	StudentID  string `json:"student_id"`
	SeasonID   string `json:"season_id"`
	SemesterID string `json:"semester_id"`
	Course     Course `json:"course"`
	Score      *Score `json:"score,omitempty"`
}

// Passed reports whether this attempt carries a passing grade.
func (r StudentCourseRegistration) Passed() bool {
	return r.Score != nil && r.Score.Passing()
}

// Failed reports whether this attempt was graded and failed; ungraded
// attempts are neither passed nor failed and never become carryovers.
func (r StudentCourseRegistration) Failed() bool {
	return r.Score != nil && r.Score.Grade.Valid && !r.Score.Passing()
}

type Student struct {
	ID                string      `json:"id"`
	RegNo             string      `json:"reg_no"`
	ProgramID         string      `json:"program_id"`
	DepartmentID      string      `json:"department_id"`
	CurrentLevelID    string      `json:"current_level_id"`
	CurrentSeasonID   string      `json:"current_season_id"`
	CurrentSemesterID string      `json:"current_semester_id"`
	AdmissionSeasonID string      `json:"admission_season_id"`
	IsActive          bool        `json:"is_active"`
	IsGraduated       bool        `json:"is_graduated"`
	GraduationSeason  null.String `json:"graduation_season_id"`
	GraduationSem     null.String `json:"graduation_semester_id"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`

	// academic context, populated by the repository on joined reads
	CurrentLevel    *Level      `json:"current_level,omitempty"`
	Program         *Program    `json:"program,omitempty"`
	Department      *Department `json:"department,omitempty"`
	AdmissionSeason *Season     `json:"admission_season,omitempty"`
}

// HasAcademicContext reports whether the joined fields the rules engine
// depends on are all resolved.
func (s Student) HasAcademicContext() bool {
	return s.CurrentLevel != nil && s.Program != nil && s.AdmissionSeason != nil
}

// PeriodUnitRequirement is the advisory min/max credit-unit allowance for a
// (program, level, semester type) period. It is surfaced to callers, never
// enforced inside eligibility computation.
type PeriodUnitRequirement struct {
	ID           string       `json:"id"`
	ProgramID    string       `json:"program_id"`
	LevelID      string       `json:"level_id"`
	SemesterType SemesterType `json:"semester_type"`
	MinUnits     int          `json:"min_units"`
	MaxUnits     int          `json:"max_units"`
}

// StudentFilter narrows a bulk student read. Zero values mean "no restriction";
// boolean pointers distinguish unset from false.
type StudentFilter struct {
	FacultyID    string
	DepartmentID string
	ProgramID    string
	DegreeType   DegreeType
	IsActive     *bool
	IsGraduated  *bool
	// Progressible additionally restricts to programs with Duration > 0.
	Progressible bool
}

// StudentStateUpdate is one staged academic-state mutation. Prior* fields
// hold the state read before the decision was computed; the store conditions
// the UPDATE on them so a concurrent batch cannot double-advance a student.
type StudentStateUpdate struct {
	StudentID string

	PriorLevelID    string
	PriorSeasonID   string
	PriorSemesterID string
	PriorGraduated  bool

	NewLevelID    string
	NewSeasonID   string
	NewSemesterID string

	Graduated          bool
	Active             bool
	GraduationSeasonID null.String
	GraduationSemID    null.String
}
