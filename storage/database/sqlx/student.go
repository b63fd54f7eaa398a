package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/akadahq/akada/core/academic"
)

type studentRepository struct {
	db *sqlx.DB
}

var _ academic.StudentRepository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

type programRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	DepartmentID string `db:"department_id"`
	DegreeType   string `db:"degree_type"`
	Duration     int    `db:"duration"`
}

type departmentRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	FacultyID string `db:"faculty_id"`
}

type studentRow struct {
	ID                string      `db:"id"`
	RegNo             string      `db:"reg_no"`
	ProgramID         string      `db:"program_id"`
	DepartmentID      string      `db:"department_id"`
	CurrentLevelID    string      `db:"current_level_id"`
	CurrentSeasonID   string      `db:"current_season_id"`
	CurrentSemesterID string      `db:"current_semester_id"`
	AdmissionSeasonID string      `db:"admission_season_id"`
	IsActive          bool        `db:"is_active"`
	IsGraduated       bool        `db:"is_graduated"`
	GraduationSeason  null.String `db:"graduation_season_id"`
	GraduationSem     null.String `db:"graduation_semester_id"`
	CreatedAt         time.Time   `db:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at"`

	Level      levelRow      `db:"level"`
	Program    programRow    `db:"program"`
	Department departmentRow `db:"department"`
	Admission  seasonRow     `db:"admission"`
}

func (r studentRow) model() academic.Student {
	level := r.Level.model()
	prog := academic.Program{
		ID:           r.Program.ID,
		Name:         r.Program.Name,
		DepartmentID: r.Program.DepartmentID,
		DegreeType:   academic.DegreeType(r.Program.DegreeType),
		Duration:     r.Program.Duration,
	}
	dept := academic.Department{ID: r.Department.ID, Name: r.Department.Name, FacultyID: r.Department.FacultyID}
	admission := r.Admission.model()
	return academic.Student{
		ID:                r.ID,
		RegNo:             r.RegNo,
		ProgramID:         r.ProgramID,
		DepartmentID:      r.DepartmentID,
		CurrentLevelID:    r.CurrentLevelID,
		CurrentSeasonID:   r.CurrentSeasonID,
		CurrentSemesterID: r.CurrentSemesterID,
		AdmissionSeasonID: r.AdmissionSeasonID,
		IsActive:          r.IsActive,
		IsGraduated:       r.IsGraduated,
		GraduationSeason:  r.GraduationSeason,
		GraduationSem:     r.GraduationSem,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		CurrentLevel:      &level,
		Program:           &prog,
		Department:        &dept,
		AdmissionSeason:   &admission,
	}
}

// studentSelect joins the academic context the rules engine needs, so bulk
// reads stay a single query.
const studentSelect = `
	SELECT s.id, s.reg_no, s.program_id, s.department_id,
		s.current_level_id, s.current_season_id, s.current_semester_id, s.admission_season_id,
		s.is_active, s.is_graduated, s.graduation_season_id, s.graduation_semester_id,
		s.created_at, s.updated_at,
		l.id AS "level.id", l.name AS "level.name", l.value AS "level.value",
		l."order" AS "level.order", l.degree_type AS "level.degree_type",
		p.id AS "program.id", p.name AS "program.name", p.department_id AS "program.department_id",
		p.degree_type AS "program.degree_type", p.duration AS "program.duration",
		d.id AS "department.id", d.name AS "department.name", d.faculty_id AS "department.faculty_id",
		adm.id AS "admission.id", adm.name AS "admission.name",
		adm.start_date AS "admission.start_date", adm.end_date AS "admission.end_date"
	FROM student s
	JOIN level l ON l.id = s.current_level_id
	JOIN program p ON p.id = s.program_id
	JOIN department d ON d.id = s.department_id
	JOIN season adm ON adm.id = s.admission_season_id`

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (academic.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, studentSelect+` WHERE s.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return academic.Student{}, academic.ErrStudentNotFound
		}
		return academic.Student{}, wrapErr(err, "selecting student")
	}
	return row.model(), nil
}

func (repo *studentRepository) FilterStudents(ctx context.Context, filter academic.StudentFilter) ([]academic.Student, error) {
	conds := make([]string, 0, 6)
	args := make([]interface{}, 0, 6)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.IsActive != nil {
		conds = append(conds, "s.is_active = "+arg(*filter.IsActive))
	}
	if filter.IsGraduated != nil {
		conds = append(conds, "s.is_graduated = "+arg(*filter.IsGraduated))
	}
	if filter.ProgramID != "" {
		conds = append(conds, "s.program_id = "+arg(filter.ProgramID))
	}
	if filter.DepartmentID != "" {
		conds = append(conds, "s.department_id = "+arg(filter.DepartmentID))
	}
	if filter.FacultyID != "" {
		conds = append(conds, "d.faculty_id = "+arg(filter.FacultyID))
	}
	if filter.DegreeType != "" {
		conds = append(conds, "p.degree_type = "+arg(string(filter.DegreeType)))
	}
	if filter.Progressible {
		conds = append(conds, "p.duration > 0")
	}

	query := studentSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY s.reg_no"

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapErr(err, "selecting students")
	}
	studs := make([]academic.Student, 0, len(rows))
	for _, r := range rows {
		studs = append(studs, r.model())
	}
	return studs, nil
}

type registrationRow struct {
	ID         string    `db:"id"`
	StudentID  string    `db:"student_id"`
	SeasonID   string    `db:"season_id"`
	SemesterID string    `db:"semester_id"`
	Course     courseRow `db:"course"`

	Score scoreRow `db:"score"`
}

// scoreRow is LEFT-JOINed; a null id means the attempt is ungraded.
type scoreRow struct {
	ID    null.String `db:"id"`
	Grade null.String `db:"grade"`
}

func (r registrationRow) model() academic.StudentCourseRegistration {
	reg := academic.StudentCourseRegistration{
		ID:         r.ID,
		StudentID:  r.StudentID,
		SeasonID:   r.SeasonID,
		SemesterID: r.SemesterID,
		Course:     r.Course.model(),
	}
	if r.Score.ID.Valid {
		reg.Score = &academic.Score{ID: r.Score.ID.String, RegistrationID: r.ID, Grade: r.Score.Grade}
	}
	return reg
}

func (repo *studentRepository) GetRegistrations(ctx context.Context, studentID string, since time.Time) ([]academic.StudentCourseRegistration, error) {
	query := `
		SELECT r.id, r.student_id, r.season_id, r.semester_id, ` + courseColumns + `,
			sc.id AS "score.id", sc.grade AS "score.grade"
		FROM student_course_registration r
		JOIN course c ON c.id = r.course_id
		JOIN season se ON se.id = r.season_id
		LEFT JOIN score sc ON sc.registration_id = r.id
		WHERE r.student_id = $1`
	args := []interface{}{studentID}
	if !since.IsZero() {
		query += ` AND se.start_date >= $2`
		args = append(args, since)
	}

	var rows []registrationRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapErr(err, "selecting registrations")
	}
	regs := make([]academic.StudentCourseRegistration, 0, len(rows))
	for _, r := range rows {
		regs = append(regs, r.model())
	}
	return regs, nil
}

// UpdateStudentAcademicStates applies every staged update in one transaction.
// Each UPDATE is conditioned on the state the engine read before deciding, so
// a row changed by a concurrent batch affects zero rows and rolls the whole
// transaction back instead of double-advancing the student.
func (repo *studentRepository) UpdateStudentAcademicStates(ctx context.Context, updates []academic.StudentStateUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapErr(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	const stmt = `
		UPDATE student SET
			current_level_id = $1,
			current_season_id = $2,
			current_semester_id = $3,
			is_graduated = $4,
			is_active = $5,
			graduation_season_id = $6,
			graduation_semester_id = $7,
			updated_at = NOW() AT TIME ZONE 'utc'
		WHERE id = $8
			AND current_level_id = $9
			AND current_season_id = $10
			AND current_semester_id = $11
			AND is_graduated = $12`

	for _, up := range updates {
		res, err := tx.ExecContext(ctx, stmt,
			up.NewLevelID, up.NewSeasonID, up.NewSemesterID,
			up.Graduated, up.Active, up.GraduationSeasonID, up.GraduationSemID,
			up.StudentID, up.PriorLevelID, up.PriorSeasonID, up.PriorSemesterID, up.PriorGraduated,
		)
		if err != nil {
			return wrapErr(err, "updating student %s", up.StudentID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapErr(err, "updating student %s", up.StudentID)
		}
		if n != 1 {
			return errors.Errorf("student %s was modified concurrently; batch rolled back", up.StudentID)
		}
	}
	return wrapErr(tx.Commit(), "committing student updates")
}
