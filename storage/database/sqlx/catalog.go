package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/akadahq/akada/core/academic"
)

type catalogRepository struct {
	db *sqlx.DB
}

var _ academic.CatalogRepository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *sqlx.DB) *catalogRepository {
	return &catalogRepository{db: db}
}

type levelRow struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	Value      int    `db:"value"`
	Order      int    `db:"order"`
	DegreeType string `db:"degree_type"`
}

func (r levelRow) model() academic.Level {
	return academic.Level{
		ID:         r.ID,
		Name:       r.Name,
		Value:      r.Value,
		Order:      r.Order,
		DegreeType: academic.DegreeType(r.DegreeType),
	}
}

type courseRow struct {
	ID                    string      `db:"id"`
	Code                  string      `db:"code"`
	Title                 string      `db:"title"`
	Units                 int         `db:"units"`
	PreferredSemesterType null.String `db:"preferred_semester_type"`
}

func (r courseRow) model() academic.Course {
	return academic.Course{
		ID:                    r.ID,
		Code:                  r.Code,
		Title:                 r.Title,
		Units:                 r.Units,
		PreferredSemesterType: r.PreferredSemesterType,
	}
}

const courseColumns = `
	c.id AS "course.id", c.code AS "course.code", c.title AS "course.title",
	c.units AS "course.units", c.preferred_semester_type AS "course.preferred_semester_type"`

func (repo *catalogRepository) GetLevelsByDegreeType(ctx context.Context, dt academic.DegreeType) ([]academic.Level, error) {
	var rows []levelRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, name, value, "order", degree_type FROM level WHERE degree_type = $1 ORDER BY value, "order"`, dt)
	if err != nil {
		return nil, wrapErr(err, "selecting levels")
	}
	levels := make([]academic.Level, 0, len(rows))
	for _, r := range rows {
		levels = append(levels, r.model())
	}
	return levels, nil
}

type programCourseRow struct {
	ID         string    `db:"id"`
	ProgramID  string    `db:"program_id"`
	LevelID    string    `db:"level_id"`
	IsElective bool      `db:"is_elective"`
	IsActive   bool      `db:"is_active"`
	Course     courseRow `db:"course"`
}

func (repo *catalogRepository) GetProgramCoursesForLevels(ctx context.Context, programID string, levelIDs ...string) ([]academic.ProgramCourse, error) {
	if len(levelIDs) == 0 {
		return []academic.ProgramCourse{}, nil
	}
	query, args, err := sqlx.In(`
		SELECT pc.id, pc.program_id, pc.level_id, pc.is_elective, pc.is_active, `+courseColumns+`
		FROM program_course pc
		JOIN course c ON c.id = pc.course_id
		WHERE pc.is_active AND pc.program_id = ? AND pc.level_id IN (?)`,
		programID, levelIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building program course query")
	}
	var rows []programCourseRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, wrapErr(err, "selecting program courses")
	}
	pcs := make([]academic.ProgramCourse, 0, len(rows))
	for _, r := range rows {
		pcs = append(pcs, academic.ProgramCourse{
			ID:         r.ID,
			ProgramID:  r.ProgramID,
			LevelID:    r.LevelID,
			IsElective: r.IsElective,
			IsActive:   r.IsActive,
			Course:     r.Course.model(),
		})
	}
	return pcs, nil
}

type prerequisiteRow struct {
	ID           string    `db:"id"`
	CourseID     string    `db:"course_id"`
	IsActive     bool      `db:"is_active"`
	Prerequisite courseRow `db:"prerequisite"`
}

func (repo *catalogRepository) GetPrerequisitesForCourses(ctx context.Context, courseIDs ...string) ([]academic.CoursePrerequisite, error) {
	if len(courseIDs) == 0 {
		return []academic.CoursePrerequisite{}, nil
	}
	query, args, err := sqlx.In(`
		SELECT cp.id, cp.course_id, cp.is_active,
			c.id AS "prerequisite.id", c.code AS "prerequisite.code", c.title AS "prerequisite.title",
			c.units AS "prerequisite.units", c.preferred_semester_type AS "prerequisite.preferred_semester_type"
		FROM course_prerequisite cp
		JOIN course c ON c.id = cp.prerequisite_id
		WHERE cp.is_active AND cp.course_id IN (?)`,
		courseIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building prerequisite query")
	}
	var rows []prerequisiteRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, wrapErr(err, "selecting prerequisites")
	}
	pres := make([]academic.CoursePrerequisite, 0, len(rows))
	for _, r := range rows {
		pres = append(pres, academic.CoursePrerequisite{
			ID:           r.ID,
			CourseID:     r.CourseID,
			IsActive:     r.IsActive,
			Prerequisite: r.Prerequisite.model(),
		})
	}
	return pres, nil
}

func (repo *catalogRepository) GetUnitRequirement(ctx context.Context, programID, levelID string, st academic.SemesterType) (academic.PeriodUnitRequirement, error) {
	var row struct {
		ID           string `db:"id"`
		ProgramID    string `db:"program_id"`
		LevelID      string `db:"level_id"`
		SemesterType string `db:"semester_type"`
		MinUnits     int    `db:"min_units"`
		MaxUnits     int    `db:"max_units"`
	}
	err := repo.db.GetContext(ctx, &row, `
		SELECT id, program_id, level_id, semester_type, min_units, max_units
		FROM period_unit_requirement
		WHERE program_id = $1 AND level_id = $2 AND semester_type = $3`,
		programID, levelID, st)
	if err != nil {
		if err == sql.ErrNoRows {
			return academic.PeriodUnitRequirement{}, academic.ErrUnitRequirementNotFound
		}
		return academic.PeriodUnitRequirement{}, wrapErr(err, "selecting unit requirement")
	}
	return academic.PeriodUnitRequirement{
		ID:           row.ID,
		ProgramID:    row.ProgramID,
		LevelID:      row.LevelID,
		SemesterType: academic.SemesterType(row.SemesterType),
		MinUnits:     row.MinUnits,
		MaxUnits:     row.MaxUnits,
	}, nil
}

type seasonRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
}

func (r seasonRow) model() academic.Season {
	return academic.Season{ID: r.ID, Name: r.Name, StartDate: r.StartDate, EndDate: r.EndDate}
}

type semesterRow struct {
	ID       string `db:"id"`
	SeasonID string `db:"season_id"`
	Type     string `db:"type"`
	Number   int    `db:"number"`
}

func (r semesterRow) model() academic.Semester {
	return academic.Semester{ID: r.ID, SeasonID: r.SeasonID, Type: academic.SemesterType(r.Type), Number: r.Number}
}

func (repo *catalogRepository) GetSeason(ctx context.Context, id string) (academic.Season, error) {
	var row seasonRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, name, start_date, end_date FROM season WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return academic.Season{}, academic.ErrSeasonNotFound
		}
		return academic.Season{}, wrapErr(err, "selecting season")
	}
	return row.model(), nil
}

func (repo *catalogRepository) GetSemester(ctx context.Context, id string) (academic.Semester, error) {
	var row semesterRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, season_id, type, number FROM semester WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return academic.Semester{}, academic.ErrSemesterNotFound
		}
		return academic.Semester{}, wrapErr(err, "selecting semester")
	}
	return row.model(), nil
}

func (repo *catalogRepository) GetFirstSemester(ctx context.Context, seasonID string) (academic.Semester, error) {
	var row semesterRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT id, season_id, type, number FROM semester
		WHERE season_id = $1 AND type = $2
		ORDER BY number LIMIT 1`,
		seasonID, academic.SemesterFirst)
	if err != nil {
		if err == sql.ErrNoRows {
			return academic.Semester{}, academic.ErrSemesterNotFound
		}
		return academic.Semester{}, wrapErr(err, "selecting first semester")
	}
	return row.model(), nil
}
