package inmemdb

import (
	"context"
	"sort"

	"github.com/akadahq/akada/core/academic"
)

type catalogRepository struct {
	db *DB
}

var _ academic.CatalogRepository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *DB) *catalogRepository {
	return &catalogRepository{db: db}
}

func (repo *catalogRepository) GetLevelsByDegreeType(_ context.Context, dt academic.DegreeType) ([]academic.Level, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	levels := make([]academic.Level, 0)
	for _, l := range repo.db.levels {
		if l.DegreeType == dt {
			levels = append(levels, l)
		}
	}
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].Value != levels[j].Value {
			return levels[i].Value < levels[j].Value
		}
		return levels[i].Order < levels[j].Order
	})
	return levels, nil
}

func (repo *catalogRepository) GetProgramCoursesForLevels(_ context.Context, programID string, levelIDs ...string) ([]academic.ProgramCourse, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	wanted := make(map[string]bool, len(levelIDs))
	for _, id := range levelIDs {
		wanted[id] = true
	}
	pcs := make([]academic.ProgramCourse, 0)
	for _, pc := range repo.db.programCourses {
		if pc.IsActive && pc.ProgramID == programID && wanted[pc.LevelID] {
			pcs = append(pcs, pc)
		}
	}
	return pcs, nil
}

func (repo *catalogRepository) GetPrerequisitesForCourses(_ context.Context, courseIDs ...string) ([]academic.CoursePrerequisite, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	wanted := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = true
	}
	pres := make([]academic.CoursePrerequisite, 0)
	for _, pre := range repo.db.prerequisites {
		if pre.IsActive && wanted[pre.CourseID] {
			pres = append(pres, pre)
		}
	}
	return pres, nil
}

func (repo *catalogRepository) GetUnitRequirement(_ context.Context, programID, levelID string, st academic.SemesterType) (academic.PeriodUnitRequirement, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, ur := range repo.db.unitReqs {
		if ur.ProgramID == programID && ur.LevelID == levelID && ur.SemesterType == st {
			return ur, nil
		}
	}
	return academic.PeriodUnitRequirement{}, academic.ErrUnitRequirementNotFound
}

func (repo *catalogRepository) GetSeason(_ context.Context, id string) (academic.Season, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.seasons[id]; ok {
		return s, nil
	}
	return academic.Season{}, academic.ErrSeasonNotFound
}

func (repo *catalogRepository) GetSemester(_ context.Context, id string) (academic.Semester, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.semesters[id]; ok {
		return s, nil
	}
	return academic.Semester{}, academic.ErrSemesterNotFound
}

func (repo *catalogRepository) GetFirstSemester(_ context.Context, seasonID string) (academic.Semester, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var first *academic.Semester
	for _, s := range repo.db.semesters {
		if s.SeasonID != seasonID || s.Type != academic.SemesterFirst {
			continue
		}
		s := s
		if first == nil || s.Number < first.Number {
			first = &s
		}
	}
	if first == nil {
		return academic.Semester{}, academic.ErrSemesterNotFound
	}
	return *first, nil
}
