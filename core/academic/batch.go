package academic

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/akadahq/akada/core"
)

// ProgressionRequest targets one teaching period and an organizational scope.
// SemesterID may be empty: the season's first FIRST-type semester is used.
type ProgressionRequest struct {
	SeasonID   string     `json:"season_id"`
	SemesterID string     `json:"semester_id"`
	Scope      Scope      `json:"scope"`
	ScopeID    string     `json:"scope_id"`
	DegreeType DegreeType `json:"degree_type"` // optional filter
}

func (req ProgressionRequest) validate() error {
	var flds []core.FieldError
	if req.SeasonID == "" {
		flds = append(flds, core.FieldError{Field: "season_id", Error: "this field is required"})
	}
	if !req.Scope.Valid() {
		flds = append(flds, core.FieldError{Field: "scope", Error: fmt.Sprintf("unknown scope %q", req.Scope)})
	}
	if req.Scope != ScopeAll && req.Scope.Valid() && req.ScopeID == "" {
		flds = append(flds, core.FieldError{Field: "scope_id", Error: fmt.Sprintf("required for scope %s", req.Scope)})
	}
	if req.DegreeType != "" && !req.DegreeType.Valid() {
		flds = append(flds, core.FieldError{Field: "degree_type", Error: fmt.Sprintf("unknown degree type %q", req.DegreeType)})
	}
	if len(flds) > 0 {
		return core.NewValidationError(errors.New("invalid progression request"), flds...)
	}
	return nil
}

// ProgressionFailure is one ledger entry: a student who did not advance and why.
type ProgressionFailure struct {
	StudentID string `json:"student_id"`
	RegNo     string `json:"reg_no"`
	Reason    string `json:"reason"`
}

type ProgressionResult struct {
	Message            string               `json:"message"`
	ProgressedCount    int                  `json:"progressed_count"`
	StudentsConsidered int                  `json:"students_considered"`
	FailedToProgress   []ProgressionFailure `json:"failed_to_progress"`
}

// progressionBatch accumulates staged updates and the outcome ledger; it is
// built fully in memory and committed exactly once.
type progressionBatch struct {
	updates    []StudentStateUpdate
	failures   []ProgressionFailure
	progressed int
	considered int
}

func (b *progressionBatch) record(st Student, out progressOutcome) {
	b.considered++
	if out.update != nil {
		b.updates = append(b.updates, *out.update)
	}
	if out.progressed {
		b.progressed++
		return
	}
	// no-ops (idempotent re-runs) and per-student failures both land in the
	// ledger; the reason string tells them apart
	b.failures = append(b.failures, ProgressionFailure{StudentID: st.ID, RegNo: st.RegNo, Reason: out.reason})
}

func (b *progressionBatch) result() ProgressionResult {
	return ProgressionResult{
		Message:            fmt.Sprintf("progressed %d of %d students", b.progressed, b.considered),
		ProgressedCount:    b.progressed,
		StudentsConsidered: b.considered,
		FailedToProgress:   b.failures,
	}
}

// levelCache memoizes per-degree-type level lists for the duration of a batch.
type levelCache struct {
	catalog CatalogRepository
	byType  map[DegreeType][]Level
}

func newLevelCache(catalog CatalogRepository) *levelCache {
	return &levelCache{catalog: catalog, byType: make(map[DegreeType][]Level)}
}

func (c *levelCache) get(ctx context.Context, dt DegreeType) ([]Level, error) {
	if levels, ok := c.byType[dt]; ok {
		return levels, nil
	}
	levels, err := c.catalog.GetLevelsByDegreeType(ctx, dt)
	if err != nil {
		return nil, err
	}
	c.byType[dt] = levels
	return levels, nil
}

// resolveTarget validates the requested period: the season must exist, the
// semester must belong to it, and when no semester is given the season's
// first FIRST-type semester is used. Failure here aborts the whole batch.
func (svc *Service) resolveTarget(ctx context.Context, seasonID, semesterID string) (Season, Semester, error) {
	season, err := svc.catalog.GetSeason(ctx, seasonID)
	if err != nil {
		if errors.Cause(err) == ErrSeasonNotFound {
			return Season{}, Semester{}, core.NewValidationError(err, core.FieldError{Field: "season_id", Error: "season not found"})
		}
		return Season{}, Semester{}, errors.Wrap(err, "loading target season")
	}
	var semester Semester
	if semesterID != "" {
		if semester, err = svc.catalog.GetSemester(ctx, semesterID); err != nil {
			if errors.Cause(err) == ErrSemesterNotFound {
				return Season{}, Semester{}, core.NewValidationError(err, core.FieldError{Field: "semester_id", Error: "semester not found"})
			}
			return Season{}, Semester{}, errors.Wrap(err, "loading target semester")
		}
		if semester.SeasonID != season.ID {
			return Season{}, Semester{}, core.NewValidationError(
				errors.New("semester does not belong to season"),
				core.FieldError{Field: "semester_id", Error: "semester does not belong to the target season"},
			)
		}
	} else {
		if semester, err = svc.catalog.GetFirstSemester(ctx, season.ID); err != nil {
			if errors.Cause(err) == ErrSemesterNotFound {
				return Season{}, Semester{}, core.NewValidationError(
					errors.New("season has no first semester"),
					core.FieldError{Field: "season_id", Error: "season has no FIRST-type semester defined"},
				)
			}
			return Season{}, Semester{}, errors.Wrap(err, "resolving default semester")
		}
	}
	return season, semester, nil
}

// scopeFilter resolves an organizational scope to a concrete student filter.
func scopeFilter(scope Scope, scopeID string, dt DegreeType, progressibleOnly bool) StudentFilter {
	active, graduated := true, false
	filter := StudentFilter{
		DegreeType:   dt,
		IsActive:     &active,
		IsGraduated:  &graduated,
		Progressible: progressibleOnly,
	}
	switch scope {
	case ScopeFaculty:
		filter.FacultyID = scopeID
	case ScopeDepartment:
		filter.DepartmentID = scopeID
	case ScopeProgram:
		filter.ProgramID = scopeID
	}
	return filter
}

// RunProgression advances every in-scope student to the target period per
// their degree-type policy, committing all staged updates in one transaction.
// The ledger is assembled in memory and only returned once the commit
// succeeded, so callers never see outcomes that were rolled back.
func (svc *Service) RunProgression(ctx context.Context, req ProgressionRequest) (ProgressionResult, error) {
	if err := req.validate(); err != nil {
		return ProgressionResult{}, err
	}
	season, semester, err := svc.resolveTarget(ctx, req.SeasonID, req.SemesterID)
	if err != nil {
		return ProgressionResult{}, err
	}

	studs, err := svc.students.FilterStudents(ctx, scopeFilter(req.Scope, req.ScopeID, req.DegreeType, true))
	if err != nil {
		return ProgressionResult{}, errors.Wrap(err, "loading students in scope")
	}

	batch := new(progressionBatch)
	levels := newLevelCache(svc.catalog)
	for _, st := range studs {
		out, err := svc.progressStudent(ctx, st, season, semester, levels)
		if err != nil {
			return ProgressionResult{}, err
		}
		batch.record(st, out)
	}

	if len(batch.updates) > 0 {
		if err = svc.students.UpdateStudentAcademicStates(ctx, batch.updates); err != nil {
			return ProgressionResult{}, errors.Wrap(err, "committing progression batch")
		}
	}

	res := batch.result()
	svc.log.Info(fmt.Sprintf("progression to season %s, semester %s: %s", season.Name, semester.ID, res.Message))
	return res, nil
}

// ContextAssignment is an administrator-supplied target state for one
// degree-type group.
type ContextAssignment struct {
	DegreeType DegreeType `json:"degree_type"`
	LevelID    string     `json:"level_id"`
	SemesterID string     `json:"semester_id"`
}

// ContextUpdateRequest is the bulk override path: no progression policy,
// just catalog-validated direct reassignment of academic context.
type ContextUpdateRequest struct {
	Scope       Scope               `json:"scope"`
	ScopeID     string              `json:"scope_id"`
	Assignments []ContextAssignment `json:"assignments"`
}

func (req ContextUpdateRequest) validate() error {
	var flds []core.FieldError
	if !req.Scope.Valid() {
		flds = append(flds, core.FieldError{Field: "scope", Error: fmt.Sprintf("unknown scope %q", req.Scope)})
	}
	if req.Scope != ScopeAll && req.Scope.Valid() && req.ScopeID == "" {
		flds = append(flds, core.FieldError{Field: "scope_id", Error: fmt.Sprintf("required for scope %s", req.Scope)})
	}
	if len(req.Assignments) == 0 {
		flds = append(flds, core.FieldError{Field: "assignments", Error: "at least one assignment is required"})
	}
	seen := make(map[DegreeType]bool, len(req.Assignments))
	for i, a := range req.Assignments {
		fld := fmt.Sprintf("assignments[%d]", i)
		if !a.DegreeType.Valid() {
			flds = append(flds, core.FieldError{Field: fld + ".degree_type", Error: fmt.Sprintf("unknown degree type %q", a.DegreeType)})
		} else if seen[a.DegreeType] {
			flds = append(flds, core.FieldError{Field: fld + ".degree_type", Error: fmt.Sprintf("duplicate assignment for %s", a.DegreeType)})
		}
		seen[a.DegreeType] = true
		if a.LevelID == "" {
			flds = append(flds, core.FieldError{Field: fld + ".level_id", Error: "this field is required"})
		}
		if a.SemesterID == "" {
			flds = append(flds, core.FieldError{Field: fld + ".semester_id", Error: "this field is required"})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(errors.New("invalid context update request"), flds...)
	}
	return nil
}

// resolvedAssignment is a catalog-checked ContextAssignment.
type resolvedAssignment struct {
	level    Level
	season   Season
	semester Semester
}

// ApplyAcademicContext applies administrator-supplied (level, semester)
// targets to every in-scope active student of each assignment's degree type.
// Assignments are validated against the catalog (level exists and belongs to
// the degree type, semester exists) but not policy-gated. Students whose
// degree type has no assignment are left untouched.
func (svc *Service) ApplyAcademicContext(ctx context.Context, req ContextUpdateRequest) (ProgressionResult, error) {
	if err := req.validate(); err != nil {
		return ProgressionResult{}, err
	}

	resolved := make(map[DegreeType]resolvedAssignment, len(req.Assignments))
	for _, a := range req.Assignments {
		levels, err := svc.catalog.GetLevelsByDegreeType(ctx, a.DegreeType)
		if err != nil {
			return ProgressionResult{}, errors.Wrap(err, "loading levels")
		}
		var level *Level
		for i := range levels {
			if levels[i].ID == a.LevelID {
				level = &levels[i]
				break
			}
		}
		if level == nil {
			return ProgressionResult{}, core.NewValidationError(
				ErrLevelNotFound,
				core.FieldError{Field: "level_id", Error: fmt.Sprintf("no %s level with id %s", a.DegreeType, a.LevelID)},
			)
		}
		semester, err := svc.catalog.GetSemester(ctx, a.SemesterID)
		if err != nil {
			if errors.Cause(err) == ErrSemesterNotFound {
				return ProgressionResult{}, core.NewValidationError(err, core.FieldError{Field: "semester_id", Error: "semester not found"})
			}
			return ProgressionResult{}, errors.Wrap(err, "loading semester")
		}
		season, err := svc.catalog.GetSeason(ctx, semester.SeasonID)
		if err != nil {
			return ProgressionResult{}, errors.Wrap(err, "loading semester's season")
		}
		resolved[a.DegreeType] = resolvedAssignment{level: *level, season: season, semester: semester}
	}

	studs, err := svc.students.FilterStudents(ctx, scopeFilter(req.Scope, req.ScopeID, "", false))
	if err != nil {
		return ProgressionResult{}, errors.Wrap(err, "loading students in scope")
	}

	batch := new(progressionBatch)
	for _, st := range studs {
		if st.Program == nil {
			batch.record(st, progressOutcome{reason: "incomplete academic profile (missing program)"})
			continue
		}
		target, ok := resolved[st.Program.DegreeType]
		if !ok {
			continue // no assignment for this degree type
		}
		if st.CurrentLevelID == target.level.ID &&
			st.CurrentSeasonID == target.season.ID &&
			st.CurrentSemesterID == target.semester.ID {
			batch.record(st, progressOutcome{noop: true, reason: "already in target context"})
			continue
		}
		batch.record(st, progressOutcome{
			progressed: true,
			update: &StudentStateUpdate{
				StudentID:       st.ID,
				PriorLevelID:    st.CurrentLevelID,
				PriorSeasonID:   st.CurrentSeasonID,
				PriorSemesterID: st.CurrentSemesterID,
				NewLevelID:      target.level.ID,
				NewSeasonID:     target.season.ID,
				NewSemesterID:   target.semester.ID,
				Active:          true,
			},
		})
	}

	if len(batch.updates) > 0 {
		if err = svc.students.UpdateStudentAcademicStates(ctx, batch.updates); err != nil {
			return ProgressionResult{}, errors.Wrap(err, "committing context updates")
		}
	}

	res := batch.result()
	res.Message = fmt.Sprintf("reassigned academic context for %d of %d students", res.ProgressedCount, res.StudentsConsidered)
	svc.log.Info(res.Message)
	return res, nil
}
