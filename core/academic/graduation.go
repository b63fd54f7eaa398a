package academic

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// GraduationInput carries the already-resolved facts the evaluator needs;
// nothing is re-fetched from the student row so callers (and tests) control
// exactly what is being evaluated.
type GraduationInput struct {
	StudentID         string
	ProgramID         string
	AdmissionSeasonID string
	DegreeType        DegreeType
	ProgramDuration   int
}

// GraduationResult is a normal outcome either way; "not eligible" is never an error.
type GraduationResult struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason"`
}

// EvaluateGraduation checks completion of every active curriculum course
// across the program's level range. A course is complete when any attempt
// since admission carries a passing grade. Curriculum-listed electives are
// treated as mandatory, same as cores.
func (svc *Service) EvaluateGraduation(ctx context.Context, in GraduationInput) (GraduationResult, error) {
	if in.ProgramDuration == 0 {
		return GraduationResult{Eligible: true, Reason: "program has no defined duration; completion check does not apply"}, nil
	}

	levels, err := svc.catalog.GetLevelsByDegreeType(ctx, in.DegreeType)
	if err != nil {
		return GraduationResult{}, errors.Wrap(err, "loading levels")
	}
	finalValue := in.ProgramDuration * LevelStep
	levelIDs := make([]string, 0, len(levels))
	for _, l := range levels {
		if l.Value >= MinLevelValue && l.Value <= finalValue {
			levelIDs = append(levelIDs, l.ID)
		}
	}

	curriculum, err := svc.catalog.GetProgramCoursesForLevels(ctx, in.ProgramID, levelIDs...)
	if err != nil {
		return GraduationResult{}, errors.Wrap(err, "loading curriculum")
	}
	if len(curriculum) == 0 {
		// an undefined curriculum cannot fail anyone
		return GraduationResult{Eligible: true, Reason: "no curriculum defined for program"}, nil
	}

	admission, err := svc.catalog.GetSeason(ctx, in.AdmissionSeasonID)
	if err != nil {
		return GraduationResult{}, errors.Wrap(err, "loading admission season")
	}
	regs, err := svc.students.GetRegistrations(ctx, in.StudentID, admission.StartDate)
	if err != nil {
		return GraduationResult{}, errors.Wrap(err, "loading registrations")
	}

	curriculumIDs := make(map[string]bool, len(curriculum))
	for _, pc := range curriculum {
		curriculumIDs[pc.Course.ID] = true
	}
	passed := make(map[string]bool, len(regs))
	for _, reg := range regs {
		if curriculumIDs[reg.Course.ID] && reg.Passed() {
			passed[reg.Course.ID] = true
		}
	}

	var missing []string
	seen := make(map[string]bool, len(curriculum))
	for _, pc := range curriculum {
		if seen[pc.Course.ID] {
			continue
		}
		seen[pc.Course.ID] = true
		if passed[pc.Course.ID] {
			continue
		}
		kind := "core"
		if pc.IsElective {
			kind = "elective"
		}
		missing = append(missing, fmt.Sprintf("%s (%s)", pc.Course.Code, kind))
	}
	if len(missing) > 0 {
		return GraduationResult{
			Eligible: false,
			Reason:   fmt.Sprintf("no passing grade for: %s", strings.Join(missing, ", ")),
		}, nil
	}
	return GraduationResult{Eligible: true, Reason: "all curriculum courses passed"}, nil
}
