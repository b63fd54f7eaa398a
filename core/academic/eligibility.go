package academic

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/akadahq/akada/core"
)

// OfferingReason says why a course is in the registrable set.
type OfferingReason string

const (
	OfferingCurrent   OfferingReason = "current-offering"
	OfferingCarryover OfferingReason = "carryover"
)

// CourseEligibility is one registrable course, annotated with everything a
// registration UI needs to display or gate it.
type CourseEligibility struct {
	Course     Course         `json:"course"`
	IsElective bool           `json:"is_elective"`
	Reason     OfferingReason `json:"reason"`
	// PrerequisitesMet is false when any active prerequisite lacks a passing
	// grade; the course is still returned, flagged, never silently hidden.
	PrerequisitesMet   bool     `json:"prerequisites_met"`
	UnmetPrerequisites []string `json:"unmet_prerequisites,omitempty"`
	// IsRegistered is only populated by the administrative variant; the
	// student variant filters registered courses out instead.
	IsRegistered bool `json:"is_registered,omitempty"`
}

type EligibleCoursesResult struct {
	Student  Student  `json:"student"`
	Season   Season   `json:"target_season"`
	Semester Semester `json:"target_semester"`
	// UnitRequirement is the advisory min/max credit units for the target
	// period; nil when the catalog defines none.
	UnitRequirement  *PeriodUnitRequirement `json:"unit_requirement,omitempty"`
	AvailableCourses []CourseEligibility    `json:"available_courses"`
}

// ResolveEligibleCourses computes the registrable course set for a student in
// the target period: current curriculum offerings plus eligible carryovers,
// minus passed and already-registered courses, with prerequisite annotations.
// Read-only and side-effect-free.
func (svc *Service) ResolveEligibleCourses(ctx context.Context, studentID, seasonID, semesterID string) (EligibleCoursesResult, error) {
	return svc.resolveEligibility(ctx, studentID, seasonID, semesterID, false)
}

// ResolveEligibleCoursesAdmin is the staff variant: courses already
// registered in the target period are kept and flagged IsRegistered instead
// of being filtered out.
func (svc *Service) ResolveEligibleCoursesAdmin(ctx context.Context, studentID, seasonID, semesterID string) (EligibleCoursesResult, error) {
	return svc.resolveEligibility(ctx, studentID, seasonID, semesterID, true)
}

func (svc *Service) resolveEligibility(ctx context.Context, studentID, seasonID, semesterID string, keepRegistered bool) (EligibleCoursesResult, error) {
	st, err := svc.students.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Cause(err) == ErrStudentNotFound {
			return EligibleCoursesResult{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: "student not found"})
		}
		return EligibleCoursesResult{}, errors.Wrap(err, "loading student")
	}
	if st.CurrentLevel == nil || st.Program == nil {
		return EligibleCoursesResult{}, core.NewValidationError(
			errors.New("student has no academic context"),
			core.FieldError{Field: "student_id", Error: "student is missing a current level or program"},
		)
	}
	season, semester, err := svc.resolveTarget(ctx, seasonID, semesterID)
	if err != nil {
		return EligibleCoursesResult{}, err
	}

	// entire registration history: passing is passing no matter when
	regs, err := svc.students.GetRegistrations(ctx, st.ID, time.Time{})
	if err != nil {
		return EligibleCoursesResult{}, errors.Wrap(err, "loading registrations")
	}
	passed := make(map[string]bool, len(regs))
	registeredInTarget := make(map[string]bool)
	for _, reg := range regs {
		if reg.Passed() {
			passed[reg.Course.ID] = true
		}
		if reg.SeasonID == season.ID && reg.SemesterID == semester.ID {
			registeredInTarget[reg.Course.ID] = true
		}
	}

	// current offerings at the student's level
	offerings, err := svc.catalog.GetProgramCoursesForLevels(ctx, st.ProgramID, st.CurrentLevelID)
	if err != nil {
		return EligibleCoursesResult{}, errors.Wrap(err, "loading current offerings")
	}
	available := make(map[string]CourseEligibility, len(offerings))
	for _, pc := range offerings {
		if !pc.Course.OfferedIn(semester.Type) || passed[pc.Course.ID] {
			continue
		}
		available[pc.Course.ID] = CourseEligibility{
			Course:     pc.Course,
			IsElective: pc.IsElective,
			Reason:     OfferingCurrent,
		}
	}

	// carryovers: previously failed, not passed since, not already offered
	for _, reg := range regs {
		if reg.SeasonID == season.ID && reg.SemesterID == semester.ID {
			continue // the target period's own rows are not "prior" attempts
		}
		if !reg.Failed() || passed[reg.Course.ID] || !reg.Course.OfferedIn(semester.Type) {
			continue
		}
		if _, ok := available[reg.Course.ID]; ok {
			continue // the offering entry carries richer metadata; it wins
		}
		available[reg.Course.ID] = CourseEligibility{
			Course: reg.Course,
			Reason: OfferingCarryover,
		}
	}

	courses := make([]CourseEligibility, 0, len(available))
	courseIDs := make([]string, 0, len(available))
	for id, ce := range available {
		if registeredInTarget[id] {
			if !keepRegistered {
				continue
			}
			ce.IsRegistered = true
		}
		courses = append(courses, ce)
		courseIDs = append(courseIDs, id)
	}

	// prerequisite gating: flag, never filter
	if len(courseIDs) > 0 {
		prereqs, err := svc.catalog.GetPrerequisitesForCourses(ctx, courseIDs...)
		if err != nil {
			return EligibleCoursesResult{}, errors.Wrap(err, "loading prerequisites")
		}
		unmetByCourse := make(map[string][]string)
		for _, pre := range prereqs {
			if !passed[pre.Prerequisite.ID] {
				unmetByCourse[pre.CourseID] = append(unmetByCourse[pre.CourseID], pre.Prerequisite.Code)
			}
		}
		for i := range courses {
			unmet := unmetByCourse[courses[i].Course.ID]
			sort.Strings(unmet)
			courses[i].PrerequisitesMet = len(unmet) == 0
			courses[i].UnmetPrerequisites = unmet
		}
	}

	sort.Slice(courses, func(i, j int) bool { return courses[i].Course.Code < courses[j].Course.Code })

	res := EligibleCoursesResult{
		Student:          st,
		Season:           season,
		Semester:         semester,
		AvailableCourses: courses,
	}
	unitReq, err := svc.catalog.GetUnitRequirement(ctx, st.ProgramID, st.CurrentLevelID, semester.Type)
	switch {
	case err == nil:
		res.UnitRequirement = &unitReq
	case errors.Cause(err) == ErrUnitRequirementNotFound:
		// advisory only; absence is fine
	default:
		return EligibleCoursesResult{}, errors.Wrap(err, "loading unit requirement")
	}
	return res, nil
}
