package academic

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

// progressionStrategy computes the single next level for a student, given
// every level defined for the program's degree type. One implementation per
// degree-type family.
type progressionStrategy interface {
	nextLevel(current Level, prog Program, levels []Level) (Level, error)
}

// fixedIncrementStrategy advances by a fixed level-value step of 100
// (UNDERGRADUATE, ND, NCE, HND).
type fixedIncrementStrategy struct{}

func (fixedIncrementStrategy) nextLevel(current Level, prog Program, levels []Level) (Level, error) {
	nextValue := current.Value + LevelStep
	if nextValue > prog.FinalLevelValue() {
		// terminal levels are handled before strategies run; reaching here
		// means the student's level and program duration disagree
		return Level{}, fmt.Errorf("level %d is beyond the program's final level %d", nextValue, prog.FinalLevelValue())
	}
	for _, l := range levels {
		if l.Value == nextValue {
			return l, nil
		}
	}
	return Level{}, fmt.Errorf("no %s level with value %d defined in the catalog", prog.DegreeType, nextValue)
}

// orderedSequenceStrategy advances to the next higher-ordered level
// (MASTERS, PHD, POSTGRADUATE_DIPLOMA, CERTIFICATE, DIPLOMA, ASSOCIATE,
// PROFESSIONAL_DOCTORATE).
type orderedSequenceStrategy struct{}

func (orderedSequenceStrategy) nextLevel(current Level, prog Program, levels []Level) (Level, error) {
	var next *Level
	for i := range levels {
		l := levels[i]
		if l.rank() <= current.rank() {
			continue
		}
		if next == nil || l.rank() < next.rank() {
			next = &levels[i]
		}
	}
	if next == nil {
		return Level{}, fmt.Errorf("no %s level beyond %q defined in the catalog", prog.DegreeType, current.Name)
	}
	return *next, nil
}

var progressionStrategies = map[DegreeType]progressionStrategy{
	DegreeUndergraduate: fixedIncrementStrategy{},
	DegreeND:            fixedIncrementStrategy{},
	DegreeNCE:           fixedIncrementStrategy{},
	DegreeHND:           fixedIncrementStrategy{},

	DegreePostgraduateDiploma: orderedSequenceStrategy{},
	DegreeMasters:             orderedSequenceStrategy{},
	DegreePhD:                 orderedSequenceStrategy{},
	DegreeCertificate:         orderedSequenceStrategy{},
	DegreeDiploma:             orderedSequenceStrategy{},
	DegreeAssociate:           orderedSequenceStrategy{},
	DegreeProfessionalDoc:     orderedSequenceStrategy{},
}

// progressOutcome is the per-student result of one progression decision.
// update and reason are not exclusive: a final-level student who is not yet
// eligible to graduate still gets their period pointer advanced while the
// non-progression is reported in the ledger.
type progressOutcome struct {
	update     *StudentStateUpdate
	progressed bool // level advanced or graduated
	noop       bool // already in the target period
	reason     string
}

// progressStudent runs the per-student decision procedure against the target
// period. Store failures are returned as errors and abort the batch;
// everything else is a normal outcome.
func (svc *Service) progressStudent(ctx context.Context, st Student, season Season, semester Semester, levels *levelCache) (progressOutcome, error) {
	if !st.HasAcademicContext() {
		return progressOutcome{reason: "incomplete academic profile (missing level, program or admission season)"}, nil
	}
	prog := *st.Program
	atTarget := st.CurrentSeasonID == season.ID && st.CurrentSemesterID == semester.ID

	// terminal level: graduation check, never a level lookup. Checked before
	// the no-op short-circuit so that grades entered after an ineligible run
	// can still graduate the student on a re-run of the same period.
	if st.CurrentLevel.Value >= prog.FinalLevelValue() {
		res, err := svc.EvaluateGraduation(ctx, GraduationInput{
			StudentID:         st.ID,
			ProgramID:         prog.ID,
			AdmissionSeasonID: st.AdmissionSeasonID,
			DegreeType:        prog.DegreeType,
			ProgramDuration:   prog.Duration,
		})
		if err != nil {
			return progressOutcome{}, errors.Wrapf(err, "evaluating graduation for student %s", st.RegNo)
		}
		if res.Eligible {
			return progressOutcome{
				progressed: true,
				update: &StudentStateUpdate{
					StudentID:          st.ID,
					PriorLevelID:       st.CurrentLevelID,
					PriorSeasonID:      st.CurrentSeasonID,
					PriorSemesterID:    st.CurrentSemesterID,
					NewLevelID:         st.CurrentLevelID,
					NewSeasonID:        season.ID,
					NewSemesterID:      semester.ID,
					Graduated:          true,
					Active:             false,
					GraduationSeasonID: null.StringFrom(season.ID),
					GraduationSemID:    null.StringFrom(semester.ID),
				},
			}, nil
		}
		if atTarget {
			return progressOutcome{noop: true, reason: "already in target period"}, nil
		}
		// retain the level but still move the period pointer forward
		return progressOutcome{
			reason: fmt.Sprintf("in final level but not eligible to graduate: %s", res.Reason),
			update: &StudentStateUpdate{
				StudentID:       st.ID,
				PriorLevelID:    st.CurrentLevelID,
				PriorSeasonID:   st.CurrentSeasonID,
				PriorSemesterID: st.CurrentSemesterID,
				NewLevelID:      st.CurrentLevelID,
				NewSeasonID:     season.ID,
				NewSemesterID:   semester.ID,
				Active:          true,
			},
		}, nil
	}

	// re-running a batch must not double-advance anyone
	if atTarget {
		return progressOutcome{noop: true, reason: "already in target period"}, nil
	}

	strategy, ok := progressionStrategies[prog.DegreeType]
	if !ok {
		return progressOutcome{reason: fmt.Sprintf("unsupported degree type %q", prog.DegreeType)}, nil
	}
	defined, err := levels.get(ctx, prog.DegreeType)
	if err != nil {
		return progressOutcome{}, errors.Wrap(err, "loading levels")
	}
	next, err := strategy.nextLevel(*st.CurrentLevel, prog, defined)
	if err != nil {
		// catalog gap or data inconsistency: reported per student, never fatal
		return progressOutcome{reason: err.Error()}, nil
	}

	return progressOutcome{
		progressed: true,
		update: &StudentStateUpdate{
			StudentID:       st.ID,
			PriorLevelID:    st.CurrentLevelID,
			PriorSeasonID:   st.CurrentSeasonID,
			PriorSemesterID: st.CurrentSemesterID,
			NewLevelID:      next.ID,
			NewSeasonID:     season.ID,
			NewSemesterID:   semester.ID,
			Active:          true,
		},
	}, nil
}
