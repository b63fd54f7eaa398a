package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/akadahq/akada/core"
	"github.com/akadahq/akada/core/academic"
)

type academicApi struct {
	svc        *academic.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAcademicAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *academic.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := academicApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	ag := g.Group("/academic", jwt, adminMiddleware())
	ag.POST("/progression", api.runProgression)
	ag.POST("/context", api.applyContext)

	sg := g.Group("/students", jwt)
	sg.GET("/me/eligible-courses", api.myEligibleCourses, studentMiddleware())

	dg := sg.Group("/:id", adminMiddleware())
	dg.GET("/eligible-courses", api.eligibleCourses)
	dg.GET("/graduation-eligibility", api.graduationEligibility)
}

// Requests

type ProgressionRequest struct {
	SeasonID   string `json:"season_id" validate:"required"`
	SemesterID string `json:"semester_id"`
	Scope      string `json:"scope" validate:"required"`
	ScopeID    string `json:"scope_id" validate:"required_unless=Scope ALL"`
	DegreeType string `json:"degree_type"`
}

func (r *ProgressionRequest) Validate(v *validator.Validate) error {
	r.Scope = core.CleanString(r.Scope, true /* upper */)
	r.DegreeType = core.CleanString(r.DegreeType, true /* upper */)
	return v.Struct(r)
}

type ContextAssignment struct {
	DegreeType string `json:"degree_type" validate:"required"`
	LevelID    string `json:"level_id" validate:"required"`
	SemesterID string `json:"semester_id" validate:"required"`
}

type ContextUpdateRequest struct {
	Scope       string              `json:"scope" validate:"required"`
	ScopeID     string              `json:"scope_id" validate:"required_unless=Scope ALL"`
	Assignments []ContextAssignment `json:"assignments" validate:"required,min=1,dive"`
}

func (r *ContextUpdateRequest) Validate(v *validator.Validate) error {
	r.Scope = core.CleanString(r.Scope, true /* upper */)
	for i := range r.Assignments {
		r.Assignments[i].DegreeType = core.CleanString(r.Assignments[i].DegreeType, true /* upper */)
	}
	return v.Struct(r)
}

// Handlers

func (api *academicApi) runProgression(ctx echo.Context) error {
	var data ProgressionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProgressionRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.RunProgression(ctx.Request().Context(), academic.ProgressionRequest{
		SeasonID:   data.SeasonID,
		SemesterID: data.SemesterID,
		Scope:      academic.Scope(data.Scope),
		ScopeID:    data.ScopeID,
		DegreeType: academic.DegreeType(data.DegreeType),
	})
	if err != nil {
		if core.IsValidationError(err) {
			return err
		}
		return errors.Wrap(err, "running progression")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *academicApi) applyContext(ctx echo.Context) error {
	var data ContextUpdateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ContextUpdateRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	req := academic.ContextUpdateRequest{
		Scope:   academic.Scope(data.Scope),
		ScopeID: data.ScopeID,
	}
	for _, a := range data.Assignments {
		req.Assignments = append(req.Assignments, academic.ContextAssignment{
			DegreeType: academic.DegreeType(a.DegreeType),
			LevelID:    a.LevelID,
			SemesterID: a.SemesterID,
		})
	}
	res, err := api.svc.ApplyAcademicContext(ctx.Request().Context(), req)
	if err != nil {
		if core.IsValidationError(err) {
			return err
		}
		return errors.Wrap(err, "applying academic context")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *academicApi) eligibleCourses(ctx echo.Context) error {
	res, err := api.svc.ResolveEligibleCoursesAdmin(
		ctx.Request().Context(),
		ctx.Param("id"),
		ctx.QueryParam("season"),
		ctx.QueryParam("semester"),
	)
	if err != nil {
		if core.IsValidationError(err) {
			return err
		}
		return errors.Wrap(err, "resolving eligible courses")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *academicApi) myEligibleCourses(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errUnauthorized
	}
	res, err := api.svc.ResolveEligibleCourses(
		ctx.Request().Context(),
		claims.Subject,
		ctx.QueryParam("season"),
		ctx.QueryParam("semester"),
	)
	if err != nil {
		if core.IsValidationError(err) {
			return err
		}
		return errors.Wrap(err, "resolving eligible courses")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *academicApi) graduationEligibility(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	st, err := api.svc.GetStudent(reqCtx, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == academic.ErrStudentNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "student not found")
		}
		return errors.Wrap(err, "loading student")
	}
	if st.Program == nil {
		return core.NewValidationError(errors.New("student has no program assigned"))
	}
	res, err := api.svc.EvaluateGraduation(reqCtx, academic.GraduationInput{
		StudentID:         st.ID,
		ProgramID:         st.ProgramID,
		AdmissionSeasonID: st.AdmissionSeasonID,
		DegreeType:        st.Program.DegreeType,
		ProgramDuration:   st.Program.Duration,
	})
	if err != nil {
		return errors.Wrap(err, "evaluating graduation")
	}
	return ctx.JSON(http.StatusOK, res)
}
