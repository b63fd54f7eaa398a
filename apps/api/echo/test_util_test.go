package echoapi

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/volatiletech/null/v8"

	"github.com/akadahq/akada/core"
	"github.com/akadahq/akada/core/academic"
	logsvc "github.com/akadahq/akada/services/logger"
	inmemdb "github.com/akadahq/akada/storage/database/inmem"
)

var testSecretKey = "secret"

type httpErr struct {
	Error string `json:"error"`
}

func setupTestServer(t *testing.T) (*inmemdb.DB, Server) {
	t.Helper()

	db := inmemdb.Open()
	logger := logsvc.NewConsoleLogger(log.New(os.Stdout, "TEST : ", 0))
	logger.Enable(false)

	validate := validator.New()
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	svc := academic.NewService(
		inmemdb.NewCatalogRepository(db),
		inmemdb.NewStudentRepository(db),
		logger,
	)
	srv := NewServer(&Options{
		Addr:           ":0",
		DisableReqLogs: true,
		Conf:           &core.Config{Env: "TEST", TestMode: true, SecretKey: testSecretKey},
		Logger:         logger,
		AcademicSvc:    svc,
		Validate:       validate,
		Translator:     translator,
	})
	return db, srv
}

func getToken(t *testing.T, claims *Claims) string {
	t.Helper()
	claims.ExpiresAt = time.Now().Add(time.Hour).Unix()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecretKey))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func adminToken(t *testing.T) string {
	return getToken(t, &Claims{IsAdmin: true})
}

func studentToken(t *testing.T, st academic.Student) string {
	claims := &Claims{RegNo: st.RegNo, IsStudent: true}
	claims.Subject = st.ID
	return getToken(t, claims)
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// testFixture is a seeded 2-year ND catalog with two students: one with every
// course passed and one carrying a failed course into the final level.
type testFixture struct {
	season    academic.Season
	semFirst  academic.Semester
	target    academic.Season
	targetSem academic.Semester

	program  academic.Program
	l100     academic.Level
	l200     academic.Level
	acc101   academic.Course
	acc201   academic.Course
	finalist academic.Student
	repeater academic.Student
}

func seedAcademicData(db *inmemdb.DB) testFixture {
	var f testFixture
	start := time.Date(2021, 9, 1, 0, 0, 0, 0, time.UTC)

	fac := db.AddFaculty(academic.Faculty{Name: "Management Sciences"})
	dept := db.AddDepartment(academic.Department{Name: "Accountancy", FacultyID: fac.ID})
	f.l100 = db.AddLevel(academic.Level{Name: "ND I", Value: 100, DegreeType: academic.DegreeND})
	f.l200 = db.AddLevel(academic.Level{Name: "ND II", Value: 200, DegreeType: academic.DegreeND})
	f.program = db.AddProgram(academic.Program{
		Name:         "ND Accountancy",
		DepartmentID: dept.ID,
		DegreeType:   academic.DegreeND,
		Duration:     2,
	})
	f.acc101 = db.AddCourse(academic.Course{Code: "ACC101", Title: "Intro to Accounting", Units: 3})
	f.acc201 = db.AddCourse(academic.Course{Code: "ACC201", Title: "Cost Accounting", Units: 3})
	db.AddProgramCourse(academic.ProgramCourse{
		ProgramID: f.program.ID, LevelID: f.l100.ID, IsActive: true,
		Course: academic.Course{ID: f.acc101.ID},
	})
	db.AddProgramCourse(academic.ProgramCourse{
		ProgramID: f.program.ID, LevelID: f.l200.ID, IsActive: true,
		Course: academic.Course{ID: f.acc201.ID},
	})
	db.AddPrerequisite(academic.CoursePrerequisite{
		CourseID: f.acc201.ID, IsActive: true,
		Prerequisite: academic.Course{ID: f.acc101.ID},
	})

	f.season = db.AddSeason(academic.Season{Name: "2021/2022", StartDate: start, EndDate: start.AddDate(1, 0, 0)})
	f.semFirst = db.AddSemester(academic.Semester{SeasonID: f.season.ID, Type: academic.SemesterFirst, Number: 1})
	f.target = db.AddSeason(academic.Season{Name: "2022/2023", StartDate: start.AddDate(1, 0, 0), EndDate: start.AddDate(2, 0, 0)})
	f.targetSem = db.AddSemester(academic.Semester{SeasonID: f.target.ID, Type: academic.SemesterFirst, Number: 1})

	f.finalist = db.AddStudent(academic.Student{
		RegNo:             "ND/21/001",
		ProgramID:         f.program.ID,
		DepartmentID:      dept.ID,
		CurrentLevelID:    f.l200.ID,
		CurrentSeasonID:   f.season.ID,
		CurrentSemesterID: f.semFirst.ID,
		AdmissionSeasonID: f.season.ID,
		IsActive:          true,
	})
	db.AddRegistration(academic.StudentCourseRegistration{
		StudentID: f.finalist.ID, SeasonID: f.season.ID, SemesterID: f.semFirst.ID,
		Course: academic.Course{ID: f.acc101.ID},
		Score:  &academic.Score{Grade: null.StringFrom("A")},
	})
	db.AddRegistration(academic.StudentCourseRegistration{
		StudentID: f.finalist.ID, SeasonID: f.season.ID, SemesterID: f.semFirst.ID,
		Course: academic.Course{ID: f.acc201.ID},
		Score:  &academic.Score{Grade: null.StringFrom("B")},
	})

	f.repeater = db.AddStudent(academic.Student{
		RegNo:             "ND/21/002",
		ProgramID:         f.program.ID,
		DepartmentID:      dept.ID,
		CurrentLevelID:    f.l200.ID,
		CurrentSeasonID:   f.season.ID,
		CurrentSemesterID: f.semFirst.ID,
		AdmissionSeasonID: f.season.ID,
		IsActive:          true,
	})
	db.AddRegistration(academic.StudentCourseRegistration{
		StudentID: f.repeater.ID, SeasonID: f.season.ID, SemesterID: f.semFirst.ID,
		Course: academic.Course{ID: f.acc101.ID},
		Score:  &academic.Score{Grade: null.StringFrom("F")},
	})
	db.AddRegistration(academic.StudentCourseRegistration{
		StudentID: f.repeater.ID, SeasonID: f.season.ID, SemesterID: f.semFirst.ID,
		Course: academic.Course{ID: f.acc201.ID},
		Score:  &academic.Score{Grade: null.StringFrom("C")},
	})
	return f
}
