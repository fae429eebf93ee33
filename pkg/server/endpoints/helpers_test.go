package endpoints

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/doodlesbykumbi/registrar/pkg/audit"
	"github.com/doodlesbykumbi/registrar/pkg/config"
	"github.com/doodlesbykumbi/registrar/pkg/db"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
	"github.com/doodlesbykumbi/registrar/pkg/model"
	"github.com/doodlesbykumbi/registrar/pkg/server"
	"github.com/doodlesbykumbi/registrar/pkg/token"
)

func init() {
	audit.SetEnabled(false)
	model.SetPasswordCost(bcrypt.MinCost)
}

var testKey = []byte("0123456789abcdef0123456789abcdef")

const testPassword = "correct horse"

func testConfig() *config.RegistrarConfig {
	return &config.RegistrarConfig{
		TokenTTLSeconds:    3600,
		BcryptCost:         bcrypt.MinCost,
		AdminRegistration:  config.RegistrationBootstrap,
		CORSAllowedOrigins: []string{"*"},
		ListLimitMax:       1000,
		LogLevel:           "info",
		DatabaseDriver:     db.DriverSQLite,
	}
}

// newTestServer returns a server over an empty in-memory database with
// every route registered.
func newTestServer(t *testing.T, cfg *config.RegistrarConfig) *server.Server {
	t.Helper()
	gdb, err := db.Connect(db.Config{Driver: db.DriverSQLite, URL: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cache := identity.NewCache()
	tokens, err := token.NewService(testKey, time.Hour, cache)
	require.NoError(t, err)

	s := server.NewServer(cfg, gdb, cache, tokens, zerolog.Nop(), "127.0.0.1", "0")
	s.AccessLog = io.Discard
	require.NoError(t, s.ReloadCache(context.Background(), server.TriggerStartup, ""))
	RegisterAll(s)
	return s
}

// campus is a small registrar: one program with two courses, a section of
// capacity one taught by alan, a colleague, two students and an
// administrator.
type campus struct {
	srv        *server.Server
	dept       model.Department
	program    model.Program
	course     model.Course
	other      model.Course
	section    model.Section
	admin      model.Admin
	instructor model.Instructor
	colleague  model.Instructor
	student    model.Student
	classmate  model.Student
}

func newCampus(t *testing.T) *campus {
	t.Helper()
	s := newTestServer(t, testConfig())
	gdb := s.DB
	c := &campus{srv: s}

	user := func(email, first, last string) model.User {
		u := model.User{Email: email, FirstName: first, LastName: last}
		require.NoError(t, u.SetPassword(testPassword))
		return u
	}

	c.admin = model.Admin{User: user("root@example.edu", "Root", "Admin")}
	require.NoError(t, gdb.Create(&c.admin).Error)

	c.dept = model.Department{Name: "Engineering"}
	require.NoError(t, gdb.Create(&c.dept).Error)

	c.program = model.Program{Name: "CS", DepartmentID: c.dept.ID}
	require.NoError(t, gdb.Omit("Department").Create(&c.program).Error)

	c.course = model.Course{Name: "Algorithms", Code: "CS201", Ects: 6, ProgramID: c.program.ID}
	c.other = model.Course{Name: "Compilers", Code: "CS301", Ects: 7.5, ProgramID: c.program.ID}
	require.NoError(t, gdb.Omit("Program").Create(&c.course).Error)
	require.NoError(t, gdb.Omit("Program").Create(&c.other).Error)

	c.instructor = model.Instructor{User: user("alan@example.edu", "Alan", "Turing"), DepartmentID: c.dept.ID}
	c.colleague = model.Instructor{User: user("grace@example.edu", "Grace", "Hopper"), DepartmentID: c.dept.ID}
	require.NoError(t, gdb.Omit("Department").Create(&c.instructor).Error)
	require.NoError(t, gdb.Omit("Department").Create(&c.colleague).Error)

	c.section = model.Section{Number: 1, Capacity: 1, CourseID: c.course.ID, InstructorID: c.instructor.ID}
	require.NoError(t, gdb.Omit("Course", "Instructor").Create(&c.section).Error)

	c.student = model.Student{User: user("ada@example.edu", "Ada", "Lovelace"), Year: 2, Semester: 1, ProgramID: c.program.ID}
	c.classmate = model.Student{User: user("edsger@example.edu", "Edsger", "Dijkstra"), Year: 2, Semester: 1, ProgramID: c.program.ID}
	require.NoError(t, gdb.Omit("Program").Create(&c.student).Error)
	require.NoError(t, gdb.Omit("Program").Create(&c.classmate).Error)

	entry := model.CurriculumCourse{Year: 1, Semester: 1, Elective: model.ElectiveNo, ProgramID: c.program.ID, CourseID: c.course.ID}
	require.NoError(t, gdb.Omit("Program", "Course").Create(&entry).Error)

	require.NoError(t, s.ReloadCache(context.Background(), server.TriggerStartup, ""))
	return c
}

// tokenFor issues a token for the identity with email.
func (c *campus) tokenFor(t *testing.T, email string) string {
	t.Helper()
	id, ok := c.srv.Cache.FindByEmail(email)
	require.True(t, ok, "%s is not cached", email)
	signed, _, err := c.srv.Tokens.Issue(id)
	require.NoError(t, err)
	return signed
}

func (c *campus) adminToken(t *testing.T) string {
	return c.tokenFor(t, c.admin.Email)
}

func do(s *server.Server, method, path, body, tok string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("X-Auth-Token", tok)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeObject(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeObject(t, w)
	msg, _ := body["error"].(string)
	return msg
}

func idOf(t *testing.T, obj map[string]interface{}) uint {
	t.Helper()
	id, ok := obj["id"].(float64)
	require.True(t, ok, "no id in %v", obj)
	return uint(id)
}

