package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
)

const password = "correct horse"

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	authToken    string

	// ids maps a scenario-local name, such as a course code or an email,
	// to the id the server assigned.
	ids map[string]uint
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:  tc,
		ids: make(map[string]uint),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, s.tc.Reset(ctx)
	})

	// Background steps
	sc.Step(`^a registrar server is running$`, s.aRegistrarServerIsRunning)
	sc.Step(`^an administrator "([^"]*)" is registered$`, s.anAdministratorIsRegistered)
	sc.Step(`^a department "([^"]*)" with program "([^"]*)" exists$`, s.aDepartmentWithProgramExists)
	sc.Step(`^a course "([^"]*)" worth (\d+) ects exists in program "([^"]*)"$`, s.aCourseExists)
	sc.Step(`^an instructor "([^"]*)" exists in department "([^"]*)"$`, s.anInstructorExists)
	sc.Step(`^a student "([^"]*)" in year (\d+) semester (\d+) exists in program "([^"]*)"$`, s.aStudentExists)
	sc.Step(`^section (\d+) of "([^"]*)" taught by "([^"]*)" has capacity (\d+)$`, s.aSectionExists)

	// Authentication steps
	sc.Step(`^I log in as "([^"]*)"$`, s.iLogInAs)
	sc.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, s.iLogInWithPassword)
	sc.Step(`^I register an administrator "([^"]*)"$`, s.iRegisterAnAdministrator)

	// Request steps
	sc.Step(`^I (GET|DELETE) "([^"]*)"$`, s.iRequest)
	sc.Step(`^I (POST|PUT) "([^"]*)" with:$`, s.iRequestWith)
	sc.Step(`^I register for section (\d+) of "([^"]*)"$`, s.iRegisterForSection)
	sc.Step(`^I unregister from section (\d+) of "([^"]*)"$`, s.iUnregisterFromSection)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response body should be "([^"]*)"$`, s.theResponseBodyShouldBe)
	sc.Step(`^the response error should be "([^"]*)"$`, s.theResponseErrorShouldBe)
	sc.Step(`^the response should be a list of (\d+) items?$`, s.theResponseShouldBeAListOf)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, s.theResponseFieldShouldBe)

	s.registerTokenSteps(sc)
}

// Background steps

func (s *StepsContext) aRegistrarServerIsRunning() error {
	// Server is already running via TestContext
	return nil
}

func (s *StepsContext) anAdministratorIsRegistered(email string) error {
	if err := s.iRegisterAnAdministrator(email); err != nil {
		return err
	}
	if s.response.StatusCode != http.StatusOK {
		return fmt.Errorf("registering %s returned %d: %s", email, s.response.StatusCode, s.responseBody)
	}
	return s.iLogInAs(email)
}

func (s *StepsContext) aDepartmentWithProgramExists(department, program string) error {
	deptID, err := s.create("/department", department, map[string]interface{}{"name": department})
	if err != nil {
		return err
	}
	_, err = s.create("/program", program, map[string]interface{}{"name": program, "departmentId": deptID})
	return err
}

func (s *StepsContext) aCourseExists(code string, ects int, program string) error {
	_, err := s.create("/course", code, map[string]interface{}{
		"name":      code,
		"code":      code,
		"ects":      ects,
		"programId": s.ids[program],
	})
	return err
}

func (s *StepsContext) anInstructorExists(email, department string) error {
	_, err := s.create("/instructor", email, map[string]interface{}{
		"email":          email,
		"password":       password,
		"firstName":      "Test",
		"lastName":       "Instructor",
		"employeeNumber": "E-" + email,
		"departmentId":   s.ids[department],
	})
	return err
}

func (s *StepsContext) aStudentExists(email string, year, semester int, program string) error {
	_, err := s.create("/student", email, map[string]interface{}{
		"email":         email,
		"password":      password,
		"firstName":     "Test",
		"lastName":      "Student",
		"studentNumber": "S-" + email,
		"year":          year,
		"semester":      semester,
		"programId":     s.ids[program],
	})
	return err
}

func (s *StepsContext) aSectionExists(number int, course, instructor string, capacity int) error {
	_, err := s.create("/section", sectionKey(number, course), map[string]interface{}{
		"number":       number,
		"capacity":     capacity,
		"courseId":     s.ids[course],
		"instructorId": s.ids[instructor],
	})
	return err
}

func sectionKey(number int, course string) string {
	return course + "#" + strconv.Itoa(number)
}

// create posts body to path and records the new id under name.
func (s *StepsContext) create(path, name string, body map[string]interface{}) (uint, error) {
	if err := s.send(http.MethodPost, path, body); err != nil {
		return 0, err
	}
	if s.response.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("POST %s returned %d: %s", path, s.response.StatusCode, s.responseBody)
	}
	var created struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(s.responseBody, &created); err != nil {
		return 0, err
	}
	s.ids[name] = created.ID
	return created.ID, nil
}

// Authentication steps

func (s *StepsContext) iLogInAs(email string) error {
	if err := s.iLogInWithPassword(email, password); err != nil {
		return err
	}
	if s.response.StatusCode != http.StatusOK {
		return fmt.Errorf("login as %s returned %d: %s", email, s.response.StatusCode, s.responseBody)
	}
	return nil
}

func (s *StepsContext) iLogInWithPassword(email, pw string) error {
	s.authToken = ""
	if err := s.send(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": pw}); err != nil {
		return err
	}
	if s.response.StatusCode != http.StatusOK {
		return nil
	}

	var login struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(s.responseBody, &login); err != nil {
		return err
	}
	s.authToken = login.Token
	if login.Role == "Administrator" {
		s.tc.adminToken = login.Token
	}
	return nil
}

func (s *StepsContext) iRegisterAnAdministrator(email string) error {
	return s.send(http.MethodPost, "/auth/register", map[string]string{
		"email":     email,
		"password":  password,
		"firstName": "Root",
		"lastName":  "Admin",
	})
}

// Request steps

func (s *StepsContext) iRequest(method, path string) error {
	return s.send(method, s.expand(path), nil)
}

func (s *StepsContext) iRequestWith(method, path string, body *godog.DocString) error {
	return s.sendRaw(method, s.expand(path), []byte(s.expand(body.Content)))
}

func (s *StepsContext) iRegisterForSection(number int, course string) error {
	return s.send(http.MethodPost, "/student/register", map[string]uint{"id": s.ids[sectionKey(number, course)]})
}

func (s *StepsContext) iUnregisterFromSection(number int, course string) error {
	return s.send(http.MethodPost, "/student/unregister", map[string]uint{"id": s.ids[sectionKey(number, course)]})
}

// expand replaces {name} with the id recorded for name.
func (s *StepsContext) expand(text string) string {
	for name, id := range s.ids {
		text = strings.ReplaceAll(text, "{"+name+"}", strconv.FormatUint(uint64(id), 10))
	}
	return text
}

func (s *StepsContext) send(method, path string, body interface{}) error {
	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			return err
		}
	}
	return s.sendRaw(method, path, raw)
}

func (s *StepsContext) sendRaw(method, path string, raw []byte) error {
	var reader io.Reader
	if raw != nil {
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.tc.ServerURL+path, reader)
	if err != nil {
		return err
	}
	if raw != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.authToken != "" {
		req.Header.Set("X-Auth-Token", s.authToken)
	}

	s.response, err = s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	s.responseBody, err = io.ReadAll(s.response.Body)
	_ = s.response.Body.Close()
	return err
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expected int) error {
	if s.response == nil {
		return fmt.Errorf("no response received")
	}
	if s.response.StatusCode != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseBodyShouldBe(expected string) error {
	if got := strings.TrimSpace(string(s.responseBody)); got != expected {
		return fmt.Errorf("expected body %q, got %q", expected, got)
	}
	return nil
}

func (s *StepsContext) theResponseErrorShouldBe(expected string) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return fmt.Errorf("response is not an error object: %s", s.responseBody)
	}
	if body.Error != expected {
		return fmt.Errorf("expected error %q, got %q", expected, body.Error)
	}
	return nil
}

func (s *StepsContext) theResponseShouldBeAListOf(n int) error {
	var items []json.RawMessage
	if err := json.Unmarshal(s.responseBody, &items); err != nil {
		return fmt.Errorf("response is not a list: %s", s.responseBody)
	}
	if len(items) != n {
		return fmt.Errorf("expected %d items, got %d: %s", n, len(items), s.responseBody)
	}
	return nil
}

func (s *StepsContext) theResponseFieldShouldBe(field, expected string) error {
	var body map[string]interface{}
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return fmt.Errorf("response is not an object: %s", s.responseBody)
	}
	value, ok := body[field]
	if !ok {
		return fmt.Errorf("field %q missing from %s", field, s.responseBody)
	}
	if got := fmt.Sprint(value); got != expected {
		return fmt.Errorf("expected %s=%q, got %q", field, expected, got)
	}
	return nil
}
