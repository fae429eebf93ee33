package endpoints

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudent_RegisterAndUnregister(t *testing.T) {
	c := newCampus(t)
	ada := c.tokenFor(t, c.student.Email)
	section := fmt.Sprintf(`{"id":%d}`, c.section.ID)

	w := do(c.srv, "POST", "/student/register", section, ada)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	registered := decodeObject(t, w)
	assert.Equal(t, float64(c.section.ID), registered["id"])
	assert.Equal(t, "CS201", registered["course"].(map[string]interface{})["code"])

	w = do(c.srv, "POST", "/student/register", section, ada)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You are already registered with this section", errorOf(t, w))

	w = do(c.srv, "POST", "/student/register", section, c.tokenFor(t, c.classmate.Email))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Section is full", errorOf(t, w))

	w = do(c.srv, "GET", "/student/sections/registered", "", ada)
	require.Equal(t, http.StatusOK, w.Code)
	sections := decodeList(t, w)
	require.Len(t, sections, 1)
	assert.Equal(t, "Turing", sections[0]["instructor"].(map[string]interface{})["lastName"])

	w = do(c.srv, "POST", "/student/unregister", section, ada)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(c.srv, "POST", "/student/unregister", section, ada)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You are not registered with this section", errorOf(t, w))

	w = do(c.srv, "GET", "/student/sections/registered", "", ada)
	assert.Equal(t, "[]", w.Body.String())
}

func TestStudent_RegisterErrors(t *testing.T) {
	c := newCampus(t)
	ada := c.tokenFor(t, c.student.Email)

	w := do(c.srv, "POST", "/student/register", `{"id":999}`, ada)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(c.srv, "POST", "/student/register", `{}`, ada)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(c.srv, "POST", "/student/register", fmt.Sprintf(`{"id":%d}`, c.section.ID), c.adminToken(t))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStudent_AvailableCourses(t *testing.T) {
	c := newCampus(t)
	ada := c.tokenFor(t, c.student.Email)

	w := do(c.srv, "GET", "/student/courses", "", ada)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	courses := decodeList(t, w)
	require.Len(t, courses, 1)
	course := courses[0]["course"].(map[string]interface{})
	assert.Equal(t, "CS201", course["code"])
	assert.Len(t, course["sections"], 1)

	require.Equal(t, http.StatusOK, do(c.srv, "POST", "/student/register", fmt.Sprintf(`{"id":%d}`, c.section.ID), ada).Code)

	w = do(c.srv, "GET", "/student/courses", "", ada)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestStudent_Grades(t *testing.T) {
	c := newCampus(t)
	ada := c.tokenFor(t, c.student.Email)

	w := do(c.srv, "GET", "/student/grades", "", ada)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	require.Equal(t, http.StatusOK, do(c.srv, "POST", "/student/register", fmt.Sprintf(`{"id":%d}`, c.section.ID), ada).Code)
	gradeTypeID := c.addGradeType(t, "Final", 60)
	alan := c.tokenFor(t, c.instructor.Email)
	w = do(c.srv, "POST", fmt.Sprintf("/instructor/grade/%d", c.student.ID), fmt.Sprintf(`{"score":75,"gradeTypeId":%d}`, gradeTypeID), alan)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(c.srv, "GET", "/student/grades", "", ada)
	require.Equal(t, http.StatusOK, w.Code)
	grades := decodeList(t, w)
	require.Len(t, grades, 1)
	assert.Equal(t, float64(75), grades[0]["score"])
	assert.Equal(t, "Final", grades[0]["gradeType"].(map[string]interface{})["name"])
}

// addGradeType gives the campus section a grade type through the
// instructor route and returns its id.
func (c *campus) addGradeType(t *testing.T, name string, value int) uint {
	t.Helper()
	body := fmt.Sprintf(`[{"name":%q,"value":%d}]`, name, value)
	w := do(c.srv, "POST", fmt.Sprintf("/instructor/gradetypes/%d", c.section.ID), body, c.tokenFor(t, c.instructor.Email))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, gt := range decodeObject(t, w)["gradeTypes"].([]interface{}) {
		obj := gt.(map[string]interface{})
		if obj["name"] == name {
			return idOf(t, obj)
		}
	}
	t.Fatalf("grade type %s not returned", name)
	return 0
}
