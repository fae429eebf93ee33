package endpoints

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructor_Sections(t *testing.T) {
	c := newCampus(t)

	w := do(c.srv, "GET", "/instructor/sections", "", c.tokenFor(t, c.instructor.Email))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sections := decodeList(t, w)
	require.Len(t, sections, 1)
	assert.Equal(t, "CS201", sections[0]["course"].(map[string]interface{})["code"])

	w = do(c.srv, "GET", "/instructor/sections", "", c.tokenFor(t, c.colleague.Email))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = do(c.srv, "GET", "/instructor/sections", "", c.tokenFor(t, c.student.Email))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInstructor_GradeTypes(t *testing.T) {
	c := newCampus(t)
	alan := c.tokenFor(t, c.instructor.Email)
	path := fmt.Sprintf("/instructor/gradetypes/%d", c.section.ID)

	midterm := c.addGradeType(t, "Midterm", 40)

	body := fmt.Sprintf(`[{"id":%d,"name":"Midterm exam","value":30},{"name":"Project","value":70}]`, midterm)
	w := do(c.srv, "POST", path, body, alan)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(c.srv, "GET", path, "", alan)
	require.Equal(t, http.StatusOK, w.Code)
	gradeTypes := decodeList(t, w)
	require.Len(t, gradeTypes, 2)
	assert.Equal(t, "Midterm exam", gradeTypes[0]["name"])
	assert.Equal(t, float64(30), gradeTypes[0]["value"])
	assert.Equal(t, "Project", gradeTypes[1]["name"])

	w = do(c.srv, "POST", path, `[{"value":10}]`, alan)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(c.srv, "POST", path, `[{"id":999,"name":"Ghost","value":10}]`, alan)
	assert.Equal(t, http.StatusNotFound, w.Code)

	grace := c.tokenFor(t, c.colleague.Email)
	w = do(c.srv, "GET", path, "", grace)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(c.srv, "POST", path, `[{"name":"Quiz","value":10}]`, grace)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInstructor_Grading(t *testing.T) {
	c := newCampus(t)
	alan := c.tokenFor(t, c.instructor.Email)
	final := c.addGradeType(t, "Final", 100)
	gradePath := fmt.Sprintf("/instructor/grade/%d", c.student.ID)

	w := do(c.srv, "POST", gradePath, fmt.Sprintf(`{"score":50,"gradeTypeId":%d}`, final), alan)
	assert.Equal(t, http.StatusBadRequest, w.Code, "student is not registered yet")

	require.Equal(t, http.StatusOK, do(c.srv, "POST", "/student/register", fmt.Sprintf(`{"id":%d}`, c.section.ID), c.tokenFor(t, c.student.Email)).Code)

	w = do(c.srv, "POST", gradePath, fmt.Sprintf(`{"score":50,"gradeType":{"id":%d}}`, final), alan)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	grade := decodeObject(t, w)
	assert.Equal(t, float64(50), grade["score"])
	gradeID := idOf(t, grade)

	w = do(c.srv, "POST", gradePath, fmt.Sprintf(`{"id":%d,"score":90,"gradeTypeId":%d}`, gradeID, final), alan)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(90), decodeObject(t, w)["score"])

	w = do(c.srv, "GET", fmt.Sprintf("/instructor/grades/%d", c.student.ID), "", alan)
	require.Equal(t, http.StatusOK, w.Code)
	grades := decodeList(t, w)
	require.Len(t, grades, 1)
	assert.Equal(t, float64(90), grades[0]["score"])

	w = do(c.srv, "GET", fmt.Sprintf("/instructor/section/%d/students", c.section.ID), "", alan)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	students := decodeList(t, w)
	require.Len(t, students, 1)
	assert.Equal(t, "ada@example.edu", students[0]["email"])
	assert.Len(t, students[0]["grades"], 1)

	grace := c.tokenFor(t, c.colleague.Email)
	w = do(c.srv, "GET", fmt.Sprintf("/instructor/grades/%d", c.student.ID), "", grace)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = do(c.srv, "POST", gradePath, fmt.Sprintf(`{"score":10,"gradeTypeId":%d}`, final), grace)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(c.srv, "GET", fmt.Sprintf("/instructor/section/%d/students", c.section.ID), "", grace)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(c.srv, "POST", "/instructor/grade/999", fmt.Sprintf(`{"score":10,"gradeTypeId":%d}`, final), alan)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
