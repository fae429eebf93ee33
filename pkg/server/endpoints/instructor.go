package endpoints

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/doodlesbykumbi/registrar/pkg/audit"
	"github.com/doodlesbykumbi/registrar/pkg/entity"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
	"github.com/doodlesbykumbi/registrar/pkg/model"
	"github.com/doodlesbykumbi/registrar/pkg/server"
	"github.com/doodlesbykumbi/registrar/pkg/server/middleware"
	"github.com/doodlesbykumbi/registrar/pkg/server/store"
)

// RegisterInstructorEndpoints registers the grading actions of an
// instructor. Section ids must name one of the caller's own sections;
// student ids are resolved through the caller's sections only.
func RegisterInstructorEndpoints(s *server.Server) {
	teaching := s.TeachingStore
	requireInstructor := s.Auth.Require(identity.RoleInstructor)

	handle := func(path string, h http.HandlerFunc, method string) {
		s.Router.Handle("/instructor"+path, requireInstructor(h)).Methods(method)
	}

	handle("/sections", handleInstructorSections(teaching), "GET")
	handle("/section/{id:[0-9]+}/students", handleSectionStudents(teaching), "GET")
	handle("/gradetypes/{id:[0-9]+}", handleGradeTypes(teaching), "GET")
	handle("/gradetypes/{id:[0-9]+}", handleSetGradeTypes(teaching, s.Validate), "POST")
	handle("/grades/{id:[0-9]+}", handleInstructorStudentGrades(teaching), "GET")
	handle("/grade/{id:[0-9]+}", handleSetGrade(teaching, s.Validate), "POST")
}

func handleInstructorSections(teaching store.TeachingStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sections, err := teaching.Sections(r.Context(), caller(r).ID)
		respondWithList(w, r, sections, err)
	}
}

func handleSectionStudents(teaching store.TeachingStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sectionID, err := pathID(r, "id")
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		students, err := teaching.SectionStudents(r.Context(), caller(r).ID, sectionID)
		respondWithList(w, r, students, err)
	}
}

func handleGradeTypes(teaching store.TeachingStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sectionID, err := pathID(r, "id")
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		gradeTypes, err := teaching.GradeTypes(r.Context(), caller(r).ID, sectionID)
		respondWithList(w, r, gradeTypes, err)
	}
}

func handleSetGradeTypes(teaching store.TeachingStore, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sectionID, err := pathID(r, "id")
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		var gradeTypes []model.GradeType
		if err := decodeJSON(r, &gradeTypes); err != nil {
			respondWithAppError(w, r, err)
			return
		}
		for i := range gradeTypes {
			if err := entity.Check(validate, "gradeType", &gradeTypes[i]); err != nil {
				respondWithAppError(w, r, err)
				return
			}
		}

		instructor := caller(r)
		section, err := teaching.SetGradeTypes(r.Context(), instructor.ID, sectionID, gradeTypes)
		logGradeEvent(r, instructor, "set-grade-types", sectionID, 0, err)
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		respondWithEntity(w, r, http.StatusOK, section)
	}
}

func handleInstructorStudentGrades(teaching store.TeachingStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID, err := pathID(r, "id")
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		grades, err := teaching.StudentGrades(r.Context(), caller(r).ID, studentID)
		respondWithList(w, r, grades, err)
	}
}

func handleSetGrade(teaching store.TeachingStore, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID, err := pathID(r, "id")
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		var grade model.StudentGrade
		if err := decodeJSON(r, &grade); err != nil {
			respondWithAppError(w, r, err)
			return
		}
		if err := entity.Check(validate, "studentGrade", &grade); err != nil {
			respondWithAppError(w, r, err)
			return
		}

		instructor := caller(r)
		saved, err := teaching.SetGrade(r.Context(), instructor.ID, studentID, grade)
		var sectionID uint
		if saved != nil && saved.GradeType != nil {
			sectionID = saved.GradeType.SectionID
		}
		logGradeEvent(r, instructor, "set-grade", sectionID, studentID, err)
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		respondWithEntity(w, r, http.StatusOK, saved)
	}
}

func logGradeEvent(r *http.Request, instructor identity.Identity, operation string, sectionID, studentID uint, err error) {
	event := audit.GradeEvent{
		UserID:    instructor.Email,
		ClientIP:  middleware.ClientIP(r),
		SectionID: sectionID,
		StudentID: studentID,
		Operation: operation,
		Success:   err == nil,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	audit.Log(event)
}
