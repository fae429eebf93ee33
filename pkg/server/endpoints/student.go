package endpoints

import (
	"context"
	"net/http"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
	"github.com/doodlesbykumbi/registrar/pkg/audit"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
	"github.com/doodlesbykumbi/registrar/pkg/model"
	"github.com/doodlesbykumbi/registrar/pkg/server"
	"github.com/doodlesbykumbi/registrar/pkg/server/middleware"
	"github.com/doodlesbykumbi/registrar/pkg/server/store"
)

// RegisterStudentEndpoints registers the actions a student takes on their
// own record. They share the /student prefix with the administrator CRUD
// routes and must be registered first.
func RegisterStudentEndpoints(s *server.Server) {
	enrollment := s.EnrollmentStore
	requireStudent := s.Auth.Require(identity.RoleStudent)

	handle := func(path string, h http.HandlerFunc, method string) {
		s.Router.Handle("/student"+path, requireStudent(h)).Methods(method)
	}

	handle("/register", handleRegisterSection(enrollment), "POST")
	handle("/unregister", handleUnregisterSection(enrollment), "POST")
	handle("/sections/registered", handleRegisteredSections(enrollment), "GET")
	handle("/courses", handleAvailableCourses(enrollment), "GET")
	handle("/grades", handleStudentGrades(enrollment), "GET")
}

func handleRegisterSection(enrollment store.EnrollmentStore) http.HandlerFunc {
	return enrollmentAction("register", enrollment.Register)
}

func handleUnregisterSection(enrollment store.EnrollmentStore) http.HandlerFunc {
	return enrollmentAction("unregister", enrollment.Unregister)
}

func enrollmentAction(operation string, act func(ctx context.Context, studentID, sectionID uint) (*model.Section, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ref idRef
		if err := decodeJSON(r, &ref); err != nil {
			respondWithAppError(w, r, err)
			return
		}
		if ref.ID == 0 {
			respondWithAppError(w, r, apperr.Validation("section id is required"))
			return
		}

		student := caller(r)
		section, err := act(r.Context(), student.ID, ref.ID)

		event := audit.EnrollmentEvent{
			UserID:    student.Email,
			ClientIP:  middleware.ClientIP(r),
			SectionID: ref.ID,
			Operation: operation,
			Success:   err == nil,
		}
		if err != nil {
			event.ErrorMessage = err.Error()
		}
		audit.Log(event)

		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		respondWithEntity(w, r, http.StatusOK, section)
	}
}

func handleRegisteredSections(enrollment store.EnrollmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sections, err := enrollment.RegisteredSections(r.Context(), caller(r).ID)
		respondWithList(w, r, sections, err)
	}
}

func handleAvailableCourses(enrollment store.EnrollmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courses, err := enrollment.AvailableCourses(r.Context(), caller(r).ID)
		respondWithList(w, r, courses, err)
	}
}

func handleStudentGrades(enrollment store.EnrollmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		grades, err := enrollment.Grades(r.Context(), caller(r).ID)
		respondWithList(w, r, grades, err)
	}
}
