package endpoints

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/doodlesbykumbi/registrar/pkg/entity"
	"github.com/doodlesbykumbi/registrar/pkg/model"
	"github.com/doodlesbykumbi/registrar/pkg/server"
	"github.com/doodlesbykumbi/registrar/pkg/server/store"
)

// RegisterEntityEndpoints mounts the administrator CRUD routes of every
// registered entity, plus the curriculum replacement of a program.
func RegisterEntityEndpoints(s *server.Server) {
	registerCRUD[model.Department](s, "/department")
	_, programs := registerCRUD[model.Program](s, "/program")
	registerCRUD[model.Course](s, "/course")
	registerCRUD[model.Section](s, "/section")
	registerCRUD[model.Instructor](s, "/instructor")
	registerCRUD[model.Student](s, "/student")

	curriculum := handleReplaceCurriculum(s.CurriculumStore, s.Validate)
	programs.HandleFunc(byID+"/curriculum", curriculum).Methods("POST")
	programs.HandleFunc(byID+"/curriculum/", curriculum).Methods("POST")
}

func handleReplaceCurriculum(curriculum store.CurriculumStore, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		programID, err := pathID(r, "id")
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		var entries []model.CurriculumCourse
		if err := decodeJSON(r, &entries); err != nil {
			respondWithAppError(w, r, err)
			return
		}
		for i := range entries {
			if err := entity.Check(validate, "curriculumCourse", &entries[i]); err != nil {
				respondWithAppError(w, r, err)
				return
			}
		}

		saved, err := curriculum.ReplaceCurriculum(r.Context(), programID, entries)
		respondWithList(w, r, saved, err)
	}
}
