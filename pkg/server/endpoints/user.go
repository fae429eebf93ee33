package endpoints

import (
	"net/http"

	"github.com/doodlesbykumbi/registrar/pkg/server"
)

// RegisterUserEndpoints registers /user/self for every role.
func RegisterUserEndpoints(s *server.Server) {
	userRouter := s.Router.PathPrefix("/user").Subrouter()
	userRouter.Use(s.Auth.Middleware)

	userRouter.HandleFunc("/self", handleSelf()).Methods("GET")
}

func handleSelf() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, caller(r))
	}
}
