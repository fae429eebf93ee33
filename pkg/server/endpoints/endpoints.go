package endpoints

import (
	"github.com/doodlesbykumbi/registrar/pkg/server"
)

// RegisterAll mounts every registrar route on s. Student and instructor
// actions go before the CRUD routes that share their prefixes.
func RegisterAll(s *server.Server) {
	RegisterStatusEndpoints(s)
	RegisterAuthEndpoints(s)
	RegisterUserEndpoints(s)
	RegisterAdminEndpoints(s)
	RegisterStudentEndpoints(s)
	RegisterInstructorEndpoints(s)
	RegisterEntityEndpoints(s)
}
