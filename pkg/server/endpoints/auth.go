package endpoints

import (
	"mime"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
	"github.com/doodlesbykumbi/registrar/pkg/audit"
	"github.com/doodlesbykumbi/registrar/pkg/config"
	"github.com/doodlesbykumbi/registrar/pkg/entity"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
	"github.com/doodlesbykumbi/registrar/pkg/model"
	"github.com/doodlesbykumbi/registrar/pkg/server"
	"github.com/doodlesbykumbi/registrar/pkg/server/middleware"
	"github.com/doodlesbykumbi/registrar/pkg/token"
)

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	Token string        `json:"token"`
	Role  identity.Role `json:"role"`
}

// RegisterAuthEndpoints registers login and administrator registration.
// Neither route requires a token.
func RegisterAuthEndpoints(s *server.Server) {
	admins := entity.New[model.Admin](s.DB, s.EntityOptions()...)

	s.Router.HandleFunc("/auth/login", handleLogin(s.Cache, s.Tokens)).Methods("POST")
	s.Router.HandleFunc("/auth/register", handleRegister(s.Config, s.Cache, admins)).Methods("POST")
}

func handleLogin(cache *identity.Cache, tokens *token.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := bindForm(r, &req, func(get func(string) string) {
			req.Email = get("email")
			req.Password = get("password")
		}); err != nil {
			respondWithAppError(w, r, err)
			return
		}

		id, err := login(cache, req)
		event := audit.AuthenticateEvent{
			Email:    req.Email,
			ClientIP: middleware.ClientIP(r),
			Success:  err == nil,
		}
		if err != nil {
			event.ErrorMessage = err.Error()
			audit.Log(event)
			respondWithAppError(w, r, err)
			return
		}
		event.Role = string(id.Role)

		signed, _, err := tokens.Issue(id)
		if err != nil {
			event.Success = false
			event.ErrorMessage = err.Error()
			audit.Log(event)
			respondWithAppError(w, r, apperr.Store(err))
			return
		}
		audit.Log(event)
		zerolog.Ctx(r.Context()).Info().Str("email", id.Email).Str("role", string(id.Role)).Msg("login")

		respondWithJSON(w, http.StatusOK, LoginResponse{Token: signed, Role: id.Role})
	}
}

func login(cache *identity.Cache, req LoginRequest) (identity.Identity, error) {
	id, ok := cache.FindByEmail(req.Email)
	if !ok {
		return identity.Identity{}, apperr.Auth("Email is not registered")
	}
	if req.Password == "" {
		return identity.Identity{}, apperr.Auth("Missing password")
	}
	user := model.User{PasswordHash: id.PasswordHash}
	if !user.CheckPassword(req.Password) {
		return identity.Identity{}, apperr.Auth("Invalid password")
	}
	return id, nil
}

func handleRegister(cfg *config.RegistrarConfig, cache *identity.Cache, admins *entity.Engine[model.Admin, *model.Admin]) http.HandlerFunc {
	// serializes the bootstrap check with the insert
	var mu sync.Mutex

	return func(w http.ResponseWriter, r *http.Request) {
		admin := &model.Admin{}
		if err := bindForm(r, admin, func(get func(string) string) {
			admin.Email = get("email")
			admin.Password = get("password")
			admin.FirstName = firstOf(get("firstName"), get("firstname"))
			admin.LastName = firstOf(get("lastName"), get("lastname"))
		}); err != nil {
			respondWithAppError(w, r, err)
			return
		}

		mu.Lock()
		defer mu.Unlock()

		event := audit.RegisterEvent{Email: admin.Email, ClientIP: middleware.ClientIP(r)}
		if !registrationAllowed(cfg, cache) {
			event.ErrorMessage = "administrator registration is disabled"
			audit.Log(event)
			respondWithError(w, http.StatusForbidden, event.ErrorMessage)
			return
		}

		created, err := admins.Create(r.Context(), admin)
		event.Success = err == nil
		if err != nil {
			event.ErrorMessage = err.Error()
		}
		audit.Log(event)
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		respondWithEntity(w, r, http.StatusOK, created)
	}
}

func registrationAllowed(cfg *config.RegistrarConfig, cache *identity.Cache) bool {
	mode := config.RegistrationBootstrap
	if cfg != nil && cfg.AdminRegistration != "" {
		mode = cfg.AdminRegistration
	}
	switch mode {
	case config.RegistrationOpen:
		return true
	case config.RegistrationBootstrap:
		return cache.Count(identity.RoleAdministrator) == 0
	}
	return false
}

// bindForm decodes a JSON body into dest, or hands form values to fromForm
// for any other content type.
func bindForm(r *http.Request, dest interface{}, fromForm func(get func(string) string)) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		return decodeJSON(r, dest)
	}
	if err := r.ParseForm(); err != nil {
		return apperr.Validation("invalid form body")
	}
	fromForm(r.PostForm.Get)
	return nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
