package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/registrar/pkg/config"
	"github.com/doodlesbykumbi/registrar/pkg/entity"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
	"github.com/doodlesbykumbi/registrar/pkg/server/middleware"
	"github.com/doodlesbykumbi/registrar/pkg/server/store"
	gormstore "github.com/doodlesbykumbi/registrar/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/registrar/pkg/token"
)

type Server struct {
	Config   *config.RegistrarConfig
	Router   *mux.Router
	DB       *gorm.DB
	Cache    *identity.Cache
	Tokens   *token.Service
	Auth     *middleware.TokenAuthenticator
	Validate *validator.Validate
	Logger   zerolog.Logger

	// AccessLog receives the combined-format access log
	AccessLog io.Writer

	IdentityStore   store.IdentityStore
	HealthStore     store.HealthStore
	EnrollmentStore store.EnrollmentStore
	TeachingStore   store.TeachingStore
	CurriculumStore store.CurriculumStore

	srv *http.Server
}

func NewServer(
	cfg *config.RegistrarConfig,
	db *gorm.DB,
	cache *identity.Cache,
	tokens *token.Service,
	logger zerolog.Logger,
	host string,
	port string,
) *Server {

	router := mux.NewRouter().UseEncodedPath()
	s := &Server{
		Config:    cfg,
		Router:    router,
		DB:        db,
		Cache:     cache,
		Tokens:    tokens,
		Auth:      middleware.NewTokenAuthenticator(tokens),
		Validate:  entity.NewValidator(),
		Logger:    logger,
		AccessLog: os.Stdout,

		IdentityStore:   gormstore.NewIdentityStore(db),
		HealthStore:     gormstore.NewHealthStore(db),
		EnrollmentStore: gormstore.NewEnrollmentStore(db),
		TeachingStore:   gormstore.NewTeachingStore(db),
		CurriculumStore: gormstore.NewCurriculumStore(db),
	}
	s.srv = &http.Server{
		Addr: host + ":" + port,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	return s
}

// Handler wraps the router with request ids, gzip, CORS and the access log.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router
	h = middleware.RequestID(s.Logger)(h)
	h = handlers.CompressHandler(h)
	h = handlers.CORS(s.corsOptions()...)(h)
	return handlers.LoggingHandler(s.AccessLog, h)
}

func (s *Server) corsOptions() []handlers.CORSOption {
	origins := []string{"*"}
	if s.Config != nil && !s.Config.AllowsAnyOrigin() {
		origins = s.Config.CORSAllowedOrigins
	}
	return []handlers.CORSOption{
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", middleware.TokenHeader, "Authorization", middleware.RequestIDHeader}),
		handlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
	}
}

// EntityOptions returns the engine options every registered entity shares.
func (s *Server) EntityOptions() []entity.Option {
	opts := []entity.Option{
		entity.WithCache(s.Cache),
		entity.WithValidator(s.Validate),
	}
	if s.Config != nil {
		opts = append(opts, entity.WithLimit(s.Config.ListLimitMax))
	}
	return opts
}

func (s *Server) Start() error {
	s.srv.Handler = s.Handler()
	return s.srv.ListenAndServe()
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
