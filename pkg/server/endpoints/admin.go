package endpoints

import (
	"net/http"
	"strconv"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
	"github.com/doodlesbykumbi/registrar/pkg/audit"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
	"github.com/doodlesbykumbi/registrar/pkg/server"
)

// CacheReloadResponse is returned by POST /admin/cache/reload
type CacheReloadResponse struct {
	Identities int `json:"identities"`
}

// RegisterAdminEndpoints registers operational routes for administrators.
func RegisterAdminEndpoints(s *server.Server) {
	adminRouter := s.Router.PathPrefix("/admin").Subrouter()
	adminRouter.Use(s.Auth.Require(identity.RoleAdministrator))

	adminRouter.HandleFunc("/cache/reload", handleCacheReload(s)).Methods("POST")
	adminRouter.HandleFunc("/audit", handleAuditRecent(audit.Default)).Methods("GET")
}

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// handleAuditRecent lists the latest stored audit records, optionally
// filtered by ?msgid=. It is 404 when no audit database is configured.
func handleAuditRecent(store func() *audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := store()
		if st == nil {
			respondWithAppError(w, r, apperr.NotFound("audit database is not configured"))
			return
		}

		limit := defaultAuditLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				respondWithAppError(w, r, apperr.Validation("limit must be a positive integer"))
				return
			}
			limit = min(n, maxAuditLimit)
		}

		records, err := st.Recent(r.Context(), r.URL.Query().Get("msgid"), limit)
		if err != nil {
			respondWithAppError(w, r, apperr.Store(err))
			return
		}
		if records == nil {
			records = []audit.Record{}
		}
		respondWithJSON(w, http.StatusOK, records)
	}
}

func handleCacheReload(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.ReloadCache(r.Context(), server.TriggerAPI, caller(r).Email); err != nil {
			respondWithAppError(w, r, apperr.Store(err))
			return
		}
		respondWithJSON(w, http.StatusOK, CacheReloadResponse{Identities: s.Cache.Count(identity.RoleAny)})
	}
}
