package endpoints

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
	"github.com/doodlesbykumbi/registrar/pkg/entity"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func respondWithError(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, map[string]interface{}{"error": payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithEntity writes records through the entity encoder so relation
// back-references and write-only fields are left out.
func respondWithEntity(w http.ResponseWriter, r *http.Request, code int, payload interface{}) {
	response, err := entity.Marshal(payload)
	if err != nil {
		respondWithAppError(w, r, apperr.Store(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithList writes items, or an empty array when there are none.
func respondWithList[T any](w http.ResponseWriter, r *http.Request, items []T, err error) {
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	respondWithEntity(w, r, http.StatusOK, items)
}

// respondWithAppError maps err to its status. Auth failures get a plain
// text body, everything else the JSON error envelope.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.Status(err)
	msg := apperr.Message(err)

	log := zerolog.Ctx(r.Context())
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", code).Msg("request refused")
	}

	if code == http.StatusUnauthorized {
		respondWithText(w, code, msg)
		return
	}
	respondWithError(w, code, msg)
}

func respondWithText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}

func respondOK(w http.ResponseWriter) {
	respondWithText(w, http.StatusOK, "ok")
}

// decodeJSON reads the request body into dest. Unknown fields are ignored.
func decodeJSON(r *http.Request, dest interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperr.Validation("failed to read request body")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return apperr.Validation("request body is required")
	}
	if err := json.Unmarshal(body, dest); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperr.Validation("%s has the wrong type", typeErr.Field)
		}
		return apperr.Validation("invalid JSON body: %v", err)
	}
	return nil
}

// pathVar returns the decoded route variable name.
func pathVar(r *http.Request, name string) string {
	raw := mux.Vars(r)[name]
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func pathID(r *http.Request, name string) (uint, error) {
	raw := pathVar(r, name)
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid id %q", raw)
	}
	return uint(id), nil
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := pathVar(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("invalid number %q", raw)
	}
	return n, nil
}

// related returns the relation paths named by the optional {related} route
// variable.
func related(r *http.Request) []string {
	return entity.SplitRelated(pathVar(r, "related"))
}

// caller returns the identity stored by the token middleware.
func caller(r *http.Request) identity.Identity {
	if id, ok := identity.Get(r.Context()); ok && id != nil {
		return *id
	}
	return identity.Identity{}
}

// idRef is the {"id": n} body used by the enrollment actions.
type idRef struct {
	ID uint `json:"id"`
}
