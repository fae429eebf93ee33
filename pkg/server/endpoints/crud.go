package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/registrar/pkg/audit"
	"github.com/doodlesbykumbi/registrar/pkg/entity"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
	"github.com/doodlesbykumbi/registrar/pkg/server"
	"github.com/doodlesbykumbi/registrar/pkg/server/middleware"
)

// Route fragments shared by every entity base path. Numeric bounds of a
// field range may be negative or fractional; id ranges are plain integers.
const (
	withRelated     = "/with/{related}"
	whereField      = "/where/{field:[^=/]+}={value:[^/]*}"
	rangeIDs        = "/range/{lo:[0-9]+}-{hi:[0-9]+}"
	rangeField      = "/range/{field:[^=/]+}={lo:-?[0-9.]+}-{hi:-?[0-9.]+}"
	byID            = "/{id:[0-9]+}"
	entityOperation = "entity"
)

type crudHandlers[T any, PT interface {
	*T
	entity.Entity
}] struct {
	engine *entity.Engine[T, PT]
}

// registerCRUD mounts the administrator-only list, filter, range, get,
// create, update and delete routes for T under base. The returned
// subrouter carries the same authentication for extra routes.
func registerCRUD[T any, PT interface {
	*T
	entity.Entity
}](s *server.Server, base string) (*entity.Engine[T, PT], *mux.Router) {
	h := &crudHandlers[T, PT]{engine: entity.New[T, PT](s.DB, s.EntityOptions()...)}

	r := s.Router.PathPrefix(base).Subrouter()
	r.Use(s.Auth.Require(identity.RoleAdministrator))

	for _, root := range []string{"", "/"} {
		r.HandleFunc(root, h.list).Methods("GET")
		r.HandleFunc(root, h.create).Methods("POST")
	}
	r.HandleFunc(withRelated, h.list).Methods("GET")
	r.HandleFunc(whereField, h.where).Methods("GET")
	r.HandleFunc(whereField+withRelated, h.where).Methods("GET")
	r.HandleFunc(rangeIDs, h.rangeIDs).Methods("GET")
	r.HandleFunc(rangeIDs+withRelated, h.rangeIDs).Methods("GET")
	r.HandleFunc(rangeField, h.rangeField).Methods("GET")
	r.HandleFunc(rangeField+withRelated, h.rangeField).Methods("GET")
	r.HandleFunc(byID, h.get).Methods("GET")
	r.HandleFunc(byID+withRelated, h.get).Methods("GET")
	r.HandleFunc(byID, h.update).Methods("PUT")
	r.HandleFunc(byID, h.remove).Methods("DELETE")

	return h.engine, r
}

func (h *crudHandlers[T, PT]) list(w http.ResponseWriter, r *http.Request) {
	var (
		items []T
		err   error
	)
	if _, named := mux.Vars(r)["related"]; named {
		items, err = h.engine.ListWithRelated(r.Context(), related(r))
	} else {
		items, err = h.engine.List(r.Context(), nil)
	}
	respondWithList(w, r, items, err)
}

func (h *crudHandlers[T, PT]) where(w http.ResponseWriter, r *http.Request) {
	items, err := h.engine.FilterEquals(r.Context(), pathVar(r, "field"), pathVar(r, "value"), related(r))
	respondWithList(w, r, items, err)
}

func (h *crudHandlers[T, PT]) rangeIDs(w http.ResponseWriter, r *http.Request) {
	lo, err := pathInt(r, "lo")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	hi, err := pathInt(r, "hi")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	items, err := h.engine.ListRange(r.Context(), lo, hi-lo, related(r))
	respondWithList(w, r, items, err)
}

func (h *crudHandlers[T, PT]) rangeField(w http.ResponseWriter, r *http.Request) {
	items, err := h.engine.FilterRange(r.Context(), pathVar(r, "field"), pathVar(r, "lo"), pathVar(r, "hi"), related(r))
	respondWithList(w, r, items, err)
}

func (h *crudHandlers[T, PT]) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	item, err := h.engine.Get(r.Context(), id, related(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithEntity(w, r, http.StatusOK, item)
}

func (h *crudHandlers[T, PT]) create(w http.ResponseWriter, r *http.Request) {
	payload := PT(new(T))
	if err := decodeJSON(r, payload); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	item, err := h.engine.Create(r.Context(), payload)
	var id uint
	if err == nil {
		id = item.GetID()
	}
	h.audit(r, "create", id, err)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithEntity(w, r, http.StatusOK, item)
}

func (h *crudHandlers[T, PT]) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	payload := PT(new(T))
	if err := decodeJSON(r, payload); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	item, err := h.engine.Update(r.Context(), id, payload)
	h.audit(r, "update", id, err)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithEntity(w, r, http.StatusOK, item)
}

func (h *crudHandlers[T, PT]) remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	err = h.engine.Delete(r.Context(), id)
	h.audit(r, "delete", id, err)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondOK(w)
}

func (h *crudHandlers[T, PT]) audit(r *http.Request, operation string, id uint, err error) {
	event := audit.EntityEvent{
		UserID:    caller(r).Email,
		ClientIP:  middleware.ClientIP(r),
		Entity:    h.engine.Name(),
		ID:        id,
		Operation: operation,
		Success:   err == nil,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	audit.Log(event)
}
