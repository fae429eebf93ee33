package endpoints

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/registrar/pkg/server/middleware"
)

type stubHealthStore struct {
	err error
}

func (s stubHealthStore) CheckConnectivity(context.Context) error {
	return s.err
}

func TestHandleStatus(t *testing.T) {
	t.Run("returns the API reference as HTML", func(t *testing.T) {
		handler := handleStatus()

		req := httptest.NewRequest("GET", "/", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "Your registrar server is running!")
		assert.Contains(t, w.Body.String(), "<h1>Registrar API</h1>")
		assert.Contains(t, w.Body.String(), "<table>")
	})

	t.Run("returns JSON when Accept header is application/json", func(t *testing.T) {
		t.Setenv("REGISTRAR_VERSION_DISPLAY", "9.9.9")
		handler := handleStatus()

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()

		handler(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
		assert.JSONEq(t, `{"status":"ok","version":"9.9.9"}`, w.Body.String())
	})
}

func TestHandleHealth(t *testing.T) {
	w := httptest.NewRecorder()
	handleHealth(stubHealthStore{})(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	handleHealth(stubHealthStore{err: errors.New("connection refused")})(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestHandler_Wrapping(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://portal.example.edu")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}

func TestCacheReload(t *testing.T) {
	c := newCampus(t)

	// a row written behind the server's back is unknown until a reload
	late := c.instructor
	late.ID = 0
	late.Email = "late@example.edu"
	require.NoError(t, c.srv.DB.Omit("Department", "Sections").Create(&late).Error)

	login := `{"email":"late@example.edu","password":"correct horse"}`
	assert.Equal(t, http.StatusUnauthorized, do(c.srv, "POST", "/auth/login", login, "").Code)

	w := do(c.srv, "POST", "/admin/cache/reload", "", c.tokenFor(t, c.student.Email))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(c.srv, "POST", "/admin/cache/reload", "", c.adminToken(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"identities":6}`, w.Body.String())

	assert.Equal(t, http.StatusOK, do(c.srv, "POST", "/auth/login", login, "").Code)
}
