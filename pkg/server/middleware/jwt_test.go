package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/registrar/pkg/audit"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
	"github.com/doodlesbykumbi/registrar/pkg/token"
)

func init() {
	audit.SetEnabled(false)
}

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newAuthenticator(t *testing.T) (*TokenAuthenticator, *identity.Cache) {
	t.Helper()
	cache := identity.NewCache()
	tokens, err := token.NewService(testKey, time.Hour, cache)
	require.NoError(t, err)
	return NewTokenAuthenticator(tokens), cache
}

func issue(t *testing.T, a *TokenAuthenticator, id identity.Identity) string {
	t.Helper()
	raw, _, err := a.Tokens.Issue(id)
	require.NoError(t, err)
	return raw
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "none", want: ""},
		{name: "x-auth-token", headers: map[string]string{"X-Auth-Token": "abc"}, want: "abc"},
		{name: "bearer", headers: map[string]string{"Authorization": "Bearer def"}, want: "def"},
		{name: "x-auth-token wins", headers: map[string]string{"X-Auth-Token": "abc", "Authorization": "Bearer def"}, want: "abc"},
		{name: "basic is ignored", headers: map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, TokenFromRequest(req))
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1:5555", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "192.168.1.9")
	assert.Equal(t, "192.168.1.9", ClientIP(req))
}

func TestRequire_Rejections(t *testing.T) {
	auth, cache := newAuthenticator(t)
	student := identity.Identity{ID: 1, Email: "ada@example.edu", Role: identity.RoleStudent}
	require.NoError(t, cache.Insert(student))
	studentToken := issue(t, auth, student)

	handler := auth.Require(identity.RoleAdministrator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-token"},
		{"role mismatch", studentToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/department/", nil)
			if tt.token != "" {
				req.Header.Set(TokenHeader, tt.token)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Unauthorized", rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
		})
	}
}

func TestRequire_StoresIdentity(t *testing.T) {
	auth, cache := newAuthenticator(t)
	admin := identity.Identity{ID: 3, Email: "root@example.edu", Role: identity.RoleAdministrator}
	require.NoError(t, cache.Insert(admin))

	var seen *identity.Identity
	handler := auth.Require(identity.RoleAdministrator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = identity.Get(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/department/", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, auth, admin))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, admin.Email, seen.Email)
	assert.Equal(t, uint(3), seen.ID)
}

func TestMiddleware_AnyRoleAndRemovedIdentity(t *testing.T) {
	auth, cache := newAuthenticator(t)
	student := identity.Identity{ID: 1, Email: "ada@example.edu", Role: identity.RoleStudent}
	require.NoError(t, cache.Insert(student))
	raw := issue(t, auth, student)

	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/user/self", nil)
	req.Header.Set(TokenHeader, raw)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	cache.Remove(identity.RoleStudent, 1)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := RequestID(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("handled")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	id := rec.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Contains(t, buf.String(), id)

	const given = "0f8fad5b-d9cb-469f-a165-70867728950e"
	req.Header.Set(RequestIDHeader, given)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, given, rec.Header().Get(RequestIDHeader))

	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
}
