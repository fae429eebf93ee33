package middleware

import (
	"net/http"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/doodlesbykumbi/registrar/pkg/audit"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
	"github.com/doodlesbykumbi/registrar/pkg/token"
)

// TokenHeader is the request header carrying the token.
const TokenHeader = "X-Auth-Token"

var bearerRegex = regexp.MustCompile(`^Bearer (.+)$`)

// TokenAuthenticator is middleware that validates tokens against the
// identity cache
type TokenAuthenticator struct {
	Tokens *token.Service
}

// NewTokenAuthenticator creates a new token authenticator middleware
func NewTokenAuthenticator(tokens *token.Service) *TokenAuthenticator {
	return &TokenAuthenticator{Tokens: tokens}
}

// Middleware admits any valid token regardless of role
func (a *TokenAuthenticator) Middleware(next http.Handler) http.Handler {
	return a.Require(identity.RoleAny)(next)
}

// Require returns middleware that admits only valid tokens of role. The
// identity is stored in the request context for the next handler. Every
// rejection answers with the same plain-text 401; the reason is logged.
func (a *TokenAuthenticator) Require(role identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := a.Tokens.Validate(TokenFromRequest(r), role)
			if err != nil {
				zerolog.Ctx(r.Context()).Info().
					Err(err).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("token rejected")
				audit.Log(audit.TokenRejectedEvent{
					ClientIP:     ClientIP(r),
					Method:       r.Method,
					Path:         r.URL.Path,
					RequiredRole: string(role),
					Reason:       err.Error(),
				})
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte("Unauthorized"))
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
		})
	}
}

// TokenFromRequest returns the token from X-Auth-Token, falling back to an
// Authorization bearer header.
func TokenFromRequest(r *http.Request) string {
	if t := r.Header.Get(TokenHeader); t != "" {
		return t
	}
	if m := bearerRegex.FindStringSubmatch(r.Header.Get("Authorization")); len(m) == 2 {
		return m[1]
	}
	return ""
}

// ClientIP returns the forwarded client address, or the peer address.
func ClientIP(r *http.Request) string {
	clientIP := r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		clientIP = forwarded
	}
	return clientIP
}
