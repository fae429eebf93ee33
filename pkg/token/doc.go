// Package token issues and validates the bearer tokens handed out at login.
//
// Tokens are HS256 JWTs carrying the caller's email, role and expiry, signed
// with the process-wide application key. A token is never mutated: it stops
// being accepted when it expires or when its email disappears from the
// identity cache. There is no revocation list.
//
//	svc, err := token.NewService(key, 24*time.Hour, cache)
//	signed, exp, err := svc.Issue(id)
//	caller, err := svc.Validate(signed, identity.RoleAdministrator)
//
// # Environment Variables
//
//   - REGISTRAR_APP_KEY: base64-encoded signing key, at least 32 bytes
package token
