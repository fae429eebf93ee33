// Package middleware provides the HTTP middleware of the registrar server:
// token authentication with per-route role requirements, and request ids
// with a request-scoped logger.
package middleware
