// Package apperr defines the error taxonomy shared by the registrar packages.
//
// Every failure that crosses a package boundary is one of four kinds:
//
//   - Validation: malformed input, unknown field or relation, non-numeric range
//     bound, constraint violation
//   - NotFound: a record or reference id that does not resolve
//   - Auth: missing, invalid or expired token, or a role mismatch
//   - Store: the backing database failed
//
// Callers classify with errors.Is against the sentinels:
//
//	if errors.Is(err, apperr.ErrNotFound) {
//	    ...
//	}
//
// and the HTTP layer maps a kind to a status with Status.
package apperr
