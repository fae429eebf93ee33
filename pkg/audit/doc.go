// Package audit provides audit logging for registrar operations.
//
// Security-relevant operations are written as RFC5424 syslog records to
// stdout and, when AUDIT_DATABASE_URL is set, persisted to the messages
// table of that database.
//
// # Event Types
//
//   - AuthenticateEvent: login attempts
//   - TokenRejectedEvent: requests refused for a bad, expired or
//     mismatched token
//   - RegisterEvent: administrator self-registration
//   - EntityEvent: create, update and delete of any record
//   - EnrollmentEvent: a student registering with or leaving a section
//   - GradeEvent: grade types and scores set by an instructor
//   - CacheReloadEvent: identity cache rebuilds
//
// # Usage
//
//	audit.Log(audit.AuthenticateEvent{
//	    Email:    "jane@example.edu",
//	    ClientIP: r.RemoteAddr,
//	    Success:  true,
//	})
//
// Set REGISTRAR_AUDIT_ENABLED=false to disable audit output.
package audit
