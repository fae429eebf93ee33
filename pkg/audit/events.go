package audit

import (
	"fmt"
	"strconv"
)

// EntityEvent represents a create, update or delete of a record
type EntityEvent struct {
	UserID       string
	ClientIP     string
	Entity       string
	ID           uint
	Operation    string // "create", "update", "delete"
	Success      bool
	ErrorMessage string
}

func (e EntityEvent) MessageID() string {
	return "entity"
}

func (e EntityEvent) Message() string {
	target := e.Entity
	if e.ID != 0 {
		target = fmt.Sprintf("%s %d", e.Entity, e.ID)
	}
	if e.Success {
		return fmt.Sprintf("%s %sd %s", e.UserID, e.Operation, target)
	}
	msg := fmt.Sprintf("%s tried to %s %s", e.UserID, e.Operation, target)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e EntityEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e EntityEvent) Facility() int {
	return FacilityAuthPriv
}

func (e EntityEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.UserID,
		},
		SDIDSubject: {
			"entity": e.Entity,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    result(e.Success),
		},
	}
	if e.ID != 0 {
		sd[SDIDSubject]["id"] = strconv.FormatUint(uint64(e.ID), 10)
	}
	return sd
}

// EnrollmentEvent represents a student registering with or leaving a section
type EnrollmentEvent struct {
	UserID       string
	ClientIP     string
	SectionID    uint
	Operation    string // "register", "unregister"
	Success      bool
	ErrorMessage string
}

func (e EnrollmentEvent) MessageID() string {
	return "enrollment"
}

func (e EnrollmentEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s %sed section %d", e.UserID, e.Operation, e.SectionID)
	}
	msg := fmt.Sprintf("%s tried to %s section %d", e.UserID, e.Operation, e.SectionID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e EnrollmentEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e EnrollmentEvent) Facility() int {
	return FacilityAuthPriv
}

func (e EnrollmentEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.UserID,
		},
		SDIDSubject: {
			"section": strconv.FormatUint(uint64(e.SectionID), 10),
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    result(e.Success),
		},
	}
}

// GradeEvent represents an instructor setting grade types or a score
type GradeEvent struct {
	UserID       string
	ClientIP     string
	SectionID    uint
	StudentID    uint
	Operation    string // "set-grade-types", "set-grade"
	Success      bool
	ErrorMessage string
}

func (e GradeEvent) MessageID() string {
	return "grade"
}

func (e GradeEvent) Message() string {
	target := fmt.Sprintf("section %d", e.SectionID)
	if e.StudentID != 0 {
		target = fmt.Sprintf("student %d", e.StudentID)
	}
	if e.Success {
		return fmt.Sprintf("%s performed %s on %s", e.UserID, e.Operation, target)
	}
	msg := fmt.Sprintf("%s failed %s on %s", e.UserID, e.Operation, target)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e GradeEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e GradeEvent) Facility() int {
	return FacilityAuthPriv
}

func (e GradeEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.UserID,
		},
		SDIDSubject: {},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    result(e.Success),
		},
	}
	if e.SectionID != 0 {
		sd[SDIDSubject]["section"] = strconv.FormatUint(uint64(e.SectionID), 10)
	}
	if e.StudentID != 0 {
		sd[SDIDSubject]["student"] = strconv.FormatUint(uint64(e.StudentID), 10)
	}
	return sd
}

// CacheReloadEvent represents a rebuild of the identity cache
type CacheReloadEvent struct {
	UserID       string // empty when not triggered by a request
	Trigger      string // "startup", "api", "file"
	Identities   int
	Success      bool
	ErrorMessage string
}

func (e CacheReloadEvent) MessageID() string {
	return "cache-reload"
}

func (e CacheReloadEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("identity cache reloaded (%s) with %d identities", e.Trigger, e.Identities)
	}
	msg := fmt.Sprintf("identity cache reload (%s) failed", e.Trigger)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e CacheReloadEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityError
}

func (e CacheReloadEvent) Facility() int {
	return FacilityAuth
}

func (e CacheReloadEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAction: {
			"operation": "cache-reload",
			"trigger":   e.Trigger,
			"result":    result(e.Success),
		},
	}
	if e.UserID != "" {
		sd[SDIDAuth] = map[string]string{"user": e.UserID}
	}
	return sd
}

// CatalogueLoadEvent represents applying a catalogue file
type CatalogueLoadEvent struct {
	File         string
	SHA256       string
	Created      int
	DryRun       bool
	Success      bool
	ErrorMessage string
}

func (e CatalogueLoadEvent) MessageID() string {
	return "catalogue-load"
}

func (e CatalogueLoadEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("catalogue %s loaded, %d records created", e.File, e.Created)
	}
	msg := fmt.Sprintf("catalogue %s failed to load", e.File)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e CatalogueLoadEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityError
}

func (e CatalogueLoadEvent) Facility() int {
	return FacilityAuthPriv
}

func (e CatalogueLoadEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDSubject: {
			"file": e.File,
		},
		SDIDAction: {
			"operation": "catalogue-load",
			"result":    result(e.Success),
		},
	}
	if e.SHA256 != "" {
		sd[SDIDSubject]["sha256"] = e.SHA256
	}
	if e.DryRun {
		sd[SDIDAction]["dry_run"] = "true"
	}
	return sd
}
