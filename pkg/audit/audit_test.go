package audit

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetWriter(&buf)

	event := AuthenticateEvent{
		Email:    "admin@uni.edu",
		Role:     "Administrator",
		ClientIP: "192.168.1.1",
		Success:  true,
	}

	logger.Log(event)

	output := buf.String()

	// <PRI> = facility 10 * 8 + severity 6
	if !strings.HasPrefix(output, "<86>1 ") {
		t.Errorf("Expected PRI <86> and version 1, got %q", output)
	}
	if !strings.Contains(output, "registrar") {
		t.Error("Expected app name 'registrar' in output")
	}
	if !strings.Contains(output, " authn ") {
		t.Error("Expected message ID 'authn' in output")
	}
	if !strings.Contains(output, `user="admin@uni.edu"`) {
		t.Error("Expected user in structured data")
	}
	if !strings.Contains(output, "192.168.1.1") {
		t.Error("Expected client IP in output")
	}
	if !strings.Contains(output, "successfully authenticated as Administrator") {
		t.Error("Expected success message in output")
	}
}

func TestAuthenticateEvent(t *testing.T) {
	tests := []struct {
		name      string
		event     AuthenticateEvent
		wantMsg   string
		wantSev   Severity
		wantFac   int
		wantMsgID string
	}{
		{
			name: "successful authentication",
			event: AuthenticateEvent{
				Email:    "prof@uni.edu",
				Role:     "Instructor",
				ClientIP: "10.0.0.1",
				Success:  true,
			},
			wantMsg:   "successfully authenticated",
			wantSev:   SeverityInfo,
			wantFac:   FacilityAuthPriv,
			wantMsgID: "authn",
		},
		{
			name: "failed authentication",
			event: AuthenticateEvent{
				Email:        "prof@uni.edu",
				ClientIP:     "10.0.0.1",
				Success:      false,
				ErrorMessage: "Invalid password",
			},
			wantMsg:   "failed to authenticate: Invalid password",
			wantSev:   SeverityWarning,
			wantFac:   FacilityAuthPriv,
			wantMsgID: "authn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.event.Message(), tt.wantMsg) {
				t.Errorf("Message() = %q, want to contain %q", tt.event.Message(), tt.wantMsg)
			}
			if tt.event.Severity() != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", tt.event.Severity(), tt.wantSev)
			}
			if tt.event.Facility() != tt.wantFac {
				t.Errorf("Facility() = %v, want %v", tt.event.Facility(), tt.wantFac)
			}
			if tt.event.MessageID() != tt.wantMsgID {
				t.Errorf("MessageID() = %v, want %v", tt.event.MessageID(), tt.wantMsgID)
			}
		})
	}
}

func TestEntityEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   EntityEvent
		wantMsg string
		wantSev Severity
	}{
		{
			name:    "create",
			event:   EntityEvent{UserID: "admin@uni.edu", Entity: "department", ID: 4, Operation: "create", Success: true},
			wantMsg: "admin@uni.edu created department 4",
			wantSev: SeverityInfo,
		},
		{
			name:    "delete",
			event:   EntityEvent{UserID: "admin@uni.edu", Entity: "student", ID: 9, Operation: "delete", Success: true},
			wantMsg: "admin@uni.edu deleted student 9",
			wantSev: SeverityInfo,
		},
		{
			name:    "failed update",
			event:   EntityEvent{UserID: "admin@uni.edu", Entity: "course", ID: 2, Operation: "update", ErrorMessage: "course 2 not found"},
			wantMsg: "admin@uni.edu tried to update course 2: course 2 not found",
			wantSev: SeverityWarning,
		},
		{
			name:    "failed create has no id",
			event:   EntityEvent{UserID: "admin@uni.edu", Entity: "program", Operation: "create", ErrorMessage: "department is required"},
			wantMsg: "admin@uni.edu tried to create program: department is required",
			wantSev: SeverityWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Message(); got != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", got, tt.wantMsg)
			}
			if tt.event.Severity() != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", tt.event.Severity(), tt.wantSev)
			}
			if tt.event.MessageID() != "entity" {
				t.Errorf("MessageID() = %v, want entity", tt.event.MessageID())
			}
		})
	}
}

func TestEnrollmentEvent(t *testing.T) {
	ok := EnrollmentEvent{UserID: "kid@uni.edu", SectionID: 3, Operation: "register", Success: true}
	if got := ok.Message(); got != "kid@uni.edu registered section 3" {
		t.Errorf("Message() = %q", got)
	}

	full := EnrollmentEvent{UserID: "kid@uni.edu", SectionID: 3, Operation: "register", ErrorMessage: "Section is full"}
	if !strings.Contains(full.Message(), "tried to register section 3: Section is full") {
		t.Errorf("Message() = %q", full.Message())
	}
	if full.StructuredData()[SDIDAction]["result"] != "failure" {
		t.Error("Expected failure result")
	}
}

func TestGradeEvent(t *testing.T) {
	e := GradeEvent{UserID: "prof@uni.edu", StudentID: 12, Operation: "set-grade", Success: true}
	if got := e.Message(); got != "prof@uni.edu performed set-grade on student 12" {
		t.Errorf("Message() = %q", got)
	}
	sd := e.StructuredData()
	if sd[SDIDSubject]["student"] != "12" {
		t.Errorf("StructuredData subject.student = %v, want 12", sd[SDIDSubject]["student"])
	}
	if _, ok := sd[SDIDSubject]["section"]; ok {
		t.Error("Expected no section in structured data")
	}
}

func TestCacheReloadEvent(t *testing.T) {
	ok := CacheReloadEvent{Trigger: "startup", Identities: 17, Success: true}
	if got := ok.Message(); got != "identity cache reloaded (startup) with 17 identities" {
		t.Errorf("Message() = %q", got)
	}
	if _, present := ok.StructuredData()[SDIDAuth]; present {
		t.Error("Expected no auth structured data without a user")
	}

	failed := CacheReloadEvent{UserID: "admin@uni.edu", Trigger: "api", ErrorMessage: "connection refused"}
	if failed.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want %v", failed.Severity(), SeverityError)
	}
	if failed.StructuredData()[SDIDAuth]["user"] != "admin@uni.edu" {
		t.Error("Expected user in structured data")
	}
}

func TestTokenRejectedEvent(t *testing.T) {
	e := TokenRejectedEvent{ClientIP: "10.1.1.1", Method: "GET", Path: "/department", RequiredRole: "Administrator", Reason: "token is expired"}
	if got := e.Message(); got != "rejected token for GET /department: token is expired" {
		t.Errorf("Message() = %q", got)
	}
	if e.Facility() != FacilityAuth {
		t.Errorf("Facility() = %v, want %v", e.Facility(), FacilityAuth)
	}

	anyRole := TokenRejectedEvent{Method: "GET", Path: "/user/self"}
	if anyRole.StructuredData()[SDIDSubject]["role"] != "any" {
		t.Error("Expected role 'any' when no role is required")
	}
}

func TestRegisterEvent(t *testing.T) {
	e := RegisterEvent{Email: "first@uni.edu", ClientIP: "127.0.0.1", Success: true}
	if e.Severity() != SeverityNotice {
		t.Errorf("Severity() = %v, want %v", e.Severity(), SeverityNotice)
	}
	if e.StructuredData()[SDIDAction]["result"] != "success" {
		t.Error("Expected success result")
	}
}

func TestFormatStructuredDataIsSorted(t *testing.T) {
	sd := map[string]map[string]string{
		SDIDClient: {"ip": "1.2.3.4"},
		SDIDAuth:   {"user": "a", "role": "b"},
	}
	want := `[auth@32473 role="b" user="a"][client@32473 ip="1.2.3.4"]`
	if got := formatStructuredData(sd); got != want {
		t.Errorf("formatStructuredData() = %q, want %q", got, want)
	}
	if got := formatStructuredData(nil); got != "" {
		t.Errorf("formatStructuredData(nil) = %q, want empty", got)
	}
}

func TestAuditToggle(t *testing.T) {
	// Save original state
	originalEnabled := auditEnabled
	defer func() {
		auditEnabled = originalEnabled
	}()

	// Test with audit disabled
	SetEnabled(false)
	if IsEnabled() {
		t.Error("Expected audit to be disabled")
	}

	// Test with audit enabled
	SetEnabled(true)
	if !IsEnabled() {
		t.Error("Expected audit to be enabled")
	}
}

func TestEscapeSDValue(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", `"simple"`},
		{`with"quote`, `"with\"quote"`},
		{`with\backslash`, `"with\\backslash"`},
		{`with]bracket`, `"with\]bracket"`},
		{`all"special\chars]`, `"all\"special\\chars\]"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := escapeSDValue(tt.input)
			if got != tt.want {
				t.Errorf("escapeSDValue(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
