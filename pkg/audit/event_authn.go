package audit

import "fmt"

// AuthenticateEvent represents a login attempt
type AuthenticateEvent struct {
	Email        string
	Role         string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e AuthenticateEvent) MessageID() string {
	return "authn"
}

func (e AuthenticateEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s successfully authenticated as %s", e.Email, e.Role)
	}
	msg := fmt.Sprintf("%s failed to authenticate", e.Email)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e AuthenticateEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e AuthenticateEvent) Facility() int {
	return FacilityAuthPriv
}

func (e AuthenticateEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.Email,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
	}
	if e.Role != "" {
		sd[SDIDAuth]["role"] = e.Role
	}
	return sd
}

// TokenRejectedEvent represents a request refused at token validation
type TokenRejectedEvent struct {
	ClientIP     string
	Method       string
	Path         string
	RequiredRole string
	Reason       string
}

func (e TokenRejectedEvent) MessageID() string {
	return "token"
}

func (e TokenRejectedEvent) Message() string {
	msg := fmt.Sprintf("rejected token for %s %s", e.Method, e.Path)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e TokenRejectedEvent) Severity() Severity {
	return SeverityWarning
}

func (e TokenRejectedEvent) Facility() int {
	return FacilityAuth
}

func (e TokenRejectedEvent) StructuredData() map[string]map[string]string {
	role := e.RequiredRole
	if role == "" {
		role = "any"
	}
	return map[string]map[string]string{
		SDIDSubject: {
			"path": e.Path,
			"role": role,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Method,
			"result":    "failure",
		},
	}
}

// RegisterEvent represents an administrator registration through the API
type RegisterEvent struct {
	Email        string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e RegisterEvent) MessageID() string {
	return "register"
}

func (e RegisterEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s registered as Administrator", e.Email)
	}
	msg := fmt.Sprintf("%s failed to register as Administrator", e.Email)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e RegisterEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e RegisterEvent) Facility() int {
	return FacilityAuthPriv
}

func (e RegisterEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.Email,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "register",
			"result":    result(e.Success),
		},
	}
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
