package audit

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Structured data ids, under the documentation enterprise number 32473
// (RFC 5612).
const (
	PEN         = 32473
	SDIDAuth    = "auth@32473"
	SDIDSubject = "subject@32473"
	SDIDAction  = "action@32473"
	SDIDClient  = "client@32473"
)

// Syslog facilities used by registrar events.
const (
	FacilityAuth     = 4  // LOG_AUTH
	FacilityAuthPriv = 10 // LOG_AUTHPRIV
)

// Severity is an RFC 5424 severity.
type Severity int

const (
	SeverityEmergency Severity = iota
	SeverityAlert
	SeverityCritical
	SeverityError
	SeverityWarning
	SeverityNotice
	SeverityInfo
	SeverityDebug
)

// Event is anything the registrar records in its audit trail.
type Event interface {
	MessageID() string
	Message() string
	Severity() Severity
	Facility() int
	StructuredData() map[string]map[string]string
}

// AppName is the RFC5424 APP-NAME of every audit record.
const AppName = "registrar"

// Record is one audit event stamped with its origin, ready to be written
// as a syslog line or stored as a row.
type Record struct {
	Facility  int                          `json:"facility"`
	Severity  Severity                     `json:"severity"`
	Timestamp time.Time                    `json:"timestamp"`
	Hostname  string                       `json:"hostname"`
	AppName   string                       `json:"appname"`
	ProcID    int                          `json:"procid"`
	MsgID     string                       `json:"msgid"`
	SData     map[string]map[string]string `json:"sdata,omitempty"`
	Message   string                       `json:"message"`
}

// NewRecord stamps event with now and this process's host and pid.
func NewRecord(event Event, now time.Time) Record {
	return Record{
		Facility:  event.Facility(),
		Severity:  event.Severity(),
		Timestamp: now.UTC(),
		Hostname:  hostname,
		AppName:   AppName,
		ProcID:    pid,
		MsgID:     event.MessageID(),
		SData:     event.StructuredData(),
		Message:   event.Message(),
	}
}

// Priority is the syslog PRI value.
func (r Record) Priority() int {
	return r.Facility*8 + int(r.Severity)
}

// Syslog formats r as an RFC 5424 line:
// <PRI>1 TIMESTAMP HOSTNAME APP-NAME PROCID MSGID SD MSG
func (r Record) Syslog() string {
	sd := formatStructuredData(r.SData)
	if sd == "" {
		sd = "-"
	}
	host := r.Hostname
	if host == "" {
		host = "-"
	}
	return fmt.Sprintf("<%d>1 %s %s %s %d %s %s %s\n",
		r.Priority(),
		r.Timestamp.Format("2006-01-02T15:04:05.000Z"),
		host,
		r.AppName,
		r.ProcID,
		r.MsgID,
		sd,
		r.Message,
	)
}

var (
	hostname, _ = os.Hostname()
	pid         = os.Getpid()
)

// Logger writes audit records as syslog lines.
type Logger struct {
	mu     sync.Mutex
	writer io.Writer
	now    func() time.Time
}

// NewLogger creates a logger writing to stdout.
func NewLogger() *Logger {
	return &Logger{writer: os.Stdout, now: time.Now}
}

// SetWriter sets the output writer for the logger
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	l.writer = w
	l.mu.Unlock()
}

// Log writes event as one line.
func (l *Logger) Log(event Event) {
	line := NewRecord(event, l.now()).Syslog()
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.writer, line)
}

// formatStructuredData renders sd as RFC 5424 SD-ELEMENTs,
// [sdid k="v" ...][sdid2 ...], in sorted order.
func formatStructuredData(sd map[string]map[string]string) string {
	if len(sd) == 0 {
		return ""
	}

	var b strings.Builder
	for _, sdid := range sortedKeys(sd) {
		b.WriteString("[")
		b.WriteString(sdid)
		params := sd[sdid]
		for _, key := range sortedKeys(params) {
			b.WriteString(" ")
			b.WriteString(key)
			b.WriteString("=")
			b.WriteString(escapeSDValue(params[key]))
		}
		b.WriteString("]")
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// escapeSDValue quotes value, escaping backslash, double quote and closing
// bracket (RFC 5424 section 6.3.3).
func escapeSDValue(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `]`, `\]`)
	return `"` + r.Replace(value) + `"`
}

// DefaultLogger receives every event passed to Log.
var DefaultLogger = NewLogger()

// DefaultStore persists every event passed to Log. It stays nil unless
// AUDIT_DATABASE_URL is set.
var DefaultStore *Store

// Default returns the audit database store, connecting on first use. It is
// nil when no audit database is configured.
func Default() *Store {
	storeInitOnce.Do(func() {
		var err error
		if DefaultStore, err = NewStore(); err != nil {
			log.Error().Err(err).Msg("audit: failed to connect to audit database")
		}
	})
	return DefaultStore
}

var (
	auditEnabled     = true
	auditEnabledOnce sync.Once
	storeInitOnce    sync.Once
)

// IsEnabled reports whether audit logging is on. REGISTRAR_AUDIT_ENABLED
// set to false, 0 or no turns it off.
func IsEnabled() bool {
	auditEnabledOnce.Do(func() {
		if env := os.Getenv("REGISTRAR_AUDIT_ENABLED"); env != "" {
			auditEnabled = env != "false" && env != "0" && env != "no"
		}
	})
	return auditEnabled
}

// SetEnabled overrides the environment setting. Call it before the first Log.
func SetEnabled(enabled bool) {
	auditEnabledOnce.Do(func() {})
	auditEnabled = enabled
}

// Log writes event to the default logger and, when configured, the audit
// database. Database failures are reported on the application log only.
func Log(event Event) {
	if !IsEnabled() {
		return
	}
	DefaultLogger.Log(event)

	if store := Default(); store != nil {
		if err := store.Save(event); err != nil {
			log.Error().Err(err).Str("msgid", event.MessageID()).Msg("audit: failed to save event")
		}
	}
}
