package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
)

// Store persists audit records to the messages table of a PostgreSQL
// database, which may be separate from the registrar database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore connects to AUDIT_DATABASE_URL. It returns a nil store and no
// error when the variable is unset.
func NewStore() (*Store, error) {
	dbURL := os.Getenv("AUDIT_DATABASE_URL")
	if dbURL == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	return NewStoreWithDB(db), nil
}

// NewStoreWithDB creates a store over an open connection.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores event, stamped with the current time.
func (s *Store) Save(event Event) error {
	if s.db == nil {
		return nil
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return s.SaveRecord(context.Background(), NewRecord(event, now()))
}

// SaveRecord inserts rec as one row.
func (s *Store) SaveRecord(ctx context.Context, rec Record) error {
	if s.db == nil {
		return nil
	}
	sdata, err := json.Marshal(rec.SData)
	if err != nil {
		return fmt.Errorf("failed to encode structured data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (facility, severity, timestamp, hostname, appname, procid, msgid, sdata, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		rec.Facility,
		int(rec.Severity),
		rec.Timestamp,
		rec.Hostname,
		rec.AppName,
		strconv.Itoa(rec.ProcID),
		rec.MsgID,
		sdata,
		rec.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit message: %w", err)
	}
	return nil
}

// Recent returns the latest records with msgID, newest first. An empty
// msgID matches every record.
func (s *Store) Recent(ctx context.Context, msgID string, limit int) ([]Record, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT facility, severity, timestamp, hostname, appname, procid, msgid, sdata, message
		FROM messages
		WHERE $1 = '' OR msgid = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2
	`, msgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var (
			rec      Record
			severity int
			host     sql.NullString
			app      sql.NullString
			procID   sql.NullString
			sdata    []byte
		)
		if err := rows.Scan(&rec.Facility, &severity, &rec.Timestamp, &host, &app, &procID, &rec.MsgID, &sdata, &rec.Message); err != nil {
			return nil, fmt.Errorf("failed to scan audit message: %w", err)
		}
		rec.Severity = Severity(severity)
		rec.Hostname, rec.AppName = host.String, app.String
		rec.ProcID, _ = strconv.Atoi(procID.String)
		if len(sdata) > 0 {
			if err := json.Unmarshal(sdata, &rec.SData); err != nil {
				return nil, fmt.Errorf("failed to decode structured data: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
