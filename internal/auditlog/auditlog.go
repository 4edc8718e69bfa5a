// Package auditlog keeps an append-only CSV trail of mutating operations
// against the ledger and the chart of accounts.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Entry is one row in the audit log.
type Entry struct {
	Timestamp time.Time
	CompanyID int64
	Actor     string
	Action    string // e.g. "transaction.post", "account.delete"
	EntityID  int64
	Detail    string
}

// Header is the CSV header for the audit log file.
const Header = "timestamp,company_id,actor,action,entity_id,detail"

const (
	numFields    = 6
	colTimestamp = 0
	colCompany   = 1
	colActor     = 2
	colAction    = 3
	colEntityID  = 4
	colDetail    = 5
)

// Logger appends entries to a CSV file at a fixed path. Safe for concurrent
// use. A nil Logger discards entries.
type Logger struct {
	path string
	mu   sync.Mutex
}

// New creates a Logger writing to path.
func New(path string) *Logger {
	return &Logger{path: path}
}

// Record appends one entry, stamping it with the current time when the
// timestamp is zero.
func (l *Logger) Record(e Entry) error {
	if l == nil {
		return nil
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	needsHeader := false
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.Write(marshalEntry(e)); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}
	return cw.Error()
}

// Read returns all entries in the log. Returns nil if the file does not
// exist yet.
func (l *Logger) Read() ([]Entry, error) {
	if l == nil {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func marshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colCompany] = strconv.FormatInt(e.CompanyID, 10)
	row[colActor] = e.Actor
	row[colAction] = e.Action
	row[colEntityID] = strconv.FormatInt(e.EntityID, 10)
	row[colDetail] = e.Detail
	return row
}

func unmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	companyID, err := strconv.ParseInt(record[colCompany], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing company id %q: %w", record[colCompany], err)
	}
	entityID, err := strconv.ParseInt(record[colEntityID], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing entity id %q: %w", record[colEntityID], err)
	}

	return Entry{
		Timestamp: ts,
		CompanyID: companyID,
		Actor:     record[colActor],
		Action:    record[colAction],
		EntityID:  entityID,
		Detail:    record[colDetail],
	}, nil
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := unmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
