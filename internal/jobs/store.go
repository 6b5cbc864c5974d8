// Package jobs supervises long-running media-generation jobs: a
// SQLite-backed job store plus a manager that streams NDJSON progress
// updates from the upstream service and persists them until the job
// reaches a terminal state.
package jobs

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const videoTableSQL = `
CREATE TABLE IF NOT EXISTS video_jobs (
	request_id     TEXT PRIMARY KEY,
	created_at     TEXT NOT NULL,
	prompt         TEXT NOT NULL,
	mode           TEXT NOT NULL,
	aspect_ratio   TEXT NOT NULL,
	duration       INTEGER NOT NULL,
	size           TEXT NOT NULL,
	remix_target_id TEXT,
	pid            TEXT,
	result_url     TEXT,
	status         TEXT,
	progress       INTEGER,
	failure_reason TEXT,
	error          TEXT
);
`

const imageTableSQL = `
CREATE TABLE IF NOT EXISTS image_jobs (
	request_id     TEXT PRIMARY KEY,
	created_at     TEXT NOT NULL,
	prompt         TEXT NOT NULL,
	model          TEXT NOT NULL,
	aspect_ratio   TEXT NOT NULL,
	image_size     TEXT NOT NULL,
	image_count    INTEGER NOT NULL,
	result_url     TEXT,
	result_content TEXT,
	status         TEXT,
	progress       INTEGER,
	failure_reason TEXT,
	error          TEXT
);
`

// Kind describes one job table: its schema and how upstream result
// object keys map onto stored columns.
type Kind struct {
	Table     string
	createSQL string

	// ResultColumns maps keys of the first upstream result object to
	// the columns they persist into.
	ResultColumns map[string]string
}

// Video jobs persist the result URL and the upstream process id.
var Video = Kind{
	Table:     "video_jobs",
	createSQL: videoTableSQL,
	ResultColumns: map[string]string{
		"url": "result_url",
		"pid": "pid",
	},
}

// Image jobs persist the result URL and inline content.
var Image = Kind{
	Table:     "image_jobs",
	createSQL: imageTableSQL,
	ResultColumns: map[string]string{
		"url":     "result_url",
		"content": "result_content",
	},
}

// Record is one fetched job row, keyed by column name. Absent and NULL
// columns are omitted.
type Record map[string]any

// Status returns the stored status, or empty when unset.
func (r Record) Status() string {
	s, _ := r["status"].(string)
	return s
}

// Progress returns the stored progress percentage.
func (r Record) Progress() int {
	switch v := r["progress"].(type) {
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// String returns a string column's value, or empty when unset.
func (r Record) String(column string) string {
	s, _ := r[column].(string)
	return s
}

// Store persists jobs of one kind in SQLite. Safe for concurrent use
// across jobs; a single job is only ever written by its own supervising
// task.
type Store struct {
	db   *sql.DB
	kind Kind
}

// NewStore opens (or creates) the job table for a kind at the given
// database path.
func NewStore(dbPath string, kind Kind) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(kind.createSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", kind.Table, err)
	}
	return &Store{db: db, kind: kind}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Kind returns the job kind this store persists.
func (s *Store) Kind() Kind {
	return s.kind
}

// Insert writes a new job row from a column→value map. Inserting an id
// that already exists is a no-op, not an error, so a duplicate
// submission never clobbers a job already in flight.
func (s *Store) Insert(fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	columns := sortedColumns(fields)
	if err := checkColumns(columns); err != nil {
		return err
	}
	values := make([]any, len(columns))
	for i, c := range columns {
		values[i] = fields[c]
	}
	query := fmt.Sprintf(
		"INSERT OR IGNORE INTO %s (%s) VALUES (%s)",
		s.kind.Table,
		strings.Join(columns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
	)
	if _, err := s.db.Exec(query, values...); err != nil {
		return fmt.Errorf("insert into %s: %w", s.kind.Table, err)
	}
	return nil
}

// Update overwrites the given columns of one job row. A no-op for an
// empty field map.
func (s *Store) Update(id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	columns := sortedColumns(fields)
	if err := checkColumns(columns); err != nil {
		return err
	}
	assignments := make([]string, len(columns))
	values := make([]any, 0, len(columns)+1)
	for i, c := range columns {
		assignments[i] = c + " = ?"
		values = append(values, fields[c])
	}
	values = append(values, id)
	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE request_id = ?",
		s.kind.Table,
		strings.Join(assignments, ", "),
	)
	if _, err := s.db.Exec(query, values...); err != nil {
		return fmt.Errorf("update %s in %s: %w", id, s.kind.Table, err)
	}
	return nil
}

// Fetch reads one job row. Returns nil with no error when the id is
// unknown.
func (s *Store) Fetch(id string) (Record, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE request_id = ?", s.kind.Table)
	rows, err := s.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", id, s.kind.Table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", id, s.kind.Table, err)
	}
	raw := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", id, s.kind.Table, err)
	}

	record := make(Record, len(columns))
	for i, c := range columns {
		switch v := raw[i].(type) {
		case nil:
			// omit NULLs
		case []byte:
			record[c] = string(v)
		default:
			record[c] = v
		}
	}
	return record, rows.Err()
}

func sortedColumns(fields map[string]any) []string {
	columns := make([]string, 0, len(fields))
	for c := range fields {
		columns = append(columns, c)
	}
	sort.Strings(columns)
	return columns
}

// checkColumns rejects anything that is not a plain lowercase
// identifier; column names come from our own code, not user input, so
// a failure here is a programming error.
func checkColumns(columns []string) error {
	for _, c := range columns {
		for _, ch := range c {
			if ch != '_' && (ch < 'a' || ch > 'z') && (ch < '0' || ch > '9') {
				return fmt.Errorf("invalid column name %q", c)
			}
		}
	}
	return nil
}
