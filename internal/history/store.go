package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"slotscan/internal/fault"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Store is a single-writer sqlite database with one row per recorded scan.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fault.New(fault.CodeStorage, "history database path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fault.AddContext(fault.New(fault.CodeStorage, "history database path is a directory, expected a file"), fault.CtxPath, cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fault.AddContext(fault.Wrap(err, fault.CodeStorage, "cannot create history directory"), fault.CtxPath, dir)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fault.AddContext(fault.Wrap(err, fault.CodeStorage, "cannot open history database"), fault.CtxPath, cleanPath)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fault.AddContext(fault.Wrap(err, fault.CodeStorage, "cannot open history database"), fault.CtxPath, cleanPath)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fault.AddContext(fault.Wrap(err, fault.CodeStorage, "cannot initialize history schema"), fault.CtxPath, cleanPath)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) SaveSnapshot(snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}
	if snapshot.SchemaVersion == 0 {
		snapshot.SchemaVersion = SchemaVersion
	}
	if snapshot.SchemaVersion != SchemaVersion {
		return fault.Newf(fault.CodeStorage, "unsupported snapshot schema version %d", snapshot.SchemaVersion)
	}

	query := `
INSERT INTO scans (
  id, schema_version, ts_utc, commit_hash, duration_ms,
  modules_all, modules_checked, modules_excluded, modules_skipped,
  classes_all, classes_with_slots, classes_without_slots, classes_not_applicable,
  error_count, note_count, problems
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING
`
	return s.withRetry("save scan snapshot", func() error {
		_, err := s.db.Exec(
			query,
			snapshot.ID,
			snapshot.SchemaVersion,
			snapshot.Timestamp.UTC().Format(time.RFC3339Nano),
			snapshot.CommitHash,
			snapshot.Duration.Milliseconds(),
			snapshot.ModulesAll,
			snapshot.ModulesChecked,
			snapshot.ModulesExcluded,
			snapshot.ModulesSkipped,
			snapshot.ClassesAll,
			snapshot.ClassesWithSlots,
			snapshot.ClassesWithoutSlots,
			snapshot.ClassesNotApplicable,
			snapshot.Errors,
			snapshot.Notes,
			boolInt(snapshot.Problems),
		)
		return err
	})
}

func (s *Store) LoadSnapshots(since time.Time) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT
  id, schema_version, ts_utc, commit_hash, duration_ms,
  modules_all, modules_checked, modules_excluded, modules_skipped,
  classes_all, classes_with_slots, classes_without_slots, classes_not_applicable,
  error_count, note_count, problems
FROM scans
`
	args := make([]any, 0, 1)
	if !since.IsZero() {
		query += " WHERE ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY ts_utc ASC, id ASC"

	var rows *sql.Rows
	err := s.withRetry("load scan snapshots", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		var (
			tsRaw      string
			durationMS int64
			problems   int
			snapshot   Snapshot
		)
		if err := rows.Scan(
			&snapshot.ID,
			&snapshot.SchemaVersion,
			&tsRaw,
			&snapshot.CommitHash,
			&durationMS,
			&snapshot.ModulesAll,
			&snapshot.ModulesChecked,
			&snapshot.ModulesExcluded,
			&snapshot.ModulesSkipped,
			&snapshot.ClassesAll,
			&snapshot.ClassesWithSlots,
			&snapshot.ClassesWithoutSlots,
			&snapshot.ClassesNotApplicable,
			&snapshot.Errors,
			&snapshot.Notes,
			&problems,
		); err != nil {
			return nil, fault.Wrap(err, fault.CodeStorage, "scan snapshot row")
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fault.Wrap(err, fault.CodeStorage, "parse snapshot timestamp")
		}
		snapshot.Timestamp = ts.UTC()
		snapshot.Duration = time.Duration(durationMS) * time.Millisecond
		snapshot.Problems = problems != 0

		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Wrap(err, fault.CodeStorage, "iterate snapshot rows")
	}

	return snapshots, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fault.Wrap(lastErr, fault.CodeStorage, op)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
