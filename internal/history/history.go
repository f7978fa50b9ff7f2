// Package history records render runs in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Status values stored for a run.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

var ErrNotFound = errors.New("run not found")

// Run is one recorded render.
type Run struct {
	ID        string     `json:"id"`
	Project   string     `json:"project"`
	Output    string     `json:"output"`
	WorkDir   string     `json:"work_dir"`
	Mode      string     `json:"mode,omitempty"`
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
	TotalSec  float64    `json:"total_sec"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Store persists runs.
type Store struct {
	db     *sql.DB
	lock   *flock.Flock
	logger *slog.Logger
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	sharedLockTimeout = 5 * time.Second
	sharedLockRetry   = 50 * time.Millisecond
)

// Open creates or opens the database at path and applies pending migrations.
// Every open store holds a shared lock on <path>.lock. Runs left in the
// running state are marked failed only when no other store holds that lock,
// so a live render in another process keeps its status.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	if err := s.acquire(path + ".lock"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// acquire marks interrupted runs if this is the only store on the database,
// then holds a shared lock until Close.
func (s *Store) acquire(lockPath string) error {
	lock := flock.New(lockPath)
	sole, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock history db: %w", err)
	}
	if sole {
		if err := s.markInterrupted(context.Background()); err != nil && s.logger != nil {
			s.logger.Warn("failed to mark interrupted runs", "error", err)
		}
		if err := lock.Unlock(); err != nil {
			return fmt.Errorf("unlock history db: %w", err)
		}
	} else if s.logger != nil {
		s.logger.Debug("history db in use by another process, keeping running rows")
	}

	ctx, cancel := context.WithTimeout(context.Background(), sharedLockTimeout)
	defer cancel()
	ok, err := lock.TryRLockContext(ctx, sharedLockRetry)
	if err != nil {
		return fmt.Errorf("lock history db: %w", err)
	}
	if !ok {
		return fmt.Errorf("lock history db: timed out waiting for %s", lockPath)
	}
	s.lock = lock
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if s.lock != nil {
		if uerr := s.lock.Unlock(); err == nil {
			err = uerr
		}
	}
	return err
}

func (s *Store) migrate() error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	for _, m := range entries {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if s.migrationApplied(name) {
			continue
		}
		body, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(body)); err != nil {
			return fmt.Errorf("execute migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if s.logger != nil {
			s.logger.Debug("applied migration", "name", name)
		}
	}
	return nil
}

func (s *Store) migrationApplied(name string) bool {
	var applied int
	err := s.db.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

func (s *Store) markInterrupted(ctx context.Context) error {
	return s.exec(ctx,
		`UPDATE runs SET status = ?, error = 'interrupted', ended_at = ? WHERE status = ?`,
		StatusFailed, formatTime(time.Now()), StatusRunning)
}

// Begin records a new running run.
func (s *Store) Begin(ctx context.Context, r Run) error {
	if r.ID == "" {
		return errors.New("run id is empty")
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	return s.exec(ctx,
		`INSERT INTO runs (id, project, output, work_dir, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Project, r.Output, r.WorkDir, StatusRunning, formatTime(r.StartedAt))
}

// Finish closes a run. A nil runErr marks it succeeded; context cancellation
// marks it cancelled.
func (s *Store) Finish(ctx context.Context, id, mode string, total time.Duration, runErr error) error {
	status, msg := StatusSucceeded, ""
	switch {
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		status, msg = StatusCancelled, runErr.Error()
	case runErr != nil:
		status, msg = StatusFailed, firstLine(runErr.Error())
	}
	return s.exec(ctx,
		`UPDATE runs SET status = ?, error = ?, mode = ?, total_sec = ?, ended_at = ? WHERE id = ?`,
		status, msg, mode, total.Seconds(), formatTime(time.Now()), id)
}

const selectRun = `SELECT id, project, output, work_dir, mode, status, error, total_sec, started_at, ended_at FROM runs`

// List returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	q := selectRun + " ORDER BY started_at DESC, id"
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, selectRun+" WHERE id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r       Run
		started string
		ended   sql.NullString
	)
	if err := sc.Scan(&r.ID, &r.Project, &r.Output, &r.WorkDir, &r.Mode, &r.Status, &r.Error, &r.TotalSec, &started, &ended); err != nil {
		return Run{}, err
	}
	t, err := parseTime(started)
	if err != nil {
		return Run{}, fmt.Errorf("run %s started_at: %w", r.ID, err)
	}
	r.StartedAt = t
	if ended.Valid && ended.String != "" {
		e, err := parseTime(ended.String)
		if err != nil {
			return Run{}, fmt.Errorf("run %s ended_at: %w", r.ID, err)
		}
		r.EndedAt = &e
	}
	return r, nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		_, lastErr = s.db.ExecContext(ctx, query, args...)
		if lastErr == nil || !isBusy(lastErr) {
			return lastErr
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, busyRetryMaxBackoff)
	}
	return lastErr
}

func isBusy(err error) bool {
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) }

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
