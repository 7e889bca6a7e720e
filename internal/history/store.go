// Package history records sweeps and their runs in a SQLite database so
// past sweeps can be listed and compared after their output directories
// have moved on.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/sweeper/internal/models"
)

// ErrNotFound is returned when no sweep matches a lookup.
var ErrNotFound = errors.New("sweep not found")

// SweepEntry is a recorded sweep with its summary counts.
type SweepEntry struct {
	ID          string
	ConfigPath  string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Total       int
	Shape       []int
	Succeeded   int
	Failed      int
	Skipped     int
	Interrupted bool
}

// RunEntry is a recorded run of a sweep.
type RunEntry struct {
	SweepID     string
	Index       int
	RunID       string
	RunDir      string
	Stage       models.Stage
	Status      models.Status
	ExitCode    *int
	Error       string
	Combination models.Combination
	Duration    time.Duration
	StartedAt   time.Time

	// GroundStateEnergy and GroundStatePosition are set when the run parsed a ground state.
	GroundStateEnergy   *float64
	GroundStatePosition *float64
}

// Store manages the SQLite history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens or creates the database at dbPath and applies migrations.
// ":memory:" opens a private in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every new connection would see its own empty database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	version, err := store.GetLatestVersion()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if known := migrations[len(migrations)-1].Version; version > known {
		db.Close()
		return nil, fmt.Errorf("database %s has schema version %d, newer than the supported %d", dbPath, version, known)
	}
	return store, nil
}

// execWithRetry executes a statement with exponential backoff on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSweep inserts the sweep or updates its counts and finish time.
func (s *Store) SaveSweep(ctx context.Context, report *models.SweepReport) error {
	shape, err := json.Marshal(report.Shape)
	if err != nil {
		return fmt.Errorf("marshal shape: %w", err)
	}

	var finishedAt sql.NullTime
	if !report.FinishedAt.IsZero() {
		finishedAt = sql.NullTime{Time: report.FinishedAt, Valid: true}
	}

	query := `INSERT INTO sweeps
		(id, config_path, started_at, finished_at, total, shape, succeeded, failed, skipped, interrupted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			succeeded = excluded.succeeded,
			failed = excluded.failed,
			skipped = excluded.skipped,
			interrupted = excluded.interrupted`

	_, err = s.db.ExecContext(ctx, query,
		report.SweepID,
		report.ConfigPath,
		report.StartedAt,
		finishedAt,
		report.Total,
		string(shape),
		report.Succeeded,
		report.Failed,
		report.Skipped,
		report.Interrupted,
	)
	if err != nil {
		return fmt.Errorf("save sweep: %w", err)
	}
	return nil
}

// SaveRun records a finalized run. Saving the same index twice replaces it.
func (s *Store) SaveRun(ctx context.Context, sweepID string, record models.RunRecord) error {
	combination, err := json.Marshal(record.Combination)
	if err != nil {
		return fmt.Errorf("marshal combination: %w", err)
	}

	var exitCode sql.NullInt64
	if record.ExitCode != nil {
		exitCode = sql.NullInt64{Int64: int64(*record.ExitCode), Valid: true}
	}
	var energy, position sql.NullFloat64
	if record.GroundState != nil {
		energy = sql.NullFloat64{Float64: record.GroundState.Energy, Valid: true}
		position = sql.NullFloat64{Float64: record.GroundState.Position, Valid: true}
	}

	query := `INSERT OR REPLACE INTO runs
		(sweep_id, run_index, run_id, run_dir, stage, status, exit_code, error_message,
		 combination, duration_ms, started_at, ground_state_ev, ground_state_nm)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		sweepID,
		record.Index,
		record.RunID,
		record.RunDir,
		string(record.Stage),
		string(record.Status),
		exitCode,
		record.Error,
		string(combination),
		record.Duration.Milliseconds(),
		record.StartedAt,
		energy,
		position,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", record.RunID, err)
	}
	return nil
}

const sweepColumns = `id, config_path, started_at, finished_at, total, shape, succeeded, failed, skipped, interrupted`

// ListSweeps returns the most recent sweeps first. A limit <= 0 returns all.
func (s *Store) ListSweeps(ctx context.Context, limit int) ([]SweepEntry, error) {
	query := `SELECT ` + sweepColumns + ` FROM sweeps ORDER BY started_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sweeps: %w", err)
	}
	defer rows.Close()

	var sweeps []SweepEntry
	for rows.Next() {
		entry, err := scanSweep(rows)
		if err != nil {
			return nil, err
		}
		sweeps = append(sweeps, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweeps: %w", err)
	}
	return sweeps, nil
}

// FindSweep returns the sweep whose id equals or uniquely starts with idPrefix.
func (s *Store) FindSweep(ctx context.Context, idPrefix string) (*SweepEntry, error) {
	if idPrefix == "" {
		return nil, ErrNotFound
	}
	query := `SELECT ` + sweepColumns + ` FROM sweeps WHERE id = ? OR substr(id, 1, ?) = ? ORDER BY id = ? DESC LIMIT 2`
	rows, err := s.db.QueryContext(ctx, query, idPrefix, len(idPrefix), idPrefix, idPrefix)
	if err != nil {
		return nil, fmt.Errorf("query sweep: %w", err)
	}
	defer rows.Close()

	var matches []*SweepEntry
	for rows.Next() {
		entry, err := scanSweep(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweeps: %w", err)
	}

	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idPrefix)
	case matches[0].ID == idPrefix || len(matches) == 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("sweep id %q is ambiguous", idPrefix)
	}
}

// GetRuns returns the runs of a sweep in combination order.
func (s *Store) GetRuns(ctx context.Context, sweepID string) ([]RunEntry, error) {
	query := `SELECT sweep_id, run_index, run_id, run_dir, stage, status, exit_code, error_message,
		combination, duration_ms, started_at, ground_state_ev, ground_state_nm
		FROM runs WHERE sweep_id = ? ORDER BY run_index ASC`

	rows, err := s.db.QueryContext(ctx, query, sweepID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunEntry
	for rows.Next() {
		var (
			run         RunEntry
			stage       string
			status      string
			runDir      sql.NullString
			errMsg      sql.NullString
			exitCode    sql.NullInt64
			combination sql.NullString
			durationMS  int64
			energy      sql.NullFloat64
			position    sql.NullFloat64
		)
		err := rows.Scan(&run.SweepID, &run.Index, &run.RunID, &runDir, &stage, &status, &exitCode,
			&errMsg, &combination, &durationMS, &run.StartedAt, &energy, &position)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		run.RunDir = runDir.String
		run.Stage = models.Stage(stage)
		run.Status = models.Status(status)
		run.Error = errMsg.String
		run.Duration = time.Duration(durationMS) * time.Millisecond
		if exitCode.Valid {
			code := int(exitCode.Int64)
			run.ExitCode = &code
		}
		if combination.Valid && combination.String != "" {
			if err := json.Unmarshal([]byte(combination.String), &run.Combination); err != nil {
				return nil, fmt.Errorf("unmarshal combination of %s: %w", run.RunID, err)
			}
		}
		if energy.Valid {
			run.GroundStateEnergy = &energy.Float64
		}
		if position.Valid {
			run.GroundStatePosition = &position.Float64
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanSweep(rows *sql.Rows) (*SweepEntry, error) {
	var (
		entry      SweepEntry
		configPath sql.NullString
		finishedAt sql.NullTime
		shape      sql.NullString
	)
	err := rows.Scan(&entry.ID, &configPath, &entry.StartedAt, &finishedAt, &entry.Total, &shape,
		&entry.Succeeded, &entry.Failed, &entry.Skipped, &entry.Interrupted)
	if err != nil {
		return nil, fmt.Errorf("scan sweep: %w", err)
	}

	entry.ConfigPath = configPath.String
	if finishedAt.Valid {
		t := finishedAt.Time
		entry.FinishedAt = &t
	}
	if shape.Valid && shape.String != "" {
		if err := json.Unmarshal([]byte(shape.String), &entry.Shape); err != nil {
			return nil, fmt.Errorf("unmarshal shape of %s: %w", entry.ID, err)
		}
	}
	return &entry, nil
}
