package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/tracecheck/internal/validation"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// Run is a stored validation run.
type Run struct {
	ID        string        `json:"id"`
	Source    string        `json:"source"`
	CheckedAt time.Time     `json:"checked_at"`
	Records   int           `json:"records"`
	AllPassed bool          `json:"all_passed"`
	Mode      string        `json:"mode"`
	Duration  time.Duration `json:"duration"`
	Layers    []Layer       `json:"layers,omitempty"`
}

// Layer is one layer's stored outcome.
type Layer struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	// Source restricts to runs of one trace path. Empty matches all.
	Source string
	// Limit caps the number of runs returned. Zero means 20.
	Limit int
}

// RunFromResult converts a validation result into a storable run.
func RunFromResult(result *validation.Result, mode string) *Run {
	run := &Run{
		ID:        result.RunID,
		Source:    result.Source,
		CheckedAt: result.CheckedAt,
		Records:   result.Records,
		AllPassed: result.AllPassed,
		Mode:      mode,
		Duration:  result.Duration,
	}
	for _, layer := range result.Layers.All() {
		run.Layers = append(run.Layers, Layer{
			Name:   layer.Name,
			Passed: layer.Passed,
			Output: layer.Output,
			Error:  layer.ErrorText,
		})
	}
	return run
}

// CreateRun inserts a run and its layers.
func (db *DB) CreateRun(r *Run) error {
	return db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO runs (id, source, checked_at, records, all_passed, mode, duration_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, r.ID, r.Source, formatTime(r.CheckedAt), r.Records, boolToInt(r.AllPassed), r.Mode, int64(r.Duration))
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for i, layer := range r.Layers {
			_, err := tx.Exec(`
				INSERT INTO layers (run_id, seq, name, passed, output, error)
				VALUES (?, ?, ?, ?, ?, ?)
			`, r.ID, i, layer.Name, boolToInt(layer.Passed), nullString(layer.Output), nullString(layer.Error))
			if err != nil {
				return fmt.Errorf("insert layer %s: %w", layer.Name, err)
			}
		}
		return nil
	})
}

// GetRun retrieves a run with its layers.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`
		SELECT id, source, checked_at, records, all_passed, mode, duration_ns
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	rows, err := db.Query(`
		SELECT name, passed, output, error FROM layers WHERE run_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get layers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			layer  Layer
			passed int
			output sql.NullString
			errStr sql.NullString
		)
		if err := rows.Scan(&layer.Name, &passed, &output, &errStr); err != nil {
			return nil, fmt.Errorf("scan layer: %w", err)
		}
		layer.Passed = passed != 0
		layer.Output = output.String
		layer.Error = errStr.String
		run.Layers = append(run.Layers, layer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate layers: %w", err)
	}

	return run, nil
}

// ListRuns returns runs newest first, without layers.
func (db *DB) ListRuns(filter RunFilter) ([]Run, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, source, checked_at, records, all_passed, mode, duration_ns FROM runs`
	args := []any{}
	if filter.Source != "" {
		query += ` WHERE source = ?`
		args = append(args, filter.Source)
	}
	query += ` ORDER BY checked_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run       Run
		checkedAt string
		allPassed int
		duration  int64
	)
	if err := s.Scan(&run.ID, &run.Source, &checkedAt, &run.Records, &allPassed, &run.Mode, &duration); err != nil {
		return nil, err
	}
	t, err := parseTime(checkedAt)
	if err != nil {
		return nil, fmt.Errorf("parse checked_at: %w", err)
	}
	run.CheckedAt = t
	run.AllPassed = allPassed != 0
	run.Duration = time.Duration(duration)
	return &run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
