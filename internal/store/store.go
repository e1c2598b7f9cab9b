// Package store persists projects and their entries in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNotFound is returned when a project or entry does not exist.
var ErrNotFound = errors.New("not found")

// Store is a SQLite-backed project store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at dbPath and applies migrations.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging db: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ListProjects returns every project with its entries, ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, name, description, opening_balance, currency, horizon_months, last_updated
		FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range projects {
		entries, err := s.Entries(ctx, projects[i].ID)
		if err != nil {
			return nil, err
		}
		projects[i].Entries = entries
	}
	return projects, nil
}

// Project loads a project by ID or, failing that, by exact name.
func (s *Store) Project(ctx context.Context, idOrName string) (model.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT
		id, name, description, opening_balance, currency, horizon_months, last_updated
		FROM projects WHERE id = ? OR name = ?
		ORDER BY id = ? DESC LIMIT 1`, idOrName, idOrName, idOrName)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("project %q: %w", idOrName, ErrNotFound)
	}
	if err != nil {
		return model.Project{}, err
	}

	p.Entries, err = s.Entries(ctx, p.ID)
	if err != nil {
		return model.Project{}, err
	}
	return p, nil
}

// SaveProject inserts or updates p together with its full entry list. Entries
// stored for p but absent from p.Entries are removed.
func (s *Store) SaveProject(ctx context.Context, p model.Project) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertProject(ctx, tx, p); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE project_id = ?", p.ID); err != nil {
		return err
	}
	for i, e := range p.Entries {
		if err := insertEntry(ctx, tx, p.ID, i, e); err != nil {
			return fmt.Errorf("saving entry %q: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// DeleteProject removes a project and its entries.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectRow(res, "project", id)
}

// ProjectCount returns the number of stored projects.
func (s *Store) ProjectCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&count)
	return count, err
}

// Entries returns a project's entries in insertion order.
func (s *Store) Entries(ctx context.Context, projectID string) ([]model.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, label, type, amount, currency, start_date, end_date,
		recurrence_kind, recurrence_interval, day_of_month, notes
		FROM entries WHERE project_id = ? ORDER BY position, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []model.Entry
	for rows.Next() {
		var e model.Entry
		var endDate sql.NullString
		err := rows.Scan(&e.ID, &e.Label, &e.Type, &e.Amount, &e.Currency, &e.StartDate, &endDate,
			&e.Recurrence.Kind, &e.Recurrence.Interval, &e.Recurrence.DayOfMonth, &e.Notes)
		if err != nil {
			return nil, err
		}
		if endDate.Valid && endDate.String != "" {
			d, err := calendar.Parse(endDate.String)
			if err != nil {
				return nil, fmt.Errorf("entry %q end date: %w", e.ID, err)
			}
			e.EndDate = &d
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveEntry inserts or replaces one entry of a project. New entries are
// appended after the existing ones.
func (s *Store) SaveEntry(ctx context.Context, projectID string, e model.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var position int
	err = tx.QueryRowContext(ctx,
		"SELECT position FROM entries WHERE project_id = ? AND id = ?", projectID, e.ID).Scan(&position)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(position) + 1, 0) FROM entries WHERE project_id = ?", projectID).Scan(&position)
	}
	if err != nil {
		return err
	}

	if err := insertEntry(ctx, tx, projectID, position, e); err != nil {
		return err
	}
	if err := touchProject(ctx, tx, projectID); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteEntry removes one entry from a project.
func (s *Store) DeleteEntry(ctx context.Context, projectID, entryID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE project_id = ? AND id = ?", projectID, entryID)
	if err != nil {
		return err
	}
	if err := expectRow(res, "entry", entryID); err != nil {
		return err
	}
	if err := touchProject(ctx, tx, projectID); err != nil {
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (model.Project, error) {
	var p model.Project
	var updated string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.OpeningBalance, &p.Currency, &p.HorizonMonths, &updated)
	if err != nil {
		return model.Project{}, err
	}
	if updated != "" {
		p.LastUpdated, _ = time.Parse(time.RFC3339, updated)
	}
	return p, nil
}

func upsertProject(ctx context.Context, tx *sql.Tx, p model.Project) error {
	updated := p.LastUpdated
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO projects
		(id, name, description, opening_balance, currency, horizon_months, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			opening_balance = excluded.opening_balance,
			currency = excluded.currency,
			horizon_months = excluded.horizon_months,
			last_updated = excluded.last_updated`,
		p.ID, p.Name, p.Description, p.OpeningBalance, strings.ToUpper(p.Currency), p.HorizonMonths,
		updated.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving project %q: %w", p.ID, err)
	}
	return nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, projectID string, position int, e model.Entry) error {
	var endDate any
	if e.EndDate != nil {
		endDate = e.EndDate.String()
	}
	_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO entries
		(project_id, id, position, label, type, amount, currency, start_date, end_date,
		 recurrence_kind, recurrence_interval, day_of_month, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		projectID, e.ID, position, e.Label, string(e.Type), e.Amount, e.Currency, e.StartDate.String(), endDate,
		string(e.Recurrence.Kind), e.Recurrence.Interval, e.Recurrence.DayOfMonth, e.Notes,
	)
	return err
}

func touchProject(ctx context.Context, tx *sql.Tx, projectID string) error {
	res, err := tx.ExecContext(ctx, "UPDATE projects SET last_updated = ? WHERE id = ?",
		time.Now().UTC().Format(time.RFC3339), projectID)
	if err != nil {
		return err
	}
	return expectRow(res, "project", projectID)
}

func expectRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	return nil
}
