// Package sqlite provides SQLite database storage for reposync.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/inovacc/reposync/internal/model"
	"github.com/inovacc/reposync/internal/store"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const timeLayout = time.RFC3339Nano

// Store implements the store.Store interface using SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ store.Store = (*Store)(nil)

// New opens the SQLite database at dbPath. The schema is not touched until
// EnsureSchema is called.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't handle multiple writers well
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	return &Store{db: db, path: dbPath}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks if the database is accessible.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema applies pending migrations.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx)
}

// withConn acquires a connection for one logical operation and releases it
// on every exit path.
func (s *Store) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}

	defer func() { _ = conn.Close() }()

	return fn(conn)
}

// ============================================================================
// Project Operations
// ============================================================================

func (s *Store) UpsertProject(ctx context.Context, name, description string) (int64, bool, error) {
	if name == "" {
		return 0, false, store.ErrEmptyProjectName
	}

	var (
		id      int64
		created bool
	)

	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, `
			INSERT INTO projects (name, description) VALUES (?, ?)
			ON CONFLICT(name) DO NOTHING
		`, name, nullString(description))
		if err != nil {
			return mapError(err)
		}

		if n, err := res.RowsAffected(); err == nil && n > 0 {
			created = true
		}

		return conn.QueryRowContext(ctx, `SELECT id FROM projects WHERE name = ?`, name).Scan(&id)
	})
	if err != nil {
		return 0, false, fmt.Errorf("upserting project %q: %w", name, err)
	}

	return id, created, nil
}

func (s *Store) ProjectIDByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64

	err := s.withConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, `SELECT id FROM projects WHERE name = ?`, name).Scan(&id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}

	if err != nil {
		return 0, false, fmt.Errorf("looking up project %q: %w", name, mapError(err))
	}

	return id, true, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]model.ProjectSummary, error) {
	var projects []model.ProjectSummary

	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT p.id, p.name, COALESCE(p.description, ''), COUNT(r.id)
			FROM projects p
			LEFT JOIN repositories r ON r.project_id = p.id
			GROUP BY p.id, p.name, p.description
			ORDER BY p.name
		`)
		if err != nil {
			return mapError(err)
		}

		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var p model.ProjectSummary
			if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.RepositoryCount); err != nil {
				return fmt.Errorf("scanning project: %w", err)
			}

			projects = append(projects, p)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	return projects, nil
}

// ============================================================================
// Repository Operations
// ============================================================================

func (s *Store) UpsertRepository(ctx context.Context, repo *model.Repository) (bool, error) {
	if err := repo.Validate(); err != nil {
		return false, err
	}

	var created bool

	err := s.withConn(ctx, func(conn *sql.Conn) (err error) {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}

		defer func() {
			if err != nil {
				_ = tx.Rollback()
			}
		}()

		var projectExists int
		if err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM projects WHERE id = ?`, repo.ProjectID,
		).Scan(&projectExists); err != nil {
			return mapError(err)
		}

		if projectExists == 0 {
			return fmt.Errorf("%w: id %d", store.ErrProjectNotFound, repo.ProjectID)
		}

		var owner int64

		err = tx.QueryRowContext(ctx,
			`SELECT remote_id FROM repositories WHERE url = ? AND remote_id <> ?`, repo.URL, repo.RemoteID,
		).Scan(&owner)

		switch {
		case err == nil:
			return fmt.Errorf("%w: %s is stored for remote id %d", store.ErrURLConflict, repo.URL, owner)
		case !errors.Is(err, sql.ErrNoRows):
			return mapError(err)
		}

		var existing int
		if err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM repositories WHERE remote_id = ?`, repo.RemoteID,
		).Scan(&existing); err != nil {
			return mapError(err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO repositories (remote_id, name, visibility, created_at, updated_at, stars, forks, url, project_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(remote_id) DO UPDATE SET
				name = excluded.name,
				visibility = excluded.visibility,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at,
				stars = excluded.stars,
				forks = excluded.forks,
				url = excluded.url,
				project_id = excluded.project_id
		`, repo.RemoteID, repo.Name, string(repo.Visibility),
			formatTime(repo.CreatedAt), formatTime(repo.UpdatedAt),
			repo.Stars, repo.Forks, repo.URL, repo.ProjectID)
		if err != nil {
			return mapError(err)
		}

		if err = tx.Commit(); err != nil {
			return fmt.Errorf("committing transaction: %w", err)
		}

		created = existing == 0

		return nil
	})
	if err != nil {
		return false, fmt.Errorf("upserting repository %q (remote id %d): %w", repo.Name, repo.RemoteID, err)
	}

	return created, nil
}

const repositoryColumns = `r.remote_id, r.name, r.visibility, r.created_at, r.updated_at, r.stars, r.forks, r.url, r.project_id`

func (s *Store) GetRepository(ctx context.Context, remoteID int64) (*model.Repository, error) {
	var repo *model.Repository

	err := s.withConn(ctx, func(conn *sql.Conn) error {
		row := conn.QueryRowContext(ctx,
			`SELECT `+repositoryColumns+` FROM repositories r WHERE r.remote_id = ?`, remoteID)

		r, err := scanRepository(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}

		if err != nil {
			return err
		}

		repo = r

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("getting repository %d: %w", remoteID, err)
	}

	return repo, nil
}

func (s *Store) ListRepositories(ctx context.Context, projectName string) ([]model.Repository, error) {
	query := `SELECT ` + repositoryColumns + ` FROM repositories r`
	args := []any{}

	if projectName != "" {
		query += ` JOIN projects p ON p.id = r.project_id WHERE p.name = ?`

		args = append(args, projectName)
	}

	query += ` ORDER BY r.name, r.remote_id`

	var repos []model.Repository

	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return mapError(err)
		}

		defer func() { _ = rows.Close() }()

		for rows.Next() {
			r, err := scanRepository(rows)
			if err != nil {
				return err
			}

			repos = append(repos, *r)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}

	return repos, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRepository(row scanner) (*model.Repository, error) {
	var (
		r                    model.Repository
		visibility           string
		createdAt, updatedAt string
	)

	if err := row.Scan(&r.RemoteID, &r.Name, &visibility, &createdAt, &updatedAt,
		&r.Stars, &r.Forks, &r.URL, &r.ProjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("scanning repository: %w", mapError(err))
	}

	var err error

	if r.Visibility, err = model.ParseVisibility(visibility); err != nil {
		return nil, err
	}

	if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	if r.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// mapError translates SQLite constraint and schema errors into store errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()

	switch {
	case strings.Contains(msg, "no such table"):
		return fmt.Errorf("%w: %v", store.ErrSchemaNotReady, err)
	case strings.Contains(msg, "UNIQUE constraint failed: repositories.url"):
		return fmt.Errorf("%w: %v", store.ErrURLConflict, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", store.ErrProjectNotFound, err)
	}

	return err
}
