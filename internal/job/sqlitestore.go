package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dusk-indust/repomerge/internal/merge"
)

// SQLiteStore persists jobs in a SQLite database. The job row carries the
// scalar fields and the JSON-encoded summary; merged files and conflicts
// live in child tables keyed by job ID, ordered by position. Updates
// rewrite the whole job, so concurrent writers are last-write-wins.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	id            TEXT PRIMARY KEY,
	status        TEXT NOT NULL,
	provider      TEXT NOT NULL DEFAULT '',
	side_a_kind   TEXT NOT NULL,
	side_a_ident  TEXT NOT NULL,
	side_a_branch TEXT NOT NULL DEFAULT '',
	side_b_kind   TEXT NOT NULL,
	side_b_ident  TEXT NOT NULL,
	side_b_branch TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	summary       TEXT,
	created_at    INTEGER NOT NULL,
	completed_at  INTEGER
);

CREATE TABLE IF NOT EXISTS merged_files (
	job_id   TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	path     TEXT NOT NULL,
	content  TEXT NOT NULL,
	type     TEXT NOT NULL DEFAULT '',
	changes  TEXT NOT NULL,
	PRIMARY KEY (job_id, position)
);

CREATE TABLE IF NOT EXISTS conflicts (
	job_id         TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	position       INTEGER NOT NULL,
	file_path      TEXT NOT NULL,
	kind           TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	recommendation TEXT NOT NULL DEFAULT '',
	options        TEXT NOT NULL,
	PRIMARY KEY (job_id, position)
);
`

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. WAL mode keeps readers unblocked during job updates.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("job: open database: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("job: create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, j *Job) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("job: begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE id = ?`, j.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("job: check id: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrExists, j.ID)
	}

	if err := insertJob(ctx, tx, j); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("job: commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Job, error) {
	return loadJob(ctx, s.db, id)
}

// Update loads the job, applies mutate, and rewrites the whole record
// inside one transaction. The jobs row is updated in place so its rowid,
// and with it the creation order used by List, stays stable.
func (s *SQLiteStore) Update(ctx context.Context, id string, mutate func(*Job)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("job: begin: %w", err)
	}
	defer tx.Rollback()

	j, err := loadJob(ctx, tx, id)
	if err != nil {
		return err
	}

	mutate(j)
	j.ID = id // the mutation must not re-key the job

	if err := updateJobRow(ctx, tx, j); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM merged_files WHERE job_id = ?`, id); err != nil {
		return fmt.Errorf("job: rewrite %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conflicts WHERE job_id = ?`, id); err != nil {
		return fmt.Errorf("job: rewrite %s: %w", id, err)
	}
	if err := insertChildren(ctx, tx, j); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("job: commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("job: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("job: delete %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) DeleteFiles(ctx context.Context, id string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("job: check id: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM merged_files WHERE job_id = ?`, id); err != nil {
		return fmt.Errorf("job: delete files %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Job, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM jobs ORDER BY rowid LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("job: list: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("job: list: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("job: list: %w", err)
	}

	out := make([]*Job, 0, len(ids))
	for _, id := range ids {
		j, err := loadJob(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// encodeScalarColumns prepares the nullable JSON and timestamp columns.
func encodeScalarColumns(j *Job) (summaryJSON, completedAt any, err error) {
	if j.Summary != nil {
		data, err := json.Marshal(j.Summary)
		if err != nil {
			return nil, nil, fmt.Errorf("job: encode summary: %w", err)
		}
		summaryJSON = string(data)
	}
	if j.CompletedAt != nil {
		completedAt = j.CompletedAt.UnixNano()
	}
	return summaryJSON, completedAt, nil
}

func insertJob(ctx context.Context, q querier, j *Job) error {
	summaryJSON, completedAt, err := encodeScalarColumns(j)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO jobs (
			id, status, provider,
			side_a_kind, side_a_ident, side_a_branch,
			side_b_kind, side_b_ident, side_b_branch,
			error_message, summary, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, string(j.Status), j.Provider,
		string(j.SideA.Kind), j.SideA.Ident, j.SideA.Branch,
		string(j.SideB.Kind), j.SideB.Ident, j.SideB.Branch,
		j.ErrorMessage, summaryJSON, j.CreatedAt.UnixNano(), completedAt,
	)
	if err != nil {
		return fmt.Errorf("job: insert %s: %w", j.ID, err)
	}

	return insertChildren(ctx, q, j)
}

func updateJobRow(ctx context.Context, q querier, j *Job) error {
	summaryJSON, completedAt, err := encodeScalarColumns(j)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		UPDATE jobs SET
			status = ?, provider = ?,
			side_a_kind = ?, side_a_ident = ?, side_a_branch = ?,
			side_b_kind = ?, side_b_ident = ?, side_b_branch = ?,
			error_message = ?, summary = ?, created_at = ?, completed_at = ?
		WHERE id = ?`,
		string(j.Status), j.Provider,
		string(j.SideA.Kind), j.SideA.Ident, j.SideA.Branch,
		string(j.SideB.Kind), j.SideB.Ident, j.SideB.Branch,
		j.ErrorMessage, summaryJSON, j.CreatedAt.UnixNano(), completedAt,
		j.ID,
	)
	if err != nil {
		return fmt.Errorf("job: update %s: %w", j.ID, err)
	}
	return nil
}

func insertChildren(ctx context.Context, q querier, j *Job) error {
	for i, f := range j.MergedFiles {
		changes, err := json.Marshal(f.Changes)
		if err != nil {
			return fmt.Errorf("job: encode changes for %s: %w", f.Path, err)
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO merged_files (job_id, position, path, content, type, changes)
			VALUES (?, ?, ?, ?, ?, ?)`,
			j.ID, i, f.Path, f.Content, f.Type, string(changes),
		)
		if err != nil {
			return fmt.Errorf("job: insert file %s: %w", f.Path, err)
		}
	}

	for i, c := range j.Conflicts {
		options, err := json.Marshal(c.Options)
		if err != nil {
			return fmt.Errorf("job: encode options for %s: %w", c.FilePath, err)
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO conflicts (job_id, position, file_path, kind, description, recommendation, options)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			j.ID, i, c.FilePath, string(c.Kind), c.Description, c.Recommendation, string(options),
		)
		if err != nil {
			return fmt.Errorf("job: insert conflict %s: %w", c.FilePath, err)
		}
	}

	return nil
}

func loadJob(ctx context.Context, q querier, id string) (*Job, error) {
	var (
		j           Job
		status      string
		aKind       string
		bKind       string
		summaryJSON sql.NullString
		createdAt   int64
		completedAt sql.NullInt64
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, status, provider,
			side_a_kind, side_a_ident, side_a_branch,
			side_b_kind, side_b_ident, side_b_branch,
			error_message, summary, created_at, completed_at
		FROM jobs WHERE id = ?`, id,
	).Scan(
		&j.ID, &status, &j.Provider,
		&aKind, &j.SideA.Ident, &j.SideA.Branch,
		&bKind, &j.SideB.Ident, &j.SideB.Branch,
		&j.ErrorMessage, &summaryJSON, &createdAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("job: load %s: %w", id, err)
	}

	j.Status = Status(status)
	j.SideA.Kind = SourceKind(aKind)
	j.SideB.Kind = SourceKind(bKind)
	j.CreatedAt = time.Unix(0, createdAt).UTC()
	if completedAt.Valid {
		at := time.Unix(0, completedAt.Int64).UTC()
		j.CompletedAt = &at
	}
	if summaryJSON.Valid {
		var sum merge.Summary
		if err := json.Unmarshal([]byte(summaryJSON.String), &sum); err != nil {
			return nil, fmt.Errorf("job: decode summary for %s: %w", id, err)
		}
		j.Summary = &sum
	}

	files, err := loadMergedFiles(ctx, q, id)
	if err != nil {
		return nil, err
	}
	j.MergedFiles = files

	conflicts, err := loadConflicts(ctx, q, id)
	if err != nil {
		return nil, err
	}
	j.Conflicts = conflicts

	return &j, nil
}

func loadMergedFiles(ctx context.Context, q querier, id string) ([]merge.MergedFile, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT path, content, type, changes
		FROM merged_files WHERE job_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("job: load files for %s: %w", id, err)
	}
	defer rows.Close()

	var files []merge.MergedFile
	for rows.Next() {
		var f merge.MergedFile
		var changesJSON string
		if err := rows.Scan(&f.Path, &f.Content, &f.Type, &changesJSON); err != nil {
			return nil, fmt.Errorf("job: load files for %s: %w", id, err)
		}
		if err := json.Unmarshal([]byte(changesJSON), &f.Changes); err != nil {
			return nil, fmt.Errorf("job: decode changes for %s: %w", f.Path, err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func loadConflicts(ctx context.Context, q querier, id string) ([]merge.Conflict, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT file_path, kind, description, recommendation, options
		FROM conflicts WHERE job_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("job: load conflicts for %s: %w", id, err)
	}
	defer rows.Close()

	var conflicts []merge.Conflict
	for rows.Next() {
		var c merge.Conflict
		var kind, optionsJSON string
		if err := rows.Scan(&c.FilePath, &kind, &c.Description, &c.Recommendation, &optionsJSON); err != nil {
			return nil, fmt.Errorf("job: load conflicts for %s: %w", id, err)
		}
		c.Kind = merge.ConflictKind(kind)
		if err := json.Unmarshal([]byte(optionsJSON), &c.Options); err != nil {
			return nil, fmt.Errorf("job: decode options for %s: %w", c.FilePath, err)
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}
