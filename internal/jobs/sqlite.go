package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lexakit/lexa/constants"
	"github.com/lexakit/lexa/internal/common"
	"github.com/lexakit/lexa/internal/extraction"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS extraction_jobs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	progress     REAL NOT NULL DEFAULT 0,
	model_id     TEXT NOT NULL DEFAULT '',
	request_id   TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL,
	completed_at TIMESTAMP,
	results      TEXT,
	error        TEXT NOT NULL DEFAULT '',
	request      TEXT
);
CREATE INDEX IF NOT EXISTS idx_extraction_jobs_updated ON extraction_jobs (updated_at);
`

// SQLiteStore persists jobs in a local SQLite database so they survive a
// restart. The cgo-free driver keeps the binary self-contained.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the job database at the given DSN.
// ":memory:" is accepted for tests.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite job store: %w", err)
	}
	// The driver serializes writes; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite job store: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, job *Job) error {
	results, request, err := marshalJobBlobs(job)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO extraction_jobs
			(id, status, progress, model_id, request_id, created_at, updated_at, completed_at, results, error, request)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			progress = excluded.progress,
			updated_at = excluded.updated_at,
			completed_at = excluded.completed_at,
			results = excluded.results,
			error = excluded.error,
			request = excluded.request`,
		job.ID.String(), string(job.Status), job.Progress, job.ModelID, job.RequestID,
		job.CreatedAt, job.UpdatedAt, nullableTime(job.CompletedAt), results, job.Error, request,
	)
	if err != nil {
		return fmt.Errorf("put job %s: %w", job.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, progress, model_id, request_id, created_at, updated_at, completed_at, results, error, request
		FROM extraction_jobs WHERE id = ?`, id.String())
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("JOB_NOT_FOUND", "extraction job not found", common.ErrNotFound)
	}
	return job, err
}

func (s *SQLiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM extraction_jobs WHERE id = ?`, id.String())
	return err
}

func (s *SQLiteStore) List(ctx context.Context) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, progress, model_id, request_id, created_at, updated_at, completed_at, results, error, request
		FROM extraction_jobs ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner) (*Job, error) {
	var (
		job       Job
		idStr     string
		status    string
		completed sql.NullTime
		results   sql.NullString
		request   sql.NullString
	)
	err := r.Scan(&idStr, &status, &job.Progress, &job.ModelID, &job.RequestID,
		&job.CreatedAt, &job.UpdatedAt, &completed, &results, &job.Error, &request)
	if err != nil {
		return nil, err
	}
	job.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt job id %q: %w", idStr, err)
	}
	job.Status = constants.JobStatus(status)
	if completed.Valid {
		t := completed.Time
		job.CompletedAt = &t
	}
	if results.Valid && results.String != "" {
		if err := json.Unmarshal([]byte(results.String), &job.Results); err != nil {
			return nil, fmt.Errorf("corrupt results for job %s: %w", idStr, err)
		}
	}
	if request.Valid && request.String != "" {
		var req extraction.Request
		if err := json.Unmarshal([]byte(request.String), &req); err != nil {
			return nil, fmt.Errorf("corrupt request for job %s: %w", idStr, err)
		}
		job.Request = &req
	}
	return &job, nil
}

func marshalJobBlobs(job *Job) (results, request sql.NullString, err error) {
	if job.Results != nil {
		b, mErr := json.Marshal(job.Results)
		if mErr != nil {
			return results, request, fmt.Errorf("marshal results: %w", mErr)
		}
		results = sql.NullString{String: string(b), Valid: true}
	}
	if job.Request != nil {
		b, mErr := json.Marshal(job.Request)
		if mErr != nil {
			return results, request, fmt.Errorf("marshal request: %w", mErr)
		}
		request = sql.NullString{String: string(b), Valid: true}
	}
	return results, request, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
