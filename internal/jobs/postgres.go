package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexakit/lexa/constants"
	"github.com/lexakit/lexa/internal/common"
	"github.com/lexakit/lexa/internal/extraction"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS extraction_jobs (
	id           UUID PRIMARY KEY,
	status       TEXT NOT NULL,
	progress     DOUBLE PRECISION NOT NULL DEFAULT 0,
	model_id     TEXT NOT NULL DEFAULT '',
	request_id   TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	results      JSONB,
	error        TEXT NOT NULL DEFAULT '',
	request      JSONB
);
CREATE INDEX IF NOT EXISTS idx_extraction_jobs_updated ON extraction_jobs (updated_at);
`

// PostgresStore persists jobs in Postgres for deployments where several
// replicas share one tracker backend.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres connects a pgx pool, applies the schema, and returns the
// store.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("jobs.store.connect", "backend", "postgres")

	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "lexad"

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect postgres job store: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres job store: %w", err)
	}

	logger.Info("jobs.store.ready", "backend", "postgres")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) Put(ctx context.Context, job *Job) error {
	var results, request []byte
	var err error
	if job.Results != nil {
		if results, err = json.Marshal(job.Results); err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
	}
	if job.Request != nil {
		if request, err = json.Marshal(job.Request); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO extraction_jobs
			(id, status, progress, model_id, request_id, created_at, updated_at, completed_at, results, error, request)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			progress = EXCLUDED.progress,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at,
			results = EXCLUDED.results,
			error = EXCLUDED.error,
			request = EXCLUDED.request`,
		job.ID, string(job.Status), job.Progress, job.ModelID, job.RequestID,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt, results, job.Error, request,
	)
	if err != nil {
		return fmt.Errorf("put job %s: %w", job.ID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, status, progress, model_id, request_id, created_at, updated_at, completed_at, results, error, request
		FROM extraction_jobs WHERE id = $1`, id)
	job, err := scanPgJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewAppError("JOB_NOT_FOUND", "extraction job not found", common.ErrNotFound)
	}
	return job, err
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM extraction_jobs WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) List(ctx context.Context) ([]*Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, status, progress, model_id, request_id, created_at, updated_at, completed_at, results, error, request
		FROM extraction_jobs ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanPgJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPgJob(r pgx.Row) (*Job, error) {
	var (
		job     Job
		status  string
		results []byte
		request []byte
	)
	err := r.Scan(&job.ID, &status, &job.Progress, &job.ModelID, &job.RequestID,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt, &results, &job.Error, &request)
	if err != nil {
		return nil, err
	}
	job.Status = constants.JobStatus(status)
	if len(results) > 0 {
		if err := json.Unmarshal(results, &job.Results); err != nil {
			return nil, fmt.Errorf("corrupt results for job %s: %w", job.ID, err)
		}
	}
	if len(request) > 0 {
		var req extraction.Request
		if err := json.Unmarshal(request, &req); err != nil {
			return nil, fmt.Errorf("corrupt request for job %s: %w", job.ID, err)
		}
		job.Request = &req
	}
	return &job, nil
}
