package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres persists jobs in a single table, solutions as JSONB.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Migrate creates the jobs table when it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS vrp_jobs (
    id              uuid PRIMARY KEY,
    status          text NOT NULL,
    created_at      timestamptz NOT NULL DEFAULT now(),
    problem         jsonb NOT NULL,
    solution        jsonb,
    callback_url    text,
    callback_secret text
)`)
	return err
}

func (p *Postgres) CreateJob(ctx context.Context, job Job) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO vrp_jobs (id, status, created_at, problem, callback_url, callback_secret) VALUES ($1,$2,$3,$4,$5,$6)`,
		job.ID, job.Status, job.CreatedAt, []byte(job.Problem), nullIfEmpty(job.CallbackURL), nullIfEmpty(job.CallbackSecret))
	return err
}

func (p *Postgres) GetJob(ctx context.Context, id string) (Job, error) {
	var job Job
	var problem, solution []byte
	var cbURL, cbSecret sql.NullString
	err := p.db.QueryRowContext(ctx,
		`SELECT id::text, status, created_at, problem, solution, callback_url, callback_secret FROM vrp_jobs WHERE id=$1`, id).
		Scan(&job.ID, &job.Status, &job.CreatedAt, &problem, &solution, &cbURL, &cbSecret)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, err
	}
	job.Problem = problem
	job.Solution = solution
	job.CallbackURL = cbURL.String
	job.CallbackSecret = cbSecret.String
	return job, nil
}

func (p *Postgres) UpdateJobStatus(ctx context.Context, id, status string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE vrp_jobs SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) SaveSolution(ctx context.Context, id string, solution json.RawMessage) error {
	res, err := p.db.ExecContext(ctx, `UPDATE vrp_jobs SET solution=$2 WHERE id=$1`, id, []byte(solution))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListJobs(ctx context.Context, page, perPage int) ([]Job, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 || perPage > 500 {
		perPage = 50
	}
	var total int
	if err := p.db.QueryRowContext(ctx, `SELECT count(*) FROM vrp_jobs`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, status, created_at FROM vrp_jobs ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`,
		perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []Job{}
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.Status, &job.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, job)
	}
	return out, total, rows.Err()
}

func (p *Postgres) DeleteJob(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM vrp_jobs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Close() error { return p.db.Close() }

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
