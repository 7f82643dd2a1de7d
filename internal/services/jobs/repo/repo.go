// Package repo provides the Postgres job queue
package repo

import (
	"context"
	"time"

	"wikidomains/internal/modkit/repokit"
	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/platform/store"
	"wikidomains/internal/services/jobs/domain"
	rdom "wikidomains/internal/services/requests/domain"

	"github.com/google/uuid"
)

// Repo is the queue surface used by the worker
type Repo interface {
	Enqueue(ctx context.Context, kind rdom.Kind, jobType rdom.JobType, requestID int64, maxAttempts int) (string, error)
	Lease(ctx context.Context, workerID string, limit int, leaseFor time.Duration) ([]domain.Job, error)
	Complete(ctx context.Context, jobID string, generation int) error
	Requeue(ctx context.Context, jobID, lastErr string, nextAttemptAt time.Time) error
	Reschedule(ctx context.Context, jobID, hostnameID string, polls int, nextAttemptAt time.Time) error
}

type (
	// PG is a Postgres implementation of the queue
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// Enqueue creates the job for (kind, type, request) or pulls an existing one forward
// polling state survives so a re-enqueued provisioning job keeps its hostname;
// the generation bump keeps a job that is running right now from being deleted when it finishes
func (r *queries) Enqueue(
	ctx context.Context,
	kind rdom.Kind,
	jobType rdom.JobType,
	requestID int64,
	maxAttempts int,
) (string, error) {
	const sqlq = `
		INSERT INTO domain_request_jobs (job_id, kind, job_type, request_id, max_attempts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (kind, job_type, request_id) DO UPDATE
		SET attempts        = 0,
		    last_error      = '',
		    next_attempt_at = LEAST(domain_request_jobs.next_attempt_at, NOW()),
		    generation      = domain_request_jobs.generation + 1,
		    updated_at      = NOW()
		RETURNING job_id::text
	`
	var id string
	err := r.q.QueryRow(ctx, sqlq, uuid.New(), string(kind), string(jobType), requestID, maxAttempts).Scan(&id)
	if err != nil {
		return "", perr.FromPostgres(err, "enqueue job failed")
	}
	return id, nil
}

func scanJob(row store.Row) (domain.Job, error) {
	var (
		j             domain.Job
		kind, jobType string
	)
	err := row.Scan(
		&j.JobID, &kind, &jobType, &j.RequestID, &j.HostnameID, &j.Polls,
		&j.Attempts, &j.MaxAttempts, &j.LastError, &j.Generation,
		&j.NextAttemptAt, &j.LeasedBy, &j.LeaseExpires, &j.CreatedAt, &j.UpdatedAt,
	)
	j.Kind = rdom.Kind(kind)
	j.Type = rdom.JobType(jobType)
	return j, err
}

// oneLeaseIndex allows a single leased job per request
const oneLeaseIndex = "domain_request_jobs_one_lease"

// Lease takes up to limit due jobs, expired leases are taken over
// a request with a leased job gets no second one; losing that race to another
// worker trips domain_request_jobs_one_lease and leases nothing this round
func (r *queries) Lease(ctx context.Context, workerID string, limit int, leaseFor time.Duration) ([]domain.Job, error) {
	if workerID == "" {
		workerID = uuid.NewString()
	}
	const sqlq = `
		WITH cand AS (
			SELECT c.job_id, c.request_id, c.next_attempt_at
			  FROM domain_request_jobs c
			 WHERE (c.leased_by IS NULL OR c.lease_expires_at < NOW())
			   AND c.next_attempt_at <= NOW()
			   AND NOT EXISTS (
			       SELECT 1
			         FROM domain_request_jobs o
			        WHERE o.request_id = c.request_id
			          AND o.job_id <> c.job_id
			          AND o.leased_by IS NOT NULL
			   )
			 ORDER BY c.next_attempt_at ASC
			 LIMIT $1
			 FOR UPDATE OF c SKIP LOCKED
		), ready AS (
			SELECT DISTINCT ON (request_id) job_id
			  FROM cand
			 ORDER BY request_id, next_attempt_at ASC
		)
		UPDATE domain_request_jobs j
		   SET leased_by        = $2,
		       lease_expires_at = NOW() + make_interval(secs => $3),
		       updated_at       = NOW()
		 WHERE j.job_id IN (SELECT job_id FROM ready)
		RETURNING j.job_id::text, j.kind, j.job_type, j.request_id, j.hostname_id, j.polls,
		          j.attempts, j.max_attempts, j.last_error, j.generation,
		          j.next_attempt_at, j.leased_by, j.lease_expires_at, j.created_at, j.updated_at
	`
	out, err := store.Many(ctx, r.q, scanJob, sqlq, limit, workerID, leaseFor.Seconds())
	if perr.ConstraintName(err) == oneLeaseIndex {
		return nil, nil
	}
	if err != nil {
		return nil, perr.FromPostgres(err, "lease jobs failed")
	}
	return out, nil
}

// Complete removes a finished job
// when it was enqueued again during the run the row stays, unleased and
// with polling state reset, so the new request for work is not lost
func (r *queries) Complete(ctx context.Context, jobID string, generation int) error {
	const sqlq = `
		WITH gone AS (
			DELETE FROM domain_request_jobs
			 WHERE job_id = $1 AND generation = $2
			RETURNING job_id
		)
		UPDATE domain_request_jobs
		   SET leased_by        = NULL,
		       lease_expires_at = NULL,
		       hostname_id      = '',
		       polls            = 0,
		       updated_at       = NOW()
		 WHERE job_id = $1
		   AND generation <> $2
	`
	_, err := r.q.Exec(ctx, sqlq, jobID, generation)
	return perr.FromPostgres(err, "complete job failed")
}

// Requeue schedules a retry after a failure and clears the lease
func (r *queries) Requeue(ctx context.Context, jobID, lastErr string, nextAttemptAt time.Time) error {
	const sqlq = `
		UPDATE domain_request_jobs
		   SET attempts         = attempts + 1,
		       last_error       = $2,
		       next_attempt_at  = $3,
		       leased_by        = NULL,
		       lease_expires_at = NULL,
		       updated_at       = NOW()
		 WHERE job_id = $1
	`
	_, err := r.q.Exec(ctx, sqlq, jobID, lastErr, nextAttemptAt)
	return perr.FromPostgres(err, "requeue job failed")
}

// Reschedule parks a healthy job until its next poll, attempts are untouched
func (r *queries) Reschedule(ctx context.Context, jobID, hostnameID string, polls int, nextAttemptAt time.Time) error {
	const sqlq = `
		UPDATE domain_request_jobs
		   SET hostname_id      = $2,
		       polls            = $3,
		       next_attempt_at  = $4,
		       leased_by        = NULL,
		       lease_expires_at = NULL,
		       updated_at       = NOW()
		 WHERE job_id = $1
	`
	_, err := r.q.Exec(ctx, sqlq, jobID, hostnameID, polls, nextAttemptAt)
	return perr.FromPostgres(err, "reschedule job failed")
}
