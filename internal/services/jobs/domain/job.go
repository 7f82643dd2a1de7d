// Package domain defines background job types and the ports the worker consumes
package domain

import (
	"context"
	"time"

	rdom "wikidomains/internal/services/requests/domain"
)

// Job is one leased row of the request job queue
type Job struct {
	JobID       string
	Kind        rdom.Kind
	Type        rdom.JobType
	RequestID   int64
	HostnameID  string
	Polls       int
	Attempts    int
	MaxAttempts int
	LastError   string
	// Generation is bumped by each enqueue, see Repo.Complete
	Generation  int

	NextAttemptAt time.Time
	LeasedBy      string
	LeaseExpires  time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// WorkerPort runs the worker loop until ctx ends
type WorkerPort interface {
	Run(ctx context.Context) error
}

// EnqueuePort schedules jobs, it is the request lifecycle's Enqueuer
type EnqueuePort = rdom.Enqueuer

// Lifecycle is the system side of the request lifecycle the handlers drive
type Lifecycle interface {
	Load(ctx context.Context, id int64) (rdom.Request, error)
	ApplyDomainCheck(ctx context.Context, id int64, check rdom.DomainCheck) error
	BeginProvisioning(ctx context.Context, id int64) (rdom.Request, error)
	RequireBureaucrat(ctx context.Context, id int64) (bool, error)
	ApplyProvisioning(ctx context.Context, id int64, res rdom.ProvisionResult) error
	Stale(ctx context.Context, kind rdom.Kind, status rdom.Status, limit int) ([]int64, error)
}
