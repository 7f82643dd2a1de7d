package domain

import (
	"context"
	"time"
)

// SiteConfigurator is the registry of hosted wikis
type SiteConfigurator interface {
	// Exists reports whether dbname is a known wiki database
	Exists(ctx context.Context, dbname string) (bool, error)

	// SetServerName points dbname at serverName, e.g. "https://example.org"
	SetServerName(ctx context.Context, dbname, serverName string) error
}

// UserDirectory resolves users and their rights
type UserDirectory interface {
	ByID(ctx context.Context, id int64) (Actor, bool, error)
	ByName(ctx context.Context, name string) (Actor, bool, error)
	HasRight(ctx context.Context, userID int64, right string) (bool, error)

	// IsBureaucrat reports whether the user administers site
	IsBureaucrat(ctx context.Context, userID int64, site string) (bool, error)

	// Blocked reports whether the user may not file requests
	Blocked(ctx context.Context, userID int64) (bool, error)
}

// AuditEntry is one audit log row
type AuditEntry struct {
	At        time.Time
	LogType   string
	Action    string
	RequestID int64
	Kind      Kind
	Actor     Actor
	Target    string
	Comment   string
	Params    map[string]string
}

// Audit log actions
const (
	AuditRequest      = "request"
	AuditStatusUpdate = "statusupdate"
	AuditSettings     = "settings"

	// AuditManageWiki is the log type of server name changes
	AuditManageWiki = "managewiki"
)

// AuditLog records audit entries
type AuditLog interface {
	Record(ctx context.Context, e AuditEntry) error
}

// Notification is one delivery to one recipient
type Notification struct {
	Event     string `json:"event"`
	RequestID int64  `json:"request_id"`
	Kind      Kind   `json:"kind"`
	Comment   string `json:"comment,omitempty"`
	Agent     Actor  `json:"agent"`
	Recipient Actor  `json:"recipient"`
}

// NotificationSink delivers notifications
type NotificationSink interface {
	Send(ctx context.Context, n Notification) error
}

// JobType names a background job
type JobType string

// Job types
const (
	JobDomainCheck JobType = "domaincheck"
	JobProvision   JobType = "provision"
)

// Enqueuer schedules background jobs, one live job per kind, type and request
type Enqueuer interface {
	Enqueue(ctx context.Context, kind Kind, jobType JobType, requestID int64) error
}

// CheckVerdict is the outcome of a DNS pointing check
type CheckVerdict string

// Verdicts
const (
	VerdictPointed       CheckVerdict = "pointed"
	VerdictNotPointed    CheckVerdict = "notpointed"
	VerdictIndeterminate CheckVerdict = "indeterminate"
)

// DomainCheck is what the lifecycle needs from a DNS check
// Detail is for logs, the comment text follows the verdict
type DomainCheck struct {
	Verdict CheckVerdict
	Detail  string
}

// ProvisionResult is what the lifecycle needs from a provisioning outcome
// Status is the provider status, or "error" when the call itself failed
type ProvisionResult struct {
	Status             string
	Detail             string
	VerificationErrors []string
}

// Active reports whether the hostname went live
func (p ProvisionResult) Active() bool { return p.Status == ProvisionActive }

// Provider statuses the lifecycle treats specially
const (
	ProvisionActive  = "active"
	ProvisionPending = "pending"
	ProvisionBlocked = "blocked"
	ProvisionError   = "error"
	ProvisionTimeout = "timeout"
)
