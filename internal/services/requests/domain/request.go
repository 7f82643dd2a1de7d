package domain

import (
	"net/url"
	"strings"
	"time"

	perr "wikidomains/internal/platform/errors"
)

// Status is the moderation state of a request
type Status string

// Request states
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "inprogress"
	StatusNotPointed Status = "notpointed"
	StatusComplete   Status = "complete"
	StatusDeclined   Status = "declined"
)

// Statuses lists every state in queue order
var Statuses = []Status{StatusPending, StatusInProgress, StatusNotPointed, StatusComplete, StatusDeclined}

// Valid reports whether s is a known state
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusNotPointed, StatusComplete, StatusDeclined:
		return true
	}
	return false
}

// Terminal reports whether s is out of the moderation queue
func (s Status) Terminal() bool { return s.Valid() && s != StatusPending && s != StatusInProgress }

// Reopenable reports whether an edit by the requester moves s back to pending
func (s Status) Reopenable() bool { return s == StatusDeclined }

// ParseStatus validates s as a Status
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", perr.WithField(perr.Validationf("unknown status %q", s), "status")
	}
	return st, nil
}

// ActorKind tells real users apart from synthetic authors
type ActorKind string

// Actor kinds
const (
	ActorUser   ActorKind = "user"
	ActorSystem ActorKind = "system"
)

// Actor is whoever performs an operation or authors a comment
type Actor struct {
	ID   int64     `json:"id"   example:"42"`
	Name string    `json:"name" example:"Example"`
	Kind ActorKind `json:"kind" example:"user"`
}

// UserActor builds a real user actor
func UserActor(id int64, name string) Actor { return Actor{ID: id, Name: name, Kind: ActorUser} }

// SystemActor builds a synthetic actor, system actors never have an id
func SystemActor(name string) Actor { return Actor{Name: name, Kind: ActorSystem} }

// IsSystem reports whether a is synthetic
func (a Actor) IsSystem() bool { return a.Kind == ActorSystem }

// Same reports whether a and b are the same real user
func (a Actor) Same(b Actor) bool { return !a.IsSystem() && !b.IsSystem() && a.ID != 0 && a.ID == b.ID }

// Request is one domain association request
type Request struct {
	ID           int64     `json:"id"            example:"7"`
	Kind         Kind      `json:"kind"          example:"ssl"`
	CustomDomain string    `json:"custom_domain" example:"https://example.org"`
	Target       string    `json:"target"        example:"examplewiki"`
	Reason       string    `json:"reason"        example:"our community owns example.org"`
	Status       Status    `json:"status"        example:"pending"`
	Requester    Actor     `json:"requester"`
	Locked       bool      `json:"locked"`
	Private      bool      `json:"private"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Host returns the hostname of CustomDomain, empty when it has none
func (r Request) Host() string { return HostOf(r.CustomDomain) }

// HostOf extracts the hostname from a stored custom domain
func HostOf(customDomain string) string {
	u, err := url.Parse(strings.TrimSpace(customDomain))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Comment is one immutable entry on a request
type Comment struct {
	ID        int64     `json:"id"         example:"3"`
	RequestID int64     `json:"request_id" example:"7"`
	Author    Actor     `json:"author"`
	Text      string    `json:"text"       example:"Domain is pointed via CNAME."`
	CreatedAt time.Time `json:"created_at"`
}

// NewRequest is what the store needs to create a row
type NewRequest struct {
	Kind         Kind
	CustomDomain string
	Target       string
	Reason       string
	Requester    Actor
	Private      bool
}

// Changes is a partial update, nil fields are left alone
type Changes struct {
	CustomDomain *string
	Target       *string
	Reason       *string
	Status       *Status
	Locked       *bool
	Private      *bool
}

// Empty reports whether c changes nothing
func (c Changes) Empty() bool {
	return c.CustomDomain == nil && c.Target == nil && c.Reason == nil &&
		c.Status == nil && c.Locked == nil && c.Private == nil
}

// Apply copies the set fields of c onto r
func (c Changes) Apply(r *Request) {
	if c.CustomDomain != nil {
		r.CustomDomain = *c.CustomDomain
	}
	if c.Target != nil {
		r.Target = *c.Target
	}
	if c.Reason != nil {
		r.Reason = *c.Reason
	}
	if c.Status != nil {
		r.Status = *c.Status
	}
	if c.Locked != nil {
		r.Locked = *c.Locked
	}
	if c.Private != nil {
		r.Private = *c.Private
	}
}

// Filter narrows a queue listing
type Filter struct {
	Kind        Kind
	Status      Status
	Target      string
	RequesterID int64

	// ViewerID sees their own private requests even without the view-private right
	ViewerID       int64
	IncludePrivate bool

	Limit  int
	Offset int
}
