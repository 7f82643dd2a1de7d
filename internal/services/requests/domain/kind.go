// Package domain defines request types, the per kind policy and the ports the lifecycle consumes
package domain

import (
	"strings"

	perr "wikidomains/internal/platform/errors"
)

// Kind selects which request flavour a request belongs to
type Kind string

// Supported kinds
const (
	KindSSL          Kind = "ssl"
	KindCustomDomain Kind = "customdomain"
)

// Kinds lists every supported kind in a stable order
var Kinds = []Kind{KindSSL, KindCustomDomain}

// ParseKind validates s as a Kind
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := policies[k]; !ok {
		return "", perr.WithField(perr.Validationf("unknown request kind %q", s), "kind")
	}
	return k, nil
}

// Policy carries everything that differs between kinds
// the lifecycle is written once against this
type Policy struct {
	Kind Kind

	// HandleRight lets a user moderate requests of this kind
	HandleRight string

	// ViewPrivateRight lets a user see private requests, empty when privacy is off
	ViewPrivateRight string

	// EventPrefix namespaces notification events, e.g. requestssl-request-comment
	EventPrefix string

	// LogType is the audit log type, PrivateLogType is used for private requests
	LogType        string
	PrivateLogType string

	// Label prefixes human facing job messages
	Label string

	// SystemName authors job comments, StatusUpdateName authors status change comments
	SystemName       string
	StatusUpdateName string
}

var policies = map[Kind]Policy{
	KindSSL: {
		Kind:             KindSSL,
		HandleRight:      "handle-ssl-requests",
		ViewPrivateRight: "view-private-ssl-requests",
		EventPrefix:      "requestssl",
		LogType:          "requestssl",
		PrivateLogType:   "requestsslprivate",
		Label:            "RequestSSL",
		SystemName:       "RequestSSL Extension",
		StatusUpdateName: "RequestSSL Status Update",
	},
	KindCustomDomain: {
		Kind:             KindCustomDomain,
		HandleRight:      "handle-custom-domain-requests",
		EventPrefix:      "requestcustomdomain",
		LogType:          "requestcustomdomain",
		PrivateLogType:   "requestcustomdomainprivate",
		Label:            "RequestCustomDomain",
		SystemName:       "RequestCustomDomain Extension",
		StatusUpdateName: "RequestCustomDomain Status Update",
	},
}

// PolicyFor returns the policy of k
func PolicyFor(k Kind) (Policy, bool) {
	p, ok := policies[k]
	return p, ok
}

// MustPolicy is PolicyFor for kinds already validated
func MustPolicy(k Kind) Policy {
	p, ok := policies[k]
	if !ok {
		panic("domain: no policy for kind " + string(k))
	}
	return p
}

// WithPrivacy returns p with the privacy feature switched on or off
// kinds without a view-private right stay off
func (p Policy) WithPrivacy(on bool) Policy {
	if !on {
		p.ViewPrivateRight = ""
	}
	return p
}

// PrivacyEnabled reports whether private requests exist for this kind
func (p Policy) PrivacyEnabled() bool { return p.ViewPrivateRight != "" }

// Event namespaces an event name, Event(EventComment) = "requestssl-request-comment"
func (p Policy) Event(name string) string { return p.EventPrefix + "-" + name }

// AuditType picks the log type for a request
func (p Policy) AuditType(private bool) string {
	if private && p.PrivacyEnabled() {
		return p.PrivateLogType
	}
	return p.LogType
}

// System is the actor that authors job and edit comments
func (p Policy) System() Actor { return SystemActor(p.SystemName) }

// StatusUpdater is the actor that authors status change comments carrying a moderator note
func (p Policy) StatusUpdater() Actor { return SystemActor(p.StatusUpdateName) }

// Notification event names, prefixed with Policy.Event
const (
	EventNewRequest   = "new-request"
	EventComment      = "request-comment"
	EventStatusUpdate = "request-status-update"
)
