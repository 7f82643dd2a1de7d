package module

import (
	rdom "wikidomains/internal/services/requests/domain"
	svc "wikidomains/internal/services/requests/service"
)

// Ports holds what the requests module exposes and what it may be given
type Ports struct {
	// Enqueuer is injected via modkit.WithPorts, nil disables job scheduling
	Enqueuer rdom.Enqueuer

	Service svc.Service
	Jobs    svc.JobPort
}
