package module

import dom "wikidomains/internal/services/jobs/domain"

// Ports holds the ports exposed by the jobs module
type Ports struct {
	Worker   dom.WorkerPort
	Enqueuer dom.EnqueuePort
}
