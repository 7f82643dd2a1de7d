package module

import (
	"time"

	"wikidomains/internal/platform/config"
	dom "wikidomains/internal/services/jobs/domain"
	rdom "wikidomains/internal/services/requests/domain"
)

// Options controls the request job worker
type Options struct {
	WorkerID       string
	Concurrency    int
	QueueTakeBatch int
	RetryBaseMs    int
	MaxAttempts    int
	Lease          time.Duration

	PollInterval time.Duration
	MaxPolls     int

	RecheckSchedule string
	CNAMETarget     string
	Kinds           []rdom.Kind

	Cloudflare CloudflareOptions

	// Lifecycle is only set by the worker process
	Lifecycle dom.Lifecycle
}

// CloudflareOptions are the provider credentials and knobs
type CloudflareOptions struct {
	APIKey        string
	ZoneID        string
	BaseURL       string
	Proxy         string
	Timeout       time.Duration
	MinTLSVersion string
}

// FromConfig reads JOBS_, REQUESTS_ and CLOUDFLARE_ values
func FromConfig(cfg config.Conf) Options {
	j := cfg.Prefix("JOBS_")
	r := cfg.Prefix("REQUESTS_")
	cf := cfg.Prefix("CLOUDFLARE_")

	var kinds []rdom.Kind
	for _, k := range r.MayCSV("KINDS", nil) {
		kinds = append(kinds, rdom.Kind(k))
	}

	return Options{
		WorkerID:        j.MayString("WORKER_ID", ""),
		Concurrency:     j.MayInt("WORKER_CONCURRENCY", 4),
		QueueTakeBatch:  j.MayInt("QUEUE_TAKE_BATCH", 16),
		RetryBaseMs:     int(j.MayDuration("RETRY_BASE", 500*time.Millisecond).Milliseconds()),
		MaxAttempts:     j.MayInt("MAX_ATTEMPTS", 10),
		Lease:           j.MayDuration("LEASE", time.Minute),
		PollInterval:    j.MayDuration("POLL_INTERVAL", 10*time.Second),
		MaxPolls:        j.MayInt("MAX_POLLS", 30),
		RecheckSchedule: j.MayString("RECHECK_SCHEDULE", ""),
		CNAMETarget:     r.MayString("CNAME_TARGET", ""),
		Kinds:           kinds,
		Cloudflare: CloudflareOptions{
			APIKey:        cf.MayString("API_KEY", ""),
			ZoneID:        cf.MayString("ZONE_ID", ""),
			BaseURL:       cf.MayString("BASE_URL", ""),
			Proxy:         cf.MayString("PROXY", ""),
			Timeout:       cf.MayDuration("TIMEOUT", 15*time.Second),
			MinTLSVersion: cf.MayString("MIN_TLS_VERSION", "1.3"),
		},
	}
}
