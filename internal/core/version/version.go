// Package version reports what build of wikidomains is running
package version

import "runtime"

// stamped at link time:
//
//	go build -ldflags "-X wikidomains/internal/core/version.version=v1.4.0 -X wikidomains/internal/core/version.commit=$(git rev-parse --short HEAD) -X wikidomains/internal/core/version.date=$(date -u +%F)"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const service = "wikidomains"

// BuildInfo is served on /meta/version
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

// Info is the stamped build plus the toolchain it was built with
func Info() BuildInfo {
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
		Go:      runtime.Version(),
	}
}

// UserAgent identifies us to Cloudflare and the wiki farm, for example wikidomains/v1.4.0 (abc1234)
func UserAgent() string {
	if commit == "none" {
		return service + "/" + version
	}
	return service + "/" + version + " (" + commit + ")"
}
