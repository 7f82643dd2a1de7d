package module

import (
	"time"

	"wikidomains/internal/adapters/auditlog"
	"wikidomains/internal/platform/config"
	"wikidomains/internal/services/requests/domain"
)

// Options controls the request lifecycle and its adapters
type Options struct {
	Kinds             []domain.Kind
	Privacy           bool
	CentralWiki       string
	DatabaseSuffix    string
	Subdomain         string
	DisallowedDomains []string
	NotifyOnAll       []string
	HelpURL           string
	RequireReason     bool
	CNAMETarget       string
	AutoProvision     bool
	ReopenPointed     bool
	ScriptCommand     string
	ServerIP          string

	LockTimeout   time.Duration
	TxAttempts    int
	SyncNotify    bool
	NotifyTimeout time.Duration

	// AuditTable is the ClickHouse table of the audit log
	AuditTable string

	// ProviderReady is true when cloudflare credentials are configured
	ProviderReady bool
}

// FromConfig reads REQUESTS_* values, plus the CLOUDFLARE_ credentials for ProviderReady
func FromConfig(cfg config.Conf) Options {
	rc := cfg.Prefix("REQUESTS_")
	cf := cfg.Prefix("CLOUDFLARE_")

	var kinds []domain.Kind
	for _, k := range rc.MayCSV("KINDS", []string{"ssl", "customdomain"}) {
		kinds = append(kinds, domain.Kind(k))
	}

	return Options{
		Kinds:             kinds,
		Privacy:           rc.MayBool("PRIVACY", false),
		CentralWiki:       rc.MayString("CENTRAL_WIKI", ""),
		DatabaseSuffix:    rc.MayString("DATABASE_SUFFIX", "wiki"),
		Subdomain:         rc.MayString("SUBDOMAIN", ""),
		DisallowedDomains: rc.MayCSV("DISALLOWED_DOMAINS", nil),
		NotifyOnAll:       rc.MayCSV("NOTIFY_ON_ALL", nil),
		HelpURL:           rc.MayString("HELP_URL", ""),
		RequireReason:     rc.MayBool("REQUIRE_REASON", true),
		CNAMETarget:       rc.MayString("CNAME_TARGET", ""),
		AutoProvision:     rc.MayBool("AUTO_PROVISION", false),
		ReopenPointed:     rc.MayBool("REOPEN_POINTED", false),
		ScriptCommand:     rc.MayString("SCRIPT_COMMAND", ""),
		ServerIP:          rc.MayString("SERVER_IP", ""),
		LockTimeout:       rc.MayDuration("LOCK_TIMEOUT", 5*time.Second),
		TxAttempts:        rc.MayInt("TX_ATTEMPTS", 3),
		SyncNotify:        rc.MayBool("SYNC_NOTIFY", false),
		NotifyTimeout:     rc.MayDuration("NOTIFY_TIMEOUT", 10*time.Second),
		AuditTable:        rc.MayString("AUDIT_TABLE", auditlog.DefaultTable),
		ProviderReady:     cf.MayString("API_KEY", "") != "" && cf.MayString("ZONE_ID", "") != "",
	}
}
