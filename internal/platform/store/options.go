package store

import "wikidomains/internal/platform/logger"

// Option adjusts a Store before any backend is opened
type Option func(*Store) error

// WithLogger is where open progress and traced sql go
func WithLogger(l logger.Logger) Option {
	return func(s *Store) error { s.Log = l; return nil }
}

// WithPG supplies the postgres runner, the configured DSN is then never dialed
func WithPG(pg TxRunner) Option {
	return func(s *Store) error { s.PG = pg; return nil }
}
