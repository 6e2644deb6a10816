package reconcile

import "time"

// Config holds configuration for the reconciliation scheduler.
type Config struct {
	// Enabled starts the periodic loops with the HTTP server.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// ExpireInterval is the period of the expire pass.
	ExpireInterval time.Duration `mapstructure:"expire_interval" default:"1m"`
	// ReleaseInterval is the period of the stale-reservation release pass.
	ReleaseInterval time.Duration `mapstructure:"release_interval" default:"1m"`
	// LowStockInterval is the period of the low-stock check.
	LowStockInterval time.Duration `mapstructure:"low_stock_interval" default:"5m"`
	// ResyncInterval is the period of the counter resync pass.
	ResyncInterval time.Duration `mapstructure:"resync_interval" default:"15m"`
	// LeaseTTL bounds how long one process may hold a pass.
	LeaseTTL time.Duration `mapstructure:"lease_ttl" default:"10m"`
	// ArchiveReports stores each report in object storage when it is enabled.
	ArchiveReports bool `mapstructure:"archive_reports" default:"true"`
	// ArchiveRetain is how many archived reports are kept per pass; 0 keeps all.
	ArchiveRetain int `mapstructure:"archive_retain" default:"500"`
}
