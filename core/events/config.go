package events

import "time"

// Config holds configuration for the Kafka event publisher.
type Config struct {
	// Brokers lists Kafka bootstrap brokers; empty disables Kafka.
	Brokers []string `mapstructure:"brokers" default:""`
	// AuditTopic receives audit entries.
	AuditTopic string `mapstructure:"audit_topic" default:"inventory.audit"`
	// AlertTopic receives low-stock alerts.
	AlertTopic string `mapstructure:"alert_topic" default:"inventory.low_stock"`
	// BatchTimeout is how long the writer waits to fill a batch.
	BatchTimeout time.Duration `mapstructure:"batch_timeout" default:"10ms"`
}

// Enabled reports whether at least one broker is configured.
func (c Config) Enabled() bool {
	for _, b := range c.Brokers {
		if b != "" {
			return true
		}
	}
	return false
}
