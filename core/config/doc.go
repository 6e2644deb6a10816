// Package config provides configuration management for the inventory service.
//
// Values come from environment variables, optionally seeded from a .env file
// in the given directory. Defaults are declared on each section's struct with
// `default` tags and registered with Viper before unmarshalling.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, shutdown timeout
//   - Database: driver (mysql or sqlite), connection and lock-wait settings
//   - Storage: MinIO/S3 settings for bulk import files and report archives
//   - Log: level and format
//   - Encryption: the 256-bit item payload key (base64 or hex)
//   - Inventory: reservation timeout, bulk import limit
//   - Scheduler: reconciliation intervals and lease TTL
//   - Redis: lease backend; empty address keeps leases in-process
//   - Kafka: brokers and topics for audit entries and low-stock alerts
//
// Environment keys replace dots with underscores, e.g. DATABASE_LOCK_WAIT_SECONDS
// or SCHEDULER_RESYNC_INTERVAL=30m.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
