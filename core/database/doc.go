// Package database opens the GORM connection backing the inventory.
//
// Two drivers are supported. MySQL is the production store: it provides the
// row-level locks the reservation engine relies on, and the DSN carries
// innodb_lock_wait_timeout so a blocked transaction fails with a lock-wait error
// instead of hanging. SQLite serves single-process deployments and tests; it is
// pinned to a single connection, which serialises transactions.
//
// IsRetryable classifies MySQL lock-wait timeouts, deadlocks and expired
// contexts as transient, using the error numbers reported by go-sql-driver.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
