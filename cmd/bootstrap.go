package cmd

import (
	"fmt"
	"time"

	"vault-inventory/core/codec"
	"vault-inventory/core/config"
	"vault-inventory/core/database"
	"vault-inventory/core/events"
	"vault-inventory/core/lease"
	"vault-inventory/core/logger"
	"vault-inventory/core/reconcile"
	"vault-inventory/feature/audit"
	"vault-inventory/feature/catalog"
	"vault-inventory/feature/inventory"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// deps bundles the dependencies shared by the commands.
type deps struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *gorm.DB
	publisher events.Publisher
	service   *inventory.Service
	scheduler *reconcile.Scheduler
	closers   []func() error
}

// bootstrap loads configuration and connects everything the inventory
// engine needs. requireKey makes a missing encryption key fatal.
func bootstrap(requireKey bool) (*deps, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	rt := &deps{cfg: cfg, logger: l}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	rt.db = db

	var c *codec.Codec
	if cfg.Encryption.Key != "" || requireKey {
		c, err = codec.NewFromString(cfg.Encryption.Key)
		if err != nil {
			return nil, err
		}
	} else {
		l.Warn("Encryption key not configured; intake and delivery are disabled")
	}

	rt.publisher = events.New(cfg.Kafka, l)
	rt.closers = append(rt.closers, rt.publisher.Close)

	sinks := audit.Multi{audit.NewLoggerSink(l)}
	var alerts inventory.Alerter = inventory.NewLogAlerter(l)
	if cfg.Kafka.Enabled() {
		sinks = append(sinks, audit.NewPublisherSink(rt.publisher, cfg.Kafka.AuditTopic))
		alerts = inventory.NewPublisherAlerter(rt.publisher, cfg.Kafka.AlertTopic)
	}

	rt.service = inventory.NewService(db, catalog.NewStore(), c, sinks, alerts, l, cfg.Inventory)

	locker, closeLocker := lease.New(cfg.Redis)
	rt.closers = append(rt.closers, closeLocker)

	rt.scheduler = reconcile.NewScheduler(l, locker, cfg.Scheduler.LeaseTTL)
	intervals := map[string]time.Duration{
		inventory.PassExpire:   cfg.Scheduler.ExpireInterval,
		inventory.PassRelease:  cfg.Scheduler.ReleaseInterval,
		inventory.PassLowStock: cfg.Scheduler.LowStockInterval,
		inventory.PassResync:   cfg.Scheduler.ResyncInterval,
	}
	for _, p := range rt.service.Passes() {
		rt.scheduler.Register(p, intervals[p.Name()])
	}

	return rt, nil
}

// close releases publishers and lease connections.
func (rt *deps) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Warn("Failed to close resource", zap.Error(err))
		}
	}
	_ = rt.logger.Sync()
}
