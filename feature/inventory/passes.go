package inventory

import (
	"context"
	"fmt"
	"sort"

	"vault-inventory/core/events"
	"vault-inventory/core/reconcile"
	"vault-inventory/feature/catalog"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Pass names.
const (
	PassExpire   = "expire"
	PassRelease  = "release"
	PassLowStock = "low-stock"
	PassResync   = "resync"
)

// Alerter delivers low-stock alerts.
type Alerter interface {
	Alert(ctx context.Context, alert LowStockAlert) error
}

// PublisherAlerter publishes alerts keyed by product id.
type PublisherAlerter struct {
	publisher events.Publisher
	topic     string
}

// NewPublisherAlerter creates an alerter that publishes to topic.
func NewPublisherAlerter(publisher events.Publisher, topic string) *PublisherAlerter {
	return &PublisherAlerter{publisher: publisher, topic: topic}
}

// Alert implements Alerter.
func (a *PublisherAlerter) Alert(ctx context.Context, alert LowStockAlert) error {
	return a.publisher.Publish(ctx, a.topic, alert.ProductID, alert)
}

// LogAlerter writes alerts to the log.
type LogAlerter struct {
	logger *zap.Logger
}

// NewLogAlerter creates a log-only alerter.
func NewLogAlerter(logger *zap.Logger) *LogAlerter {
	return &LogAlerter{logger: logger}
}

// Alert implements Alerter.
func (a *LogAlerter) Alert(_ context.Context, alert LowStockAlert) error {
	a.logger.Warn("Low stock",
		zap.String("product_id", alert.ProductID),
		zap.Int("available", alert.Available),
		zap.Int("threshold", alert.Threshold),
		zap.Bool("unpublished", alert.Unpublished))
	return nil
}

// Passes returns the reconciliation passes in their canonical order.
func (s *Service) Passes() []reconcile.Pass {
	return []reconcile.Pass{
		reconcile.NewPass(PassExpire, s.ExpireItems),
		reconcile.NewPass(PassRelease, s.ReleaseStaleReservations),
		reconcile.NewPass(PassLowStock, s.CheckLowStock),
		reconcile.NewPass(PassResync, s.ResyncCounters),
	}
}

// ExpireItems moves available items past their expiry to expired, one
// transaction per product.
func (s *Service) ExpireItems(ctx context.Context) (reconcile.Report, error) {
	var report reconcile.Report
	now := s.now()

	products, err := s.items.ProductsWithExpired(ctx, s.db, now)
	if err != nil {
		return report, err
	}

	for _, productID := range products {
		var n int
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			n, err = s.items.ExpireDue(ctx, tx, productID, now)
			if err != nil {
				return err
			}
			return s.catalog.IncrementCounters(ctx, tx, productID, catalog.Delta{Available: -n})
		})
		if err != nil {
			s.logger.Error("Failed to expire items", zap.String("product_id", productID), zap.Error(err))
			report.Fail(productID, err)
			continue
		}
		report.Add(productID, n)
	}

	if report.Affected > 0 {
		s.record(ctx, "inventory.items.expired", "inventory", fmt.Sprintf("%d items expired", report.Affected), map[string]any{
			"products": report.Details,
		})
	}
	return report, nil
}

// ReleaseStaleReservations returns reservations older than
// Config.ReservationTimeout to stock.
func (s *Service) ReleaseStaleReservations(ctx context.Context) (reconcile.Report, error) {
	var report reconcile.Report
	now := s.now()
	cutoff := now.Add(-s.cfg.ReservationTimeout)

	products, err := s.items.ProductsWithStale(ctx, s.db, cutoff)
	if err != nil {
		return report, err
	}

	for _, productID := range products {
		var n int
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			n, err = s.items.ReleaseStale(ctx, tx, productID, cutoff, now)
			if err != nil {
				return err
			}
			return s.catalog.IncrementCounters(ctx, tx, productID, catalog.Delta{Reserved: -n, Available: n})
		})
		if err != nil {
			s.logger.Error("Failed to release reservations", zap.String("product_id", productID), zap.Error(err))
			report.Fail(productID, err)
			continue
		}
		report.Add(productID, n)
	}

	if report.Affected > 0 {
		s.record(ctx, "inventory.reservations.released", "inventory", fmt.Sprintf("%d stale reservations released", report.Affected), map[string]any{
			"products": report.Details,
			"timeout":  s.cfg.ReservationTimeout.String(),
		})
	}
	return report, nil
}

// CheckLowStock alerts for every product whose live available count is at
// or below its threshold and unpublishes sold-out products that opted in.
// Products without a threshold are ignored.
func (s *Service) CheckLowStock(ctx context.Context) (reconcile.Report, error) {
	var report reconcile.Report

	configs, err := s.catalog.LowStockConfigs(ctx, s.db)
	if err != nil {
		return report, err
	}
	live, err := s.items.CountByProduct(ctx, s.db, "")
	if err != nil {
		return report, err
	}

	for _, cfg := range configs {
		available := live[cfg.ProductID].Available

		unpublished := false
		if cfg.Threshold > 0 && available == 0 && cfg.AutoUnpublish && cfg.Published {
			if err := s.catalog.SetPublished(ctx, s.db, cfg.ProductID, false); err != nil {
				s.logger.Error("Failed to unpublish product", zap.String("product_id", cfg.ProductID), zap.Error(err))
				report.Fail(cfg.ProductID, err)
			} else {
				unpublished = true
				s.record(ctx, "catalog.product.unpublished", productRef(cfg.ProductID), "product unpublished: out of stock", map[string]any{
					"threshold": cfg.Threshold,
				})
			}
		}

		if cfg.Threshold <= 0 || available > cfg.Threshold {
			continue
		}
		alert := LowStockAlert{
			ProductID:   cfg.ProductID,
			Available:   available,
			Threshold:   cfg.Threshold,
			Unpublished: unpublished,
			At:          s.now(),
		}
		if err := s.alerts.Alert(ctx, alert); err != nil {
			s.logger.Error("Failed to send low-stock alert", zap.String("product_id", cfg.ProductID), zap.Error(err))
			report.Fail(cfg.ProductID, err)
			continue
		}
		report.Add(cfg.ProductID, 1)
	}
	return report, nil
}

// ResyncCounters recomputes every product's counters from the item records
// and overwrites the cached values that drifted. Each product is corrected
// under its row lock so concurrent reservations are not lost.
func (s *Service) ResyncCounters(ctx context.Context) (reconcile.Report, error) {
	var report reconcile.Report

	cached, err := s.catalog.ListCounters(ctx, s.db)
	if err != nil {
		return report, err
	}
	truth, err := s.items.CountByProduct(ctx, s.db, "")
	if err != nil {
		return report, err
	}

	ids := make([]string, 0, len(cached))
	for id := range cached {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, productID := range ids {
		if cached[productID] == truth[productID] {
			continue
		}
		fixed, err := s.resyncProduct(ctx, productID)
		if err != nil {
			s.logger.Error("Failed to resync counters", zap.String("product_id", productID), zap.Error(err))
			report.Fail(productID, err)
			continue
		}
		if fixed {
			report.Add(productID, 1)
		}
	}

	for productID := range truth {
		if _, ok := cached[productID]; !ok {
			s.logger.Warn("Items reference an unknown product", zap.String("product_id", productID))
			report.Fail(productID, fmt.Errorf("items reference an unknown product"))
		}
	}

	if report.Affected > 0 {
		s.record(ctx, "inventory.counters.resynced", "inventory", fmt.Sprintf("counters corrected for %d products", report.Affected), map[string]any{
			"products": report.Details,
		})
	}
	return report, nil
}

func (s *Service) resyncProduct(ctx context.Context, productID string) (bool, error) {
	fixed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.catalog.LockCounters(ctx, tx, productID)
		if err != nil {
			return err
		}
		counts, err := s.items.CountByProduct(ctx, tx, productID)
		if err != nil {
			return err
		}
		want := counts[productID]
		if current == want {
			return nil
		}

		s.logger.Info("Counter drift corrected",
			zap.String("product_id", productID),
			zap.Any("cached", current),
			zap.Any("actual", want))
		fixed = true
		return s.catalog.SetCounters(ctx, tx, productID, want)
	})
	return fixed, err
}
