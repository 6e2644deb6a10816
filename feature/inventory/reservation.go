package inventory

import (
	"context"
	"errors"
	"fmt"

	"vault-inventory/core/apperr"
	"vault-inventory/core/database"
	"vault-inventory/feature/audit"
	"vault-inventory/feature/catalog"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxClaimAttempts bounds how often Reserve retries after losing a claim
// race on a store that ignores row locks.
const maxClaimAttempts = 5

// Reserve claims the oldest available, unexpired item of the product for
// orderID. It returns nil without error when nothing is eligible. Lock waits
// are bounded by Config.ReserveTimeout and surface as apperr.ErrRetryable.
func (s *Service) Reserve(ctx context.Context, productID, orderID string) (*Item, error) {
	if orderID == "" {
		return nil, apperr.Validationf("order id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ReserveTimeout)
	defer cancel()

	var reserved *Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.catalog.ProductExists(ctx, tx, productID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFoundf("product %s", productID)
		}

		for attempt := 0; attempt < maxClaimAttempts; attempt++ {
			now := s.now()
			item, err := s.items.LockOldestAvailable(ctx, tx, productID, now)
			if err != nil {
				return err
			}
			if item == nil {
				return nil
			}

			ok, err := s.items.Claim(ctx, tx, item.ID, orderID, now)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := s.catalog.IncrementCounters(ctx, tx, productID, catalog.Delta{Available: -1, Reserved: 1}); err != nil {
				return err
			}

			item.Status = StatusReserved
			item.ReservedForOrderID = &orderID
			item.ReservedAt = &now
			item.UpdatedAt = now
			reserved = item
			return nil
		}
		return apperr.Retryable(fmt.Errorf("lost the claim race %d times", maxClaimAttempts))
	})
	if err != nil {
		if database.IsRetryable(err) {
			s.logger.Warn("Reservation contended",
				zap.String("product_id", productID),
				zap.String("order_id", orderID),
				zap.Error(err))
			return nil, apperr.Retryable(fmt.Errorf("reserve item for %s: %w", productID, err))
		}
		return nil, err
	}
	if reserved == nil {
		return nil, nil
	}

	s.record(ctx, "inventory.item.reserved", reserved.Ref(), "item reserved", map[string]any{
		"product_id": productID,
		"order_id":   orderID,
	})
	return reserved, nil
}

// MarkSold finalises the sale of an item reserved for orderID.
func (s *Service) MarkSold(ctx context.Context, itemID, orderID string, soldPrice decimal.Decimal) (*Item, error) {
	if soldPrice.IsNegative() {
		return nil, apperr.Validationf("sold price must not be negative")
	}

	var sold *Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.items.Get(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item.Status != StatusReserved {
			return apperr.Validationf("item %s is %s, not reserved", itemID, item.Status)
		}
		if item.ReservedForOrderID == nil || *item.ReservedForOrderID != orderID {
			return apperr.Validationf("item %s is reserved for a different order", itemID)
		}

		now := s.now()
		price := soldPrice.Round(2)
		ok, err := s.items.Sell(ctx, tx, itemID, orderID, price, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Validationf("item %s is no longer reserved for order %s", itemID, orderID)
		}
		if err := s.catalog.IncrementCounters(ctx, tx, item.ProductID, catalog.Delta{Reserved: -1, Sold: 1}); err != nil {
			return err
		}

		item.Status = StatusSold
		item.SoldToOrderID = &orderID
		item.SoldAt = &now
		item.SoldPrice = decimal.NewNullDecimal(price)
		item.ReservedForOrderID = nil
		item.ReservedAt = nil
		item.UpdatedAt = now
		sold = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, "inventory.item.sold", sold.Ref(), "item sold", map[string]any{
		"product_id": sold.ProductID,
		"order_id":   orderID,
		"sold_price": sold.SoldPrice.Decimal.StringFixed(2),
	})
	return sold, nil
}

// Release returns a reserved item to stock.
func (s *Service) Release(ctx context.Context, itemID string) (*Item, error) {
	var released *Item
	var previousOrder string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.items.Get(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item.Status != StatusReserved {
			return apperr.Validationf("item %s is %s, not reserved", itemID, item.Status)
		}

		now := s.now()
		ok, err := s.items.Unreserve(ctx, tx, itemID, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Validationf("item %s is no longer reserved", itemID)
		}
		if err := s.catalog.IncrementCounters(ctx, tx, item.ProductID, catalog.Delta{Reserved: -1, Available: 1}); err != nil {
			return err
		}

		if item.ReservedForOrderID != nil {
			previousOrder = *item.ReservedForOrderID
		}
		item.Status = StatusAvailable
		item.ReservedForOrderID = nil
		item.ReservedAt = nil
		item.UpdatedAt = now
		released = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, "inventory.item.released", released.Ref(), "reservation released", map[string]any{
		"product_id": released.ProductID,
		"order_id":   previousOrder,
	})
	return released, nil
}

// UpdateStatus toggles an item between available and invalid. Marking an
// item invalid records the reason, the actor and the time; reverting clears
// them.
func (s *Service) UpdateStatus(ctx context.Context, itemID string, status Status, reason string) (*Item, error) {
	if status != StatusAvailable && status != StatusInvalid {
		return nil, apperr.Validationf("status can only be set to %s or %s", StatusAvailable, StatusInvalid)
	}
	actor := audit.ActorFrom(ctx)

	var updated *Item
	var from Status
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.items.Get(ctx, tx, itemID)
		if err != nil {
			return err
		}
		from = item.Status

		now := s.now()
		var ok bool
		var delta catalog.Delta
		switch {
		case item.Status == StatusSold:
			return apperr.Validationf("item %s is sold and cannot change status", itemID)
		case status == StatusInvalid && item.Status == StatusAvailable:
			ok, err = s.items.Invalidate(ctx, tx, itemID, reason, actor, now)
			delta = catalog.Delta{Available: -1}
			item.InvalidReason, item.InvalidatedBy, item.InvalidatedAt = &reason, &actor, &now
		case status == StatusAvailable && item.Status == StatusInvalid:
			if _, err = s.catalog.LockCounters(ctx, tx, item.ProductID); err != nil {
				return err
			}
			var dup map[string]struct{}
			if dup, err = s.items.ActiveHashes(ctx, tx, item.ProductID, []string{item.ContentHash}); err != nil {
				return err
			}
			if len(dup) > 0 {
				return apperr.Conflictf("an active item with identical content already exists for product %s", item.ProductID)
			}
			ok, err = s.items.Revalidate(ctx, tx, itemID, now)
			delta = catalog.Delta{Available: 1}
			item.InvalidReason, item.InvalidatedBy, item.InvalidatedAt = nil, nil, nil
		default:
			return apperr.Validationf("item %s cannot move from %s to %s", itemID, item.Status, status)
		}
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Validationf("item %s changed status concurrently", itemID)
		}
		if err := s.catalog.IncrementCounters(ctx, tx, item.ProductID, delta); err != nil {
			return err
		}

		item.Status = status
		item.UpdatedAt = now
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, "inventory.item.status_changed", updated.Ref(), "item status changed", map[string]any{
		"product_id": updated.ProductID,
		"from":       from,
		"to":         status,
		"reason":     reason,
	})
	return updated, nil
}

// DeleteItem removes an item that is still available.
func (s *Service) DeleteItem(ctx context.Context, itemID string) error {
	var productID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.items.Get(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item.Status != StatusAvailable {
			return apperr.Validationf("item %s is %s; only available items can be deleted", itemID, item.Status)
		}

		ok, err := s.items.DeleteAvailable(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Validationf("item %s is no longer available", itemID)
		}
		productID = item.ProductID
		return s.catalog.IncrementCounters(ctx, tx, productID, catalog.Delta{Available: -1})
	})
	if err != nil {
		return err
	}

	s.record(ctx, "inventory.item.deleted", "item:"+itemID, "item deleted", map[string]any{
		"product_id": productID,
	})
	return nil
}

// ReportIssue flags an item as reported by a customer. The status is left
// unchanged.
func (s *Service) ReportIssue(ctx context.Context, itemID, note string) (*Item, error) {
	var reported *Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.items.Get(ctx, tx, itemID)
		if err != nil {
			return err
		}
		now := s.now()
		if _, err := s.items.MarkReported(ctx, tx, itemID, note, now); err != nil {
			return err
		}
		item.WasReported = true
		item.ReportedAt = &now
		item.ReportNote = &note
		item.UpdatedAt = now
		reported = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, "inventory.item.reported", reported.Ref(), "customer reported an issue", map[string]any{
		"product_id": reported.ProductID,
		"status":     reported.Status,
		"note":       note,
	})
	return reported, nil
}

// IsRetryable reports whether err is a transient reservation failure.
func IsRetryable(err error) bool {
	return errors.Is(err, apperr.ErrRetryable)
}
