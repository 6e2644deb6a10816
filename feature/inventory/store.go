package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vault-inventory/core/apperr"
	"vault-inventory/feature/catalog"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store holds the item persistence primitives. Every method takes the
// caller's *gorm.DB so it can run inside a transaction. Conditional updates
// return whether a row matched, which callers use as an optimistic
// precondition check.
type Store struct{}

// NewStore creates an item store.
func NewStore() *Store {
	return &Store{}
}

// activeStatuses are the statuses that take part in duplicate detection.
var activeStatuses = []Status{StatusAvailable, StatusReserved, StatusSold}

// Create inserts items in batches.
func (s *Store) Create(ctx context.Context, db *gorm.DB, items []*Item) error {
	if len(items) == 0 {
		return nil
	}
	if err := db.WithContext(ctx).CreateInBatches(items, 100).Error; err != nil {
		return fmt.Errorf("failed to insert items: %w", err)
	}
	return nil
}

// Get loads one item.
func (s *Store) Get(ctx context.Context, db *gorm.DB, id string) (*Item, error) {
	var item Item
	err := db.WithContext(ctx).Where("id = ?", id).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("item %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load item %s: %w", id, err)
	}
	return &item, nil
}

// ActiveHashes returns which of hashes already belong to an active item of
// the product.
func (s *Store) ActiveHashes(ctx context.Context, db *gorm.DB, productID string, hashes []string) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	if len(hashes) == 0 {
		return found, nil
	}

	var existing []string
	err := db.WithContext(ctx).Model(&Item{}).
		Where("product_id = ? AND content_hash IN ? AND status IN ?", productID, hashes, activeStatuses).
		Pluck("content_hash", &existing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicates for %s: %w", productID, err)
	}
	for _, h := range existing {
		found[h] = struct{}{}
	}
	return found, nil
}

// LockOldestAvailable returns the oldest available, unexpired item of the
// product under an exclusive row lock, skipping rows other transactions
// already hold. It returns nil when nothing is eligible.
func (s *Store) LockOldestAvailable(ctx context.Context, db *gorm.DB, productID string, now time.Time) (*Item, error) {
	var items []Item
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("product_id = ? AND status = ?", productID, StatusAvailable).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("uploaded_at ASC, id ASC").
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to select item for %s: %w", productID, err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// transition applies updates to the item only while the where condition
// holds, reporting whether it did.
func (s *Store) transition(ctx context.Context, db *gorm.DB, id string, where map[string]any, updates map[string]any) (bool, error) {
	q := db.WithContext(ctx).Model(&Item{}).Where("id = ?", id)
	if len(where) > 0 {
		q = q.Where(where)
	}
	result := q.Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update item %s: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Claim moves an available item to reserved for orderID.
func (s *Store) Claim(ctx context.Context, db *gorm.DB, id, orderID string, now time.Time) (bool, error) {
	return s.transition(ctx, db, id,
		map[string]any{"status": StatusAvailable},
		map[string]any{"status": StatusReserved, "reserved_for_order_id": orderID, "reserved_at": now, "updated_at": now},
	)
}

// Sell moves an item reserved for orderID to sold.
func (s *Store) Sell(ctx context.Context, db *gorm.DB, id, orderID string, price decimal.Decimal, now time.Time) (bool, error) {
	return s.transition(ctx, db, id,
		map[string]any{"status": StatusReserved, "reserved_for_order_id": orderID},
		map[string]any{
			"status":                StatusSold,
			"sold_to_order_id":      orderID,
			"sold_at":               now,
			"sold_price":            decimal.NewNullDecimal(price),
			"reserved_for_order_id": nil,
			"reserved_at":           nil,
			"updated_at":            now,
		},
	)
}

// Unreserve moves a reserved item back to available.
func (s *Store) Unreserve(ctx context.Context, db *gorm.DB, id string, now time.Time) (bool, error) {
	return s.transition(ctx, db, id,
		map[string]any{"status": StatusReserved},
		map[string]any{"status": StatusAvailable, "reserved_for_order_id": nil, "reserved_at": nil, "updated_at": now},
	)
}

// Invalidate moves an available item to invalid.
func (s *Store) Invalidate(ctx context.Context, db *gorm.DB, id, reason, actor string, now time.Time) (bool, error) {
	return s.transition(ctx, db, id,
		map[string]any{"status": StatusAvailable},
		map[string]any{"status": StatusInvalid, "invalid_reason": reason, "invalidated_by": actor, "invalidated_at": now, "updated_at": now},
	)
}

// Revalidate moves an invalid item back to available.
func (s *Store) Revalidate(ctx context.Context, db *gorm.DB, id string, now time.Time) (bool, error) {
	return s.transition(ctx, db, id,
		map[string]any{"status": StatusInvalid},
		map[string]any{"status": StatusAvailable, "invalid_reason": nil, "invalidated_by": nil, "invalidated_at": nil, "updated_at": now},
	)
}

// MarkReported flags the item as reported by a customer.
func (s *Store) MarkReported(ctx context.Context, db *gorm.DB, id, note string, now time.Time) (bool, error) {
	return s.transition(ctx, db, id, nil,
		map[string]any{"was_reported": true, "reported_at": now, "report_note": note, "updated_at": now},
	)
}

// DeleteAvailable removes an item that is still available.
func (s *Store) DeleteAvailable(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	result := db.WithContext(ctx).Where("id = ? AND status = ?", id, StatusAvailable).Delete(&Item{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete item %s: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ProductsWithExpired lists products owning available items past expiry.
func (s *Store) ProductsWithExpired(ctx context.Context, db *gorm.DB, now time.Time) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).Model(&Item{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", StatusAvailable, now).
		Distinct().Order("product_id").
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find expired items: %w", err)
	}
	return ids, nil
}

// ExpireDue transitions the product's expired available items and returns
// how many changed.
func (s *Store) ExpireDue(ctx context.Context, db *gorm.DB, productID string, now time.Time) (int, error) {
	result := db.WithContext(ctx).Model(&Item{}).
		Where("product_id = ? AND status = ? AND expires_at IS NOT NULL AND expires_at <= ?", productID, StatusAvailable, now).
		Updates(map[string]any{"status": StatusExpired, "updated_at": now})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire items of %s: %w", productID, result.Error)
	}
	return int(result.RowsAffected), nil
}

// ProductsWithStale lists products owning reservations taken before cutoff.
func (s *Store) ProductsWithStale(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).Model(&Item{}).
		Where("status = ? AND reserved_at < ?", StatusReserved, cutoff).
		Distinct().Order("product_id").
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find stale reservations: %w", err)
	}
	return ids, nil
}

// ReleaseStale returns the product's reservations taken before cutoff to
// stock and returns how many changed.
func (s *Store) ReleaseStale(ctx context.Context, db *gorm.DB, productID string, cutoff, now time.Time) (int, error) {
	result := db.WithContext(ctx).Model(&Item{}).
		Where("product_id = ? AND status = ? AND reserved_at < ?", productID, StatusReserved, cutoff).
		Updates(map[string]any{"status": StatusAvailable, "reserved_for_order_id": nil, "reserved_at": nil, "updated_at": now})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to release reservations of %s: %w", productID, result.Error)
	}
	return int(result.RowsAffected), nil
}

type statusCount struct {
	ProductID string
	Status    Status
	Count     int
}

// CountByProduct returns the ground-truth counters of every product that
// owns items. With a non-empty productID only that product is counted.
func (s *Store) CountByProduct(ctx context.Context, db *gorm.DB, productID string) (map[string]catalog.Counters, error) {
	q := db.WithContext(ctx).Model(&Item{}).
		Select("product_id, status, COUNT(*) AS count").
		Where("status IN ?", activeStatuses)
	if productID != "" {
		q = q.Where("product_id = ?", productID)
	}

	var rows []statusCount
	if err := q.Group("product_id, status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	out := make(map[string]catalog.Counters)
	for _, r := range rows {
		c := out[r.ProductID]
		switch r.Status {
		case StatusAvailable:
			c.Available = r.Count
		case StatusReserved:
			c.Reserved = r.Count
		case StatusSold:
			c.Sold = r.Count
		}
		out[r.ProductID] = c
	}
	return out, nil
}

// FindByOrder returns items reserved for or sold to the order.
func (s *Store) FindByOrder(ctx context.Context, db *gorm.DB, orderID string) ([]Item, error) {
	var items []Item
	err := db.WithContext(ctx).
		Where("reserved_for_order_id = ? OR sold_to_order_id = ?", orderID, orderID).
		Order("uploaded_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load items of order %s: %w", orderID, err)
	}
	return items, nil
}
