package catalog

import (
	"context"
	"errors"
	"fmt"

	"vault-inventory/core/apperr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store reads and writes the inventory-relevant product columns.
type Store struct{}

// NewStore creates a catalog store.
func NewStore() *Store {
	return &Store{}
}

// Create inserts a product. Used by seeding and tests; the catalog service
// owns product creation in production.
func (s *Store) Create(ctx context.Context, db *gorm.DB, p *Product) error {
	if p.Fulfillment == "" {
		p.Fulfillment = FulfillmentInternal
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create product %s: %w", p.ID, err)
	}
	return nil
}

// Get returns the full product row.
func (s *Store) Get(ctx context.Context, db *gorm.DB, id string) (*Product, error) {
	var p Product
	err := db.WithContext(ctx).Where("id = ?", id).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("product %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", id, err)
	}
	return &p, nil
}

// ProductExists reports whether the product exists.
func (s *Store) ProductExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check product %s: %w", id, err)
	}
	return count > 0, nil
}

// GetProduct returns delivery type, fulfillment class and visibility.
func (s *Store) GetProduct(ctx context.Context, db *gorm.DB, id string) (*ProductInfo, error) {
	p, err := s.Get(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return &ProductInfo{
		ID:           p.ID,
		DeliveryType: p.DeliveryType,
		Fulfillment:  p.Fulfillment,
		Published:    p.Published,
	}, nil
}

// GetDeliveryType returns the product's delivery type tag.
func (s *Store) GetDeliveryType(ctx context.Context, db *gorm.DB, id string) (string, error) {
	p, err := s.Get(ctx, db, id)
	if err != nil {
		return "", err
	}
	return p.DeliveryType, nil
}

// GetLowStockConfig returns one product's low-stock policy.
func (s *Store) GetLowStockConfig(ctx context.Context, db *gorm.DB, id string) (LowStockConfig, error) {
	p, err := s.Get(ctx, db, id)
	if err != nil {
		return LowStockConfig{}, err
	}
	return toLowStockConfig(*p), nil
}

// LowStockConfigs returns every product with a threshold or auto-unpublish set.
func (s *Store) LowStockConfigs(ctx context.Context, db *gorm.DB) ([]LowStockConfig, error) {
	var products []Product
	err := db.WithContext(ctx).
		Select("id", "low_stock_threshold", "auto_unpublish", "published").
		Where("low_stock_threshold > 0 OR auto_unpublish = ?", true).
		Order("id").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load low-stock configs: %w", err)
	}

	configs := make([]LowStockConfig, 0, len(products))
	for _, p := range products {
		configs = append(configs, toLowStockConfig(p))
	}
	return configs, nil
}

// SetPublished flips the product's visibility.
func (s *Store) SetPublished(ctx context.Context, db *gorm.DB, id string, published bool) error {
	result := db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Update("published", published)
	if result.Error != nil {
		return fmt.Errorf("failed to set published for %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFoundf("product %s", id)
	}
	return nil
}

// IncrementCounters applies d to the cached counters in a single UPDATE.
func (s *Store) IncrementCounters(ctx context.Context, db *gorm.DB, id string, d Delta) error {
	if d.IsZero() {
		return nil
	}
	result := db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).UpdateColumns(map[string]any{
		"stock_available": gorm.Expr("stock_available + ?", d.Available),
		"stock_reserved":  gorm.Expr("stock_reserved + ?", d.Reserved),
		"stock_sold":      gorm.Expr("stock_sold + ?", d.Sold),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to adjust counters for %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFoundf("product %s", id)
	}
	return nil
}

// SetCounters overwrites the cached counters.
func (s *Store) SetCounters(ctx context.Context, db *gorm.DB, id string, c Counters) error {
	result := db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).UpdateColumns(map[string]any{
		"stock_available": c.Available,
		"stock_reserved":  c.Reserved,
		"stock_sold":      c.Sold,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to set counters for %s: %w", id, result.Error)
	}
	return nil
}

// LockCounters reads a product's counters under an exclusive row lock, which
// serialises the caller with every transaction adjusting them.
func (s *Store) LockCounters(ctx context.Context, db *gorm.DB, id string) (Counters, error) {
	var p Product
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "stock_available", "stock_reserved", "stock_sold").
		Where("id = ?", id).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Counters{}, apperr.NotFoundf("product %s", id)
	}
	if err != nil {
		return Counters{}, fmt.Errorf("failed to lock counters for %s: %w", id, err)
	}
	return countersOf(p), nil
}

// ListCounters returns the cached counters of every product.
func (s *Store) ListCounters(ctx context.Context, db *gorm.DB) (map[string]Counters, error) {
	var products []Product
	err := db.WithContext(ctx).
		Select("id", "stock_available", "stock_reserved", "stock_sold").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list counters: %w", err)
	}

	out := make(map[string]Counters, len(products))
	for _, p := range products {
		out[p.ID] = countersOf(p)
	}
	return out, nil
}

func countersOf(p Product) Counters {
	return Counters{Available: p.StockAvailable, Reserved: p.StockReserved, Sold: p.StockSold}
}

func toLowStockConfig(p Product) LowStockConfig {
	return LowStockConfig{
		ProductID:     p.ID,
		Threshold:     p.LowStockThreshold,
		AutoUnpublish: p.AutoUnpublish,
		Published:     p.Published,
	}
}
