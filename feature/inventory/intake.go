package inventory

import (
	"context"
	"fmt"

	"vault-inventory/core/apperr"
	"vault-inventory/core/codec"
	"vault-inventory/feature/audit"
	"vault-inventory/feature/catalog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AddItem validates, encrypts and stores one item, incrementing the
// product's available counter in the same transaction.
func (s *Service) AddItem(ctx context.Context, productID string, in NewItem) (*Item, error) {
	if err := s.requireCodec(); err != nil {
		return nil, err
	}

	var created *Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The product row lock serialises duplicate checks per product.
		if _, err := s.catalog.LockCounters(ctx, tx, productID); err != nil {
			return err
		}
		product, err := s.catalog.GetProduct(ctx, tx, productID)
		if err != nil {
			return err
		}
		item, err := s.prepare(ctx, product, in)
		if err != nil {
			return err
		}

		dup, err := s.items.ActiveHashes(ctx, tx, productID, []string{item.ContentHash})
		if err != nil {
			return err
		}
		if len(dup) > 0 {
			return apperr.Conflictf("an active item with identical content already exists for product %s", productID)
		}

		if err := s.items.Create(ctx, tx, []*Item{item}); err != nil {
			return err
		}
		if err := s.catalog.IncrementCounters(ctx, tx, productID, catalog.Delta{Available: 1}); err != nil {
			return err
		}
		created = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, "inventory.item.added", created.Ref(), "item added to stock", map[string]any{
		"product_id":    productID,
		"delivery_type": created.DeliveryType,
		"supplier":      created.Supplier,
	})
	return created, nil
}

// BulkImport applies AddItem's checks to each entry independently. Rejected
// entries are reported by index and never abort the batch; the counter is
// incremented once by the number of inserted items.
func (s *Service) BulkImport(ctx context.Context, productID string, entries []NewItem, opts ImportOptions) (*ImportResult, error) {
	if len(entries) == 0 {
		return nil, apperr.Validationf("no items to import")
	}
	if len(entries) > s.cfg.MaxBulkItems {
		return nil, apperr.Validationf("batch of %d items exceeds the maximum of %d", len(entries), s.cfg.MaxBulkItems)
	}
	if err := s.requireCodec(); err != nil {
		return nil, err
	}

	var result *ImportResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.catalog.LockCounters(ctx, tx, productID); err != nil {
			return err
		}
		product, err := s.catalog.GetProduct(ctx, tx, productID)
		if err != nil {
			return err
		}

		res := &ImportResult{Errors: []ImportError{}, ItemIDs: []string{}}
		prepared := make([]*Item, len(entries))
		hashes := make([]string, 0, len(entries))
		for i, entry := range entries {
			item, err := s.prepare(ctx, product, entry)
			if err != nil {
				res.fail(i, err)
				continue
			}
			prepared[i] = item
			hashes = append(hashes, item.ContentHash)
		}

		existing, err := s.items.ActiveHashes(ctx, tx, productID, hashes)
		if err != nil {
			return err
		}

		seen := make(map[string]struct{}, len(hashes))
		toInsert := make([]*Item, 0, len(hashes))
		for i, item := range prepared {
			if item == nil {
				continue
			}
			_, inStore := existing[item.ContentHash]
			_, inBatch := seen[item.ContentHash]
			if inStore || inBatch {
				if opts.SkipDuplicates {
					res.Skipped++
				} else {
					res.fail(i, apperr.Conflictf("duplicate content"))
				}
				continue
			}
			seen[item.ContentHash] = struct{}{}
			toInsert = append(toInsert, item)
		}

		if err := s.items.Create(ctx, tx, toInsert); err != nil {
			return err
		}
		if err := s.catalog.IncrementCounters(ctx, tx, productID, catalog.Delta{Available: len(toInsert)}); err != nil {
			return err
		}

		res.Imported = len(toInsert)
		for _, item := range toInsert {
			res.ItemIDs = append(res.ItemIDs, item.ID)
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Bulk import finished",
		zap.String("product_id", productID),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))

	s.record(ctx, "inventory.items.imported", productRef(productID), "bulk import", map[string]any{
		"imported":        result.Imported,
		"skipped":         result.Skipped,
		"failed":          result.Failed,
		"skip_duplicates": opts.SkipDuplicates,
	})
	return result, nil
}

func (r *ImportResult) fail(index int, err error) {
	r.Failed++
	r.Errors = append(r.Errors, ImportError{Index: index, Message: fmt.Sprintf("index %d: %v", index, err)})
}

// prepare runs every per-item check that does not touch the store and
// builds the encrypted record.
func (s *Service) prepare(ctx context.Context, product *catalog.ProductInfo, in NewItem) (*Item, error) {
	if product.Fulfillment != catalog.FulfillmentInternal {
		return nil, apperr.Validationf("product %s is fulfilled externally and holds no inventory", product.ID)
	}
	if string(in.Payload.Type) != product.DeliveryType {
		return nil, apperr.Validationf("payload type %q does not match product delivery type %q", in.Payload.Type, product.DeliveryType)
	}
	if len(in.Payload.Data) > s.cfg.MaxPayloadBytes {
		return nil, apperr.Validationf("payload exceeds %d bytes", s.cfg.MaxPayloadBytes)
	}
	if in.Cost != nil && in.Cost.IsNegative() {
		return nil, apperr.Validationf("cost must not be negative")
	}
	if err := validate.Struct(in.ItemMeta); err != nil {
		return nil, apperr.Validationf("invalid item metadata: %v", err)
	}

	canonical, content, err := in.Payload.Canonical()
	if err != nil {
		return nil, err
	}
	sealed, err := s.codec.Seal(canonical)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate item id: %w", err)
	}

	// Version 7 ids are time ordered, so they break FIFO ties in intake order.
	now := s.now()
	item := &Item{
		ID:            id.String(),
		ProductID:     product.ID,
		DeliveryType:  in.Payload.Type,
		Ciphertext:    sealed.Ciphertext,
		Nonce:         sealed.Nonce,
		AuthTag:       sealed.Tag,
		ContentHash:   codec.Hash(canonical),
		MaskedPreview: content.Mask(),
		Status:        StatusAvailable,
		Supplier:      in.Supplier,
		Notes:         in.Notes,
		UploadedAt:    now,
		UploadedBy:    audit.ActorFrom(ctx),
		UpdatedAt:     now,
	}
	if in.Cost != nil {
		item.Cost = decimal.NewNullDecimal(in.Cost.Round(2))
	}
	if in.ExpiresAt != nil {
		exp := in.ExpiresAt.UTC()
		item.ExpiresAt = &exp
	}
	return item, nil
}
