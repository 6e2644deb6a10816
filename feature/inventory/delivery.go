package inventory

import (
	"context"
	"encoding/json"

	"vault-inventory/core/apperr"
	"vault-inventory/core/codec"

	"go.uber.org/zap"
)

// GetItemsByOrder returns the items reserved for or sold to an order.
func (s *Service) GetItemsByOrder(ctx context.Context, orderID string) ([]Item, error) {
	if orderID == "" {
		return nil, apperr.Validationf("order id is required")
	}
	return s.items.FindByOrder(ctx, s.db, orderID)
}

// DecryptForDelivery decrypts the content of a reserved or sold item. The
// plaintext is produced per call and never cached.
func (s *Service) DecryptForDelivery(ctx context.Context, itemID string) (*Payload, error) {
	if err := s.requireCodec(); err != nil {
		return nil, err
	}

	item, err := s.items.Get(ctx, s.db, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != StatusReserved && item.Status != StatusSold {
		return nil, apperr.Validationf("item %s is %s; only reserved or sold items can be delivered", itemID, item.Status)
	}

	plaintext, err := s.codec.Open(codec.Sealed{
		Ciphertext: item.Ciphertext,
		Nonce:      item.Nonce,
		Tag:        item.AuthTag,
	})
	if err != nil {
		s.logger.Error("Item failed authentication",
			zap.String("item_id", itemID),
			zap.String("product_id", item.ProductID),
			zap.Error(err))
		return nil, err
	}

	var payload Payload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, apperr.Integrityf("item %s decrypted to an unreadable payload", itemID)
	}

	order := ""
	switch {
	case item.SoldToOrderID != nil:
		order = *item.SoldToOrderID
	case item.ReservedForOrderID != nil:
		order = *item.ReservedForOrderID
	}
	s.record(ctx, "inventory.item.decrypted", item.Ref(), "item content decrypted for delivery", map[string]any{
		"product_id": item.ProductID,
		"order_id":   order,
	})
	return &payload, nil
}
