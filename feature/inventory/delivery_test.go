package inventory

import (
	"context"
	"testing"

	"vault-inventory/core/apperr"
	"vault-inventory/feature/catalog"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDecryptForDelivery(t *testing.T) {
	env := setupEnv(t)
	env.product(t, catalog.Product{ID: "acc", DeliveryType: string(DeliveryAccount)})
	ctx := context.Background()

	item, err := env.svc.AddItem(ctx, "acc", NewItem{
		Payload: payload(DeliveryAccount, `{"username":" gamer42 ","password":"s3cret"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "user: gamer42", item.MaskedPreview)

	_, err = env.svc.DecryptForDelivery(ctx, item.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation, "available items are not delivered")

	reserved, err := env.svc.Reserve(ctx, "acc", "order-1")
	require.NoError(t, err)

	got, err := env.svc.DecryptForDelivery(ctx, reserved.ID)
	require.NoError(t, err)
	assert.Equal(t, DeliveryAccount, got.Type)
	assert.JSONEq(t, `{"username":"gamer42","password":"s3cret"}`, string(got.Data))

	_, err = env.svc.MarkSold(ctx, reserved.ID, "order-1", decimal.NewFromInt(3))
	require.NoError(t, err)
	_, err = env.svc.DecryptForDelivery(ctx, reserved.ID)
	require.NoError(t, err)

	assert.Contains(t, env.sink.actions(), "inventory.item.decrypted")

	_, err = env.svc.DecryptForDelivery(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDecryptForDelivery_Tampered(t *testing.T) {
	env := setupEnv(t)
	env.product(t, catalog.Product{ID: "p1"})
	items := env.addKeys(t, "p1", 2)
	ctx := context.Background()

	for _, o := range []string{"o1", "o2"} {
		_, err := env.svc.Reserve(ctx, "p1", o)
		require.NoError(t, err)
	}

	stored := env.item(t, items[0].ID)
	stored.Ciphertext[0] ^= 0x01
	require.NoError(t, env.db.Model(&Item{}).Where("id = ?", stored.ID).Update("encrypted_payload", stored.Ciphertext).Error)

	_, err := env.svc.DecryptForDelivery(ctx, items[0].ID)
	assert.ErrorIs(t, err, apperr.ErrIntegrity)

	_, err = env.svc.DecryptForDelivery(ctx, items[1].ID)
	assert.NoError(t, err, "a corrupted sibling does not affect other items")
}

func TestDecryptForDelivery_NoKey(t *testing.T) {
	env := setupEnv(t)
	svc := NewService(env.db, env.catalog, nil, nil, nil, zap.NewNop(), Config{})
	_, err := svc.DecryptForDelivery(context.Background(), "any")
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestGetItemsByOrder(t *testing.T) {
	env := setupEnv(t)
	env.product(t, catalog.Product{ID: "p1"})
	env.addKeys(t, "p1", 3)
	ctx := context.Background()

	a, err := env.svc.Reserve(ctx, "p1", "order-1")
	require.NoError(t, err)
	b, err := env.svc.Reserve(ctx, "p1", "order-1")
	require.NoError(t, err)
	_, err = env.svc.MarkSold(ctx, b.ID, "order-1", decimal.NewFromInt(1))
	require.NoError(t, err)
	_, err = env.svc.Reserve(ctx, "p1", "order-2")
	require.NoError(t, err)

	items, err := env.svc.GetItemsByOrder(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, b.ID, items[1].ID)

	_, err = env.svc.GetItemsByOrder(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
