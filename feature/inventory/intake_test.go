package inventory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"vault-inventory/core/apperr"
	"vault-inventory/core/codec"
	"vault-inventory/feature/audit"
	"vault-inventory/feature/catalog"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestAddItem(t *testing.T) {
	env := setupEnv(t)
	env.product(t, catalog.Product{ID: "p1"})
	ctx := audit.WithActor(context.Background(), "admin-1")

	cost := decimal.RequireFromString("2.50")
	item, err := env.svc.AddItem(ctx, "p1", NewItem{
		Payload:  keyPayload("ABCD-EFGH-IJKL-MNOP"),
		ItemMeta: ItemMeta{Supplier: "acme", Cost: &cost, Notes: "batch 7"},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusAvailable, item.Status)
	assert.Equal(t, "ABCD-****-****-MNOP", item.MaskedPreview)
	assert.Equal(t, "admin-1", item.UploadedBy)
	assert.Equal(t, baseTime, item.UploadedAt)
	assert.Len(t, item.ContentHash, 64)
	assert.NotContains(t, string(item.Ciphertext), "ABCD-EFGH")

	out, err := json.Marshal(item)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "encrypted_payload")
	assert.NotContains(t, string(out), "content_hash")

	stored := env.item(t, item.ID)
	assert.True(t, stored.Cost.Valid)
	assert.True(t, cost.Equal(stored.Cost.Decimal))
	assert.Equal(t, "acme", stored.Supplier)

	assert.Equal(t, catalog.Counters{Available: 1}, env.counters(t, "p1"))
	assert.Equal(t, []string{"inventory.item.added"}, env.sink.actions())
	assert.Equal(t, "admin-1", env.sink.entries[0].ActorID)
}

func TestAddItem_Rejections(t *testing.T) {
	env := setupEnv(t)
	env.product(t, catalog.Product{ID: "keys"})
	env.product(t, catalog.Product{ID: "ext", Fulfillment: catalog.FulfillmentExternal})
	ctx := context.Background()

	t.Run("unknown product", func(t *testing.T) {
		_, err := env.svc.AddItem(ctx, "missing", NewItem{Payload: keyPayload("K")})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("externally fulfilled product", func(t *testing.T) {
		_, err := env.svc.AddItem(ctx, "ext", NewItem{Payload: keyPayload("K")})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, err := env.svc.AddItem(ctx, "keys", NewItem{Payload: payload(DeliveryCode, `{"code":"123"}`)})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("negative cost", func(t *testing.T) {
		cost := decimal.NewFromInt(-1)
		_, err := env.svc.AddItem(ctx, "keys", NewItem{Payload: keyPayload("K"), ItemMeta: ItemMeta{Cost: &cost}})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("missing codec", func(t *testing.T) {
		svc := NewService(env.db, env.catalog, nil, nil, nil, zap.NewNop(), Config{})
		_, err := svc.AddItem(ctx, "keys", NewItem{Payload: keyPayload("K")})
		assert.ErrorIs(t, err, apperr.ErrConfiguration)
	})

	assert.Equal(t, catalog.Counters{}, env.counters(t, "keys"))
	assert.Empty(t, env.sink.actions())
}

func TestAddItem_Duplicate(t *testing.T) {
	env := setupEnv(t)
	env.product(t, catalog.Product{ID: "p1"})
	env.product(t, catalog.Product{ID: "p2"})
	ctx := context.Background()

	first, err := env.svc.AddItem(ctx, "p1", NewItem{Payload: keyPayload("SAME-KEY")})
	require.NoError(t, err)

	_, err = env.svc.AddItem(ctx, "p1", NewItem{Payload: keyPayload("  SAME-KEY  ")})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = env.svc.AddItem(ctx, "p2", NewItem{Payload: keyPayload("SAME-KEY")})
	assert.NoError(t, err, "duplicates are scoped to a product")

	_, err = env.svc.UpdateStatus(ctx, first.ID, StatusInvalid, "revoked by supplier")
	require.NoError(t, err)
	_, err = env.svc.AddItem(ctx, "p1", NewItem{Payload: keyPayload("SAME-KEY")})
	assert.NoError(t, err, "invalid items do not block re-intake")

	env.assertConsistent(t)
}

func TestBulkImport_PartialFailure(t *testing.T) {
	env := setupEnv(t)
	env.product(t, catalog.Product{ID: "p1"})

	entries := []NewItem{
		{Payload: keyPayload("K-0")},
		{Payload: keyPayload("K-1")},
		{Payload: keyPayload("K-2")},
		{Payload: payload(DeliveryAccount, `{"username":"u","password":"p"}`)},
		{Payload: keyPayload("K-4")},
	}

	res, err := env.svc.BulkImport(context.Background(), "p1", entries, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Imported)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Skipped)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Index)
	assert.Contains(t, res.Errors[0].Message, "index 3")
	assert.Len(t, res.ItemIDs, 4)

	assert.Equal(t, catalog.Counters{Available: 4}, env.counters(t, "p1"))
	assert.Equal(t, []string{"inventory.items.imported"}, env.sink.actions())
}

func TestBulkImport_Duplicates(t *testing.T) {
	ctx := context.Background()

	t.Run("skip duplicates", func(t *testing.T) {
		env := setupEnv(t)
		env.product(t, catalog.Product{ID: "p1"})
		_, err := env.svc.AddItem(ctx, "p1", NewItem{Payload: keyPayload("OLD")})
		require.NoError(t, err)

		res, err := env.svc.BulkImport(ctx, "p1", []NewItem{
			{Payload: keyPayload("OLD")},
			{Payload: keyPayload("NEW")},
			{Payload: keyPayload("NEW")},
		}, ImportOptions{SkipDuplicates: true})
		require.NoError(t, err)

		assert.Equal(t, 1, res.Imported)
		assert.Equal(t, 2, res.Skipped)
		assert.Equal(t, 0, res.Failed)
		assert.Empty(t, res.Errors)
		assert.Equal(t, catalog.Counters{Available: 2}, env.counters(t, "p1"))
	})

	t.Run("report duplicates", func(t *testing.T) {
		env := setupEnv(t)
		env.product(t, catalog.Product{ID: "p1"})
		_, err := env.svc.AddItem(ctx, "p1", NewItem{Payload: keyPayload("OLD")})
		require.NoError(t, err)

		res, err := env.svc.BulkImport(ctx, "p1", []NewItem{
			{Payload: keyPayload("OLD")},
			{Payload: keyPayload("NEW")},
		}, ImportOptions{})
		require.NoError(t, err)

		assert.Equal(t, 1, res.Imported)
		assert.Equal(t, 1, res.Failed)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, 0, res.Errors[0].Index)
		assert.Contains(t, res.Errors[0].Message, "duplicate")
		env.assertConsistent(t)
	})
}

func TestBulkImport_Limits(t *testing.T) {
	env := setupEnv(t)
	env.product(t, catalog.Product{ID: "p1"})
	env.svc.cfg.MaxBulkItems = 3
	ctx := context.Background()

	_, err := env.svc.BulkImport(ctx, "p1", make([]NewItem, 4), ImportOptions{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = env.svc.BulkImport(ctx, "p1", nil, ImportOptions{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = env.svc.BulkImport(ctx, "missing", []NewItem{{Payload: keyPayload("K")}}, ImportOptions{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.Equal(t, catalog.Counters{}, env.counters(t, "p1"))
}

func TestAddItem_ExpiryStoredInUTC(t *testing.T) {
	env := setupEnv(t)
	env.product(t, catalog.Product{ID: "p1"})

	local := time.Date(2026, 4, 1, 9, 0, 0, 0, time.FixedZone("UTC+2", 2*60*60))
	item, err := env.svc.AddItem(context.Background(), "p1", NewItem{
		Payload:  keyPayload("K"),
		ItemMeta: ItemMeta{ExpiresAt: &local},
	})
	require.NoError(t, err)
	require.NotNil(t, item.ExpiresAt)
	assert.Equal(t, time.UTC, item.ExpiresAt.Location())
	assert.True(t, local.Equal(*item.ExpiresAt))
}

func TestIntake_LocksProductRowFirst(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	c, err := codec.New(make([]byte, codec.KeySize))
	require.NoError(t, err)
	svc := NewService(db, catalog.NewStore(), c, nil, nil, zap.NewNop(), Config{})

	lockQuery := "SELECT .+ FROM `products` WHERE id = \\? .*FOR UPDATE"
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).
			WithArgs("p1", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "stock_available", "stock_reserved", "stock_sold"}))
		mock.ExpectRollback()
	}

	_, err = svc.AddItem(context.Background(), "p1", NewItem{Payload: keyPayload("K-1")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.BulkImport(context.Background(), "p1", []NewItem{{Payload: keyPayload("K-1")}}, ImportOptions{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
