package inventory

import (
	"context"
	"testing"
	"time"

	"vault-inventory/core/apperr"
	"vault-inventory/feature/catalog"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPriced(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()
	env.product(t, catalog.Product{ID: "p1"})
	env.product(t, catalog.Product{ID: "p2"})

	for i, c := range []string{"1.00", "2.00", "3.00", "4.00"} {
		cost := decimal.RequireFromString(c)
		supplier := "acme"
		if i%2 == 1 {
			supplier = "globex"
		}
		_, err := env.svc.AddItem(ctx, "p1", NewItem{
			Payload:  keyPayload("P1-" + c),
			ItemMeta: ItemMeta{Cost: &cost, Supplier: supplier},
		})
		require.NoError(t, err)
		env.clock.Advance(time.Second)
	}
	_, err := env.svc.AddItem(ctx, "p2", NewItem{Payload: keyPayload("P2-A")})
	require.NoError(t, err)

	// Sell the two oldest p1 items.
	for _, order := range []string{"o1", "o2"} {
		item, err := env.svc.Reserve(ctx, "p1", order)
		require.NoError(t, err)
		_, err = env.svc.MarkSold(ctx, item.ID, order, decimal.RequireFromString("10.00"))
		require.NoError(t, err)
	}
}

func TestStats(t *testing.T) {
	env := setupEnv(t)
	seedPriced(t, env)

	stats, err := env.svc.Stats(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, "p1", stats.ProductID)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.Counts[StatusAvailable])
	assert.Equal(t, int64(2), stats.Counts[StatusSold])
	assert.Equal(t, int64(0), stats.Counts[StatusExpired])
	assert.Equal(t, "10", stats.TotalCost.String())
	assert.Equal(t, "2.5", stats.AverageCost.String())
	assert.Equal(t, "20", stats.TotalRevenue.String())
	assert.Equal(t, "3", stats.SoldCost.String())
	assert.Equal(t, "17", stats.TotalProfit.String())

	_, err = env.svc.Stats(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGlobalStats(t *testing.T) {
	env := setupEnv(t)
	seedPriced(t, env)

	stats, err := env.svc.GlobalStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Products)
	assert.Equal(t, int64(5), stats.Total)
	assert.Equal(t, int64(3), stats.Counts[StatusAvailable])
	assert.Equal(t, "2.5", stats.AverageCost.String(), "items without cost are excluded from the average")
}

func TestList(t *testing.T) {
	env := setupEnv(t)
	seedPriced(t, env)
	ctx := context.Background()

	page, err := env.svc.List(ctx, ListQuery{ProductID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Len(t, page.Items, 4)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, defaultPageSize, page.PageSize)
	for _, item := range page.Items {
		assert.Empty(t, item.Ciphertext, "listings never load encrypted content")
	}

	page, err = env.svc.List(ctx, ListQuery{ProductID: "p1", Status: StatusSold})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = env.svc.List(ctx, ListQuery{ProductID: "p1", Supplier: "globex"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = env.svc.List(ctx, ListQuery{ProductID: "p1", Sort: "cost", Order: "desc", PageSize: 3, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].Cost.Decimal.Equal(decimal.NewFromInt(1)))

	_, err = env.svc.List(ctx, ListQuery{Sort: "encrypted_payload"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = env.svc.List(ctx, ListQuery{Order: "sideways"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = env.svc.List(ctx, ListQuery{Status: "lost"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
