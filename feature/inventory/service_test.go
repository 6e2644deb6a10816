package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"vault-inventory/core/codec"
	"vault-inventory/core/database"
	"vault-inventory/feature/audit"
	"vault-inventory/feature/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingSink struct {
	mu      sync.Mutex
	entries []audit.Entry
	err     error
}

func (s *recordingSink) Log(_ context.Context, e audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return s.err
}

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Action)
	}
	return out
}

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []LowStockAlert
}

func (a *recordingAlerter) Alert(_ context.Context, alert LowStockAlert) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert)
	return nil
}

type testEnv struct {
	svc     *Service
	db      *gorm.DB
	catalog *catalog.Store
	sink    *recordingSink
	alerts  *recordingAlerter
	clock   *fakeClock
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&catalog.Product{}, &Item{}))

	key := make([]byte, codec.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	c, err := codec.New(key)
	require.NoError(t, err)

	env := &testEnv{
		db:      db,
		catalog: catalog.NewStore(),
		sink:    &recordingSink{},
		alerts:  &recordingAlerter{},
		clock:   &fakeClock{now: baseTime},
	}
	env.svc = NewService(db, env.catalog, c, env.sink, env.alerts, zap.NewNop(), Config{ReservationTimeout: 30 * time.Minute})
	env.svc.SetClock(env.clock.Now)
	return env
}

func (e *testEnv) product(t *testing.T, p catalog.Product) {
	t.Helper()
	if p.DeliveryType == "" {
		p.DeliveryType = string(DeliveryKey)
	}
	require.NoError(t, e.catalog.Create(context.Background(), e.db, &p))
}

// addKeys adds n key items, advancing the clock one second per item.
func (e *testEnv) addKeys(t *testing.T, productID string, n int) []*Item {
	t.Helper()
	items := make([]*Item, 0, n)
	for i := 0; i < n; i++ {
		item, err := e.svc.AddItem(context.Background(), productID, NewItem{Payload: keyPayload(fmt.Sprintf("%s-KEY-%04d", productID, i))})
		require.NoError(t, err)
		items = append(items, item)
		e.clock.Advance(time.Second)
	}
	return items
}

func (e *testEnv) counters(t *testing.T, productID string) catalog.Counters {
	t.Helper()
	all, err := e.catalog.ListCounters(context.Background(), e.db)
	require.NoError(t, err)
	return all[productID]
}

// assertConsistent checks that cached counters equal the item records.
func (e *testEnv) assertConsistent(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	cached, err := e.catalog.ListCounters(ctx, e.db)
	require.NoError(t, err)
	truth, err := e.svc.items.CountByProduct(ctx, e.db, "")
	require.NoError(t, err)
	for id, c := range cached {
		assert.Equal(t, truth[id], c, "counters of %s", id)
	}
}

func (e *testEnv) item(t *testing.T, id string) *Item {
	t.Helper()
	item, err := e.svc.items.Get(context.Background(), e.db, id)
	require.NoError(t, err)
	return item
}

func keyPayload(key string) Payload {
	data, _ := json.Marshal(map[string]string{"key": key})
	return Payload{Type: DeliveryKey, Data: data}
}
