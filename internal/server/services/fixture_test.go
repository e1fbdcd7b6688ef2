package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/config"
	"github.com/dmitrijs2005/gophstore/internal/server/events"
	"github.com/dmitrijs2005/gophstore/internal/server/gateway"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	store    *memory.Store
	repos    *repomanager.MemoryRepositoryManager
	gw       *gateway.Simulated
	pub      *events.Recorder
	clock    *fakeClock
	registry *OwnershipRegistry
	payments *PaymentService
	delivery *DeliveryTracker
	tokens   *TokenIssuer
}

func testConfig() *config.Config {
	return &config.Config{
		Currency:         "usd",
		GatewayTimeout:   time.Second,
		DownloadTokenTTL: 24 * time.Hour,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	repos := repomanager.NewMemoryRepositoryManager(store)
	tx := dbx.NopTransactor{}
	log := logging.Nop{}
	cfg := testConfig()
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}

	f := &fixture{
		store: store,
		repos: repos,
		gw:    gateway.NewSimulated(false),
		pub:   &events.Recorder{},
		clock: clock,
	}
	f.registry = NewOwnershipRegistry(tx, repos, log)
	f.payments = NewPaymentService(tx, repos, f.gw, f.registry, f.pub, log, cfg)
	f.delivery = NewDeliveryTracker(tx, repos, log)
	f.tokens = NewTokenIssuer(tx, repos, f.registry, f.delivery, nil, nil, log, cfg)

	f.registry.now = clock.Now
	f.payments.now = clock.Now
	f.delivery.now = clock.Now
	f.tokens.now = clock.Now
	return f
}

func (f *fixture) addContent(t *testing.T, item models.ContentItem) {
	t.Helper()
	require.NoError(t, f.store.Contents().Upsert(context.Background(), &item))
}

// buy runs the whole payment flow for (user, content) through the simulated gateway.
func (f *fixture) buy(t *testing.T, userID, contentID string) {
	t.Helper()
	ctx := context.Background()

	in, err := f.payments.CreateIntent(ctx, userID, contentID)
	require.NoError(t, err)
	require.NoError(t, f.gw.Pay(ctx, in.ClientHandle))
	require.NoError(t, f.payments.ConfirmIntent(ctx, in.IntentID, userID))
}

func (f *fixture) contentDownloads(t *testing.T, id string) int64 {
	t.Helper()
	item, err := f.store.Contents().Get(context.Background(), id)
	require.NoError(t, err)
	return item.DownloadCount
}

var book = models.ContentItem{ID: "7", Title: "Concurrency in Go", Price: 999, Currency: "usd", FileRef: "books/7.pdf", Purchasable: true}
