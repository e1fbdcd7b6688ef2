package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestContents_UpsertKeepsCounter(t *testing.T) {
	ctx := context.Background()
	r := NewStore().Contents()

	require.NoError(t, r.Upsert(ctx, &models.ContentItem{ID: "7", Price: 999, Purchasable: true}))
	require.NoError(t, r.IncrementDownloads(ctx, "7"))
	require.NoError(t, r.Upsert(ctx, &models.ContentItem{ID: "7", Price: 1099, Purchasable: true, DownloadCount: 100}))

	got, err := r.Get(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, int64(1099), got.Price)
	assert.Equal(t, int64(1), got.DownloadCount)

	_, err = r.Get(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, r.IncrementDownloads(ctx, "nope"), common.ErrorNotFound)
}

func TestIntents_ScopedAndOneShotTransitions(t *testing.T) {
	ctx := context.Background()
	r := NewStore().Intents()

	in := &models.PaymentIntent{ID: "i1", UserID: "A", ExternalIntentID: "pi_1", Status: models.IntentPending}
	require.NoError(t, r.Create(ctx, in))
	assert.ErrorIs(t, r.Create(ctx, &models.PaymentIntent{ID: "i2", ExternalIntentID: "pi_1"}), common.ErrStorageConflict)

	_, err := r.GetForUser(ctx, "i1", "B")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	moved, err := r.MarkSucceeded(ctx, "i1", t0)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = r.MarkFailed(ctx, "i1", t0)
	require.NoError(t, err)
	assert.False(t, moved, "succeeded is immutable")

	got, err := r.GetForUser(ctx, "i1", "A")
	require.NoError(t, err)
	assert.Equal(t, models.IntentSucceeded, got.Status)
	require.NotNil(t, got.CompletedAt)
}

func TestOwnerships_ConcurrentInsertCreatesOnce(t *testing.T) {
	ctx := context.Background()
	r := NewStore().Ownerships()

	const n = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := r.Insert(ctx, &models.Ownership{UserID: "A", ContentID: "7", PurchaseDate: t0})
			if err == nil && ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	list, err := r.ListByUser(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOwnerships_RecordDownloadAndOrder(t *testing.T) {
	ctx := context.Background()
	r := NewStore().Ownerships()

	_, _ = r.Insert(ctx, &models.Ownership{UserID: "A", ContentID: "9", PurchaseDate: t0.Add(time.Hour)})
	_, _ = r.Insert(ctx, &models.Ownership{UserID: "A", ContentID: "7", PurchaseDate: t0})

	require.NoError(t, r.RecordDownload(ctx, "A", "7", t0.Add(2*time.Hour)))
	assert.ErrorIs(t, r.RecordDownload(ctx, "B", "7", t0), common.ErrorNotFound)

	list, err := r.ListByUser(ctx, "A")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "7", list[0].ContentID)
	assert.Equal(t, int64(1), list[0].DownloadCount)
	require.NotNil(t, list[0].LastDownloadAt)
}

func TestTokens_ResolveJoinsContent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Contents().Upsert(ctx, &models.ContentItem{ID: "7", FileRef: "books/7.pdf"}))
	tok := &models.DownloadToken{ID: "t1", TokenValue: "abc", UserID: "A", ContentID: "7", Format: "PDF", ExpiresAt: t0}
	require.NoError(t, s.Tokens().Create(ctx, tok))
	assert.ErrorIs(t, s.Tokens().Create(ctx, tok), common.ErrStorageConflict)

	res, err := s.Tokens().Resolve(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "books/7.pdf", res.FileRef)
	assert.Equal(t, "t1", res.TokenID)

	_, err = s.Tokens().Resolve(ctx, "unknown")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDeliveries_Append(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	r := s.Deliveries()

	require.NoError(t, r.Create(ctx, &models.DeliveryEvent{ID: "d1", ContentID: "7"}))
	require.NoError(t, r.Create(ctx, &models.DeliveryEvent{ID: "d2", ContentID: "8"}))

	require.Len(t, s.deliveries, 2)
	assert.Equal(t, "d1", s.deliveries[0].ID)
	assert.Equal(t, "8", s.deliveries[1].ContentID)
}
