// Package memory keeps every store table in process memory. It backs the
// server when no database DSN is configured and the service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type ownershipKey struct {
	userID    string
	contentID string
}

// Store is safe for concurrent use. Each repository call is atomic on its
// own; there are no multi-statement transactions.
type Store struct {
	mu         sync.Mutex
	contents   map[string]models.ContentItem
	intents    map[string]models.PaymentIntent
	externals  map[string]struct{}
	ownerships map[ownershipKey]models.Ownership
	tokens     map[string]models.DownloadToken
	deliveries []models.DeliveryEvent
}

func NewStore() *Store {
	return &Store{
		contents:   make(map[string]models.ContentItem),
		intents:    make(map[string]models.PaymentIntent),
		externals:  make(map[string]struct{}),
		ownerships: make(map[ownershipKey]models.Ownership),
		tokens:     make(map[string]models.DownloadToken),
	}
}

func (s *Store) Contents() *Contents     { return &Contents{s: s} }
func (s *Store) Intents() *Intents       { return &Intents{s: s} }
func (s *Store) Ownerships() *Ownerships { return &Ownerships{s: s} }
func (s *Store) Tokens() *Tokens         { return &Tokens{s: s} }
func (s *Store) Deliveries() *Deliveries { return &Deliveries{s: s} }

type Contents struct{ s *Store }

func (r *Contents) Get(_ context.Context, id string) (*models.ContentItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.contents[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &item, nil
}

func (r *Contents) Upsert(_ context.Context, item *models.ContentItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	next := *item
	next.DownloadCount = r.s.contents[item.ID].DownloadCount
	r.s.contents[item.ID] = next
	return nil
}

func (r *Contents) IncrementDownloads(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.contents[id]
	if !ok {
		return common.ErrorNotFound
	}
	item.DownloadCount++
	r.s.contents[id] = item
	return nil
}

type Intents struct{ s *Store }

func (r *Intents) Create(_ context.Context, in *models.PaymentIntent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, dup := r.s.intents[in.ID]; dup {
		return common.ErrStorageConflict
	}
	if _, dup := r.s.externals[in.ExternalIntentID]; dup {
		return common.ErrStorageConflict
	}
	r.s.intents[in.ID] = *in
	r.s.externals[in.ExternalIntentID] = struct{}{}
	return nil
}

func (r *Intents) GetForUser(_ context.Context, id, userID string) (*models.PaymentIntent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	in, ok := r.s.intents[id]
	if !ok || in.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return &in, nil
}

func (r *Intents) MarkSucceeded(_ context.Context, id string, at time.Time) (bool, error) {
	return r.complete(id, models.IntentSucceeded, at), nil
}

func (r *Intents) MarkFailed(_ context.Context, id string, at time.Time) (bool, error) {
	return r.complete(id, models.IntentFailed, at), nil
}

func (r *Intents) complete(id string, status models.IntentStatus, at time.Time) bool {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	in, ok := r.s.intents[id]
	if !ok || in.Status != models.IntentPending {
		return false
	}
	in.Status = status
	in.CompletedAt = &at
	r.s.intents[id] = in
	return true
}

type Ownerships struct{ s *Store }

func (r *Ownerships) Exists(_ context.Context, userID, contentID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, ok := r.s.ownerships[ownershipKey{userID, contentID}]
	return ok, nil
}

func (r *Ownerships) Insert(_ context.Context, o *models.Ownership) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := ownershipKey{o.UserID, o.ContentID}
	if _, ok := r.s.ownerships[k]; ok {
		return false, nil
	}
	r.s.ownerships[k] = *o
	return true, nil
}

func (r *Ownerships) ListByUser(_ context.Context, userID string) ([]*models.Ownership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*models.Ownership
	for k, o := range r.s.ownerships {
		if k.userID == userID {
			o := o
			out = append(out, &o)
		}
	}
	sortOwnerships(out)
	return out, nil
}

func (r *Ownerships) RecordDownload(_ context.Context, userID, contentID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := ownershipKey{userID, contentID}
	o, ok := r.s.ownerships[k]
	if !ok {
		return common.ErrorNotFound
	}
	o.DownloadCount++
	o.LastDownloadAt = &at
	r.s.ownerships[k] = o
	return nil
}

type Tokens struct{ s *Store }

func (r *Tokens) Create(_ context.Context, t *models.DownloadToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, dup := r.s.tokens[t.TokenValue]; dup {
		return common.ErrStorageConflict
	}
	r.s.tokens[t.TokenValue] = *t
	return nil
}

func (r *Tokens) Resolve(_ context.Context, tokenValue string) (*models.Resolution, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tokens[tokenValue]
	if !ok {
		return nil, common.ErrorNotFound
	}
	item, ok := r.s.contents[t.ContentID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &models.Resolution{
		TokenID:   t.ID,
		UserID:    t.UserID,
		ContentID: t.ContentID,
		Format:    t.Format,
		FileRef:   item.FileRef,
		ExpiresAt: t.ExpiresAt,
	}, nil
}

type Deliveries struct{ s *Store }

func (r *Deliveries) Create(_ context.Context, e *models.DeliveryEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.deliveries = append(r.s.deliveries, *e)
	return nil
}
