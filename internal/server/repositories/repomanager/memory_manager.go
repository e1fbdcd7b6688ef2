package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/contents"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/deliveries"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/intents"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/ownerships"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/tokens"
)

// MemoryRepositoryManager ignores the DBTX handle and serves every
// repository from one shared memory.Store. Pair it with dbx.NopTransactor.
type MemoryRepositoryManager struct {
	store *memory.Store
}

func NewMemoryRepositoryManager(store *memory.Store) *MemoryRepositoryManager {
	if store == nil {
		store = memory.NewStore()
	}
	return &MemoryRepositoryManager{store: store}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Contents(dbx.DBTX) contents.Repository {
	return m.store.Contents()
}

func (m *MemoryRepositoryManager) Intents(dbx.DBTX) intents.Repository {
	return m.store.Intents()
}

func (m *MemoryRepositoryManager) Ownerships(dbx.DBTX) ownerships.Repository {
	return m.store.Ownerships()
}

func (m *MemoryRepositoryManager) Tokens(dbx.DBTX) tokens.Repository {
	return m.store.Tokens()
}

func (m *MemoryRepositoryManager) Deliveries(dbx.DBTX) deliveries.Repository {
	return m.store.Deliveries()
}
