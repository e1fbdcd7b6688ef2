package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/contents"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/deliveries"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/intents"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/ownerships"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/tokens"
)

// RepositoryManager vends repositories bound to a DBTX, so services can
// pick either the plain connection or an open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Contents(db dbx.DBTX) contents.Repository
	Intents(db dbx.DBTX) intents.Repository
	Ownerships(db dbx.DBTX) ownerships.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Deliveries(db dbx.DBTX) deliveries.Repository
}
