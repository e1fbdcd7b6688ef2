// Package repomanager provides RepositoryManager implementations for
// PostgreSQL and for in-process memory, plus the goose migration hook.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/migrations"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/contents"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/deliveries"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/intents"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/ownerships"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/tokens"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Contents(db dbx.DBTX) contents.Repository {
	return contents.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Intents(db dbx.DBTX) intents.Repository {
	return intents.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Ownerships(db dbx.DBTX) ownerships.Repository {
	return ownerships.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Tokens(db dbx.DBTX) tokens.Repository {
	return tokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Deliveries(db dbx.DBTX) deliveries.Repository {
	return deliveries.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations to db.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}
