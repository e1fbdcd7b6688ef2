package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/repomanager"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrant_IdempotentInMemory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.registry.Grant(ctx, "A", "7", 999)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.registry.Grant(ctx, "A", "7", 999)
	require.NoError(t, err)
	assert.False(t, created)

	list, err := f.registry.List(ctx, "A")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].PurchaseDate.Equal(f.clock.Now()))
}

func newPostgresRegistry(t *testing.T) (*OwnershipRegistry, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewOwnershipRegistry(dbx.NewSQLTransactor(db, nil), repomanager.NewPostgresRepositoryManager(), logging.Nop{}), mock
}

func TestGrant_UniqueViolationIsSuccess(t *testing.T) {
	r, mock := newPostgresRegistry(t)

	mock.ExpectExec(`INSERT INTO ownerships`).WillReturnError(&pgconn.PgError{Code: "23505"})

	created, err := r.Grant(context.Background(), "A", "7", 999)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestGrant_StorageErrorSurfaces(t *testing.T) {
	r, mock := newPostgresRegistry(t)

	mock.ExpectExec(`INSERT INTO ownerships`).WillReturnError(errors.New("disk full"))

	_, err := r.Grant(context.Background(), "A", "7", 999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestHasOwnership_StorageError(t *testing.T) {
	r, mock := newPostgresRegistry(t)

	mock.ExpectQuery(`SELECT EXISTS`).WillReturnError(errors.New("conn reset"))

	_, err := r.HasOwnership(context.Background(), "A", "7")
	assert.Error(t, err)
}
