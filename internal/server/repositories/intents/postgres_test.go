package intents

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

var created = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func sampleIntent() *models.PaymentIntent {
	return &models.PaymentIntent{
		ID: "i1", UserID: "A", ContentID: "7", Amount: 999, Currency: "usd",
		ExternalIntentID: "pi_1", ClientHandle: "pi_1_secret", Status: models.IntentPending, CreatedAt: created,
	}
}

const insertQ = `(?s)^INSERT INTO payment_intents\s+\(id, user_id, content_id, amount, currency, external_intent_id, client_handle, status, created_at\)`

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).
		WithArgs("i1", "A", "7", int64(999), "usd", "pi_1", "pi_1_secret", "pending", created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), sampleIntent()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateExternalID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), sampleIntent())
	assert.ErrorIs(t, err, common.ErrStorageConflict)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), sampleIntent())
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

const selectQ = `(?s)SELECT id, user_id, content_id, amount, currency, external_intent_id, client_handle, status, created_at, completed_at\s+FROM payment_intents WHERE id=\$1 AND user_id=\$2`

var cols = []string{"id", "user_id", "content_id", "amount", "currency", "external_intent_id", "client_handle", "status", "created_at", "completed_at"}

func TestGetForUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	done := created.Add(time.Minute)
	mock.ExpectQuery(selectQ).WithArgs("i1", "A").WillReturnRows(
		sqlmock.NewRows(cols).AddRow("i1", "A", "7", int64(999), "usd", "pi_1", "pi_1_secret", "succeeded", created, done))

	got, err := repo.GetForUser(context.Background(), "i1", "A")
	require.NoError(t, err)

	want := sampleIntent()
	want.Status = models.IntentSucceeded
	want.CompletedAt = &done
	assert.Empty(t, cmp.Diff(want, got))
}

func TestGetForUser_PendingHasNoCompletion(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).WithArgs("i1", "A").WillReturnRows(
		sqlmock.NewRows(cols).AddRow("i1", "A", "7", int64(999), "usd", "pi_1", "pi_1_secret", "pending", created, nil))

	got, err := repo.GetForUser(context.Background(), "i1", "A")
	require.NoError(t, err)
	assert.Nil(t, got.CompletedAt)
	assert.Equal(t, models.IntentPending, got.Status)
}

func TestGetForUser_OtherUserIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).WithArgs("i1", "B").WillReturnRows(sqlmock.NewRows(cols))

	_, err := repo.GetForUser(context.Background(), "i1", "B")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMarkTransitions(t *testing.T) {
	q := regexp.QuoteMeta(`UPDATE payment_intents SET status=$2, completed_at=$3 WHERE id=$1 AND status='pending'`)
	at := created.Add(time.Hour)

	t.Run("succeeded moves pending", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(q).WithArgs("i1", "succeeded", at).WillReturnResult(sqlmock.NewResult(0, 1))

		moved, err := repo.MarkSucceeded(context.Background(), "i1", at)
		require.NoError(t, err)
		assert.True(t, moved)
	})

	t.Run("already terminal is a no-op", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(q).WithArgs("i1", "succeeded", at).WillReturnResult(sqlmock.NewResult(0, 0))

		moved, err := repo.MarkSucceeded(context.Background(), "i1", at)
		require.NoError(t, err)
		assert.False(t, moved)
	})

	t.Run("failed", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(q).WithArgs("i1", "failed", at).WillReturnResult(sqlmock.NewResult(0, 1))

		moved, err := repo.MarkFailed(context.Background(), "i1", at)
		require.NoError(t, err)
		assert.True(t, moved)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(q).WillReturnError(errors.New("boom"))

		_, err := repo.MarkFailed(context.Background(), "i1", at)
		assert.Regexp(t, `db error: .*boom`, err.Error())
	})
}
