package ownerships

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

var bought = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestExists(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM ownerships WHERE user_id=$1 AND content_id=$2)`)
	mock.ExpectQuery(q).WithArgs("A", "7").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(q).WithArgs("A", "8").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(q).WithArgs("A", "9").WillReturnError(errors.New("down"))

	ok, err := repo.Exists(context.Background(), "A", "7")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(context.Background(), "A", "8")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Exists(context.Background(), "A", "9")
	assert.Regexp(t, `db error: .*down`, err.Error())
}

const insertQ = `(?s)^\s*INSERT INTO ownerships \(user_id, content_id, purchase_price, purchase_date\).*ON CONFLICT \(user_id, content_id\) DO NOTHING$`

func TestInsert(t *testing.T) {
	o := &models.Ownership{UserID: "A", ContentID: "7", PurchasePrice: 999, PurchaseDate: bought}

	tests := []struct {
		name        string
		setup       func(sqlmock.Sqlmock)
		wantCreated bool
		wantErr     error
		wantErrText string
	}{
		{
			name: "first grant creates",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectExec(insertQ).WithArgs("A", "7", int64(999), bought).WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantCreated: true,
		},
		{
			name: "existing pair is ignored",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectExec(insertQ).WithArgs("A", "7", int64(999), bought).WillReturnResult(sqlmock.NewResult(0, 0))
			},
		},
		{
			name: "unique violation surfaces as conflict",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectExec(insertQ).WillReturnError(&pgconn.PgError{Code: "23505"})
			},
			wantErr: common.ErrStorageConflict,
		},
		{
			name: "driver error",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectExec(insertQ).WillReturnError(errors.New("down"))
			},
			wantErrText: `db error: .*down`,
		},
		{
			name: "unexpected rows",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectExec(insertQ).WillReturnResult(sqlmock.NewResult(0, 2))
			},
			wantErrText: `unexpected rows affected: 2`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()
			tt.setup(mock)

			created, err := repo.Insert(context.Background(), o)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrText != "":
				require.Error(t, err)
				assert.Regexp(t, tt.wantErrText, err.Error())
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantCreated, created)
			}
		})
	}
}

func TestListByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	last := bought.Add(time.Hour)
	q := `(?s)SELECT user_id, content_id, purchase_price, purchase_date, download_count, last_download_at\s+FROM ownerships WHERE user_id=\$1`
	mock.ExpectQuery(q).WithArgs("A").WillReturnRows(
		sqlmock.NewRows([]string{"user_id", "content_id", "purchase_price", "purchase_date", "download_count", "last_download_at"}).
			AddRow("A", "7", int64(999), bought, int64(2), last).
			AddRow("A", "9", int64(500), bought, int64(0), nil))

	got, err := repo.ListByUser(context.Background(), "A")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].DownloadCount)
	require.NotNil(t, got[0].LastDownloadAt)
	assert.True(t, got[0].LastDownloadAt.Equal(last))
	assert.Nil(t, got[1].LastDownloadAt)
}

func TestListByUser_QueryErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT user_id`).WillReturnError(errors.New("db err"))

	_, err := repo.ListByUser(context.Background(), "A")
	assert.Regexp(t, `failed to select ownerships: .*db err`, err.Error())
}

func TestRecordDownload(t *testing.T) {
	q := `(?s)UPDATE ownerships SET download_count = download_count \+ 1, last_download_at = \$3\s+WHERE user_id=\$1 AND content_id=\$2`
	at := bought.Add(2 * time.Hour)

	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(q).WithArgs("A", "7", at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("B", "7", at).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.RecordDownload(context.Background(), "A", "7", at))
	assert.ErrorIs(t, repo.RecordDownload(context.Background(), "B", "7", at), common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
