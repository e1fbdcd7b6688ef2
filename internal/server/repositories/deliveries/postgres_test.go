package deliveries

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	q := regexp.QuoteMeta(`INSERT INTO delivery_events (id, token_id, user_id, content_id, delivered_at)`)

	mock.ExpectExec(q).WithArgs("d1", "t1", "A", "7", at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WillReturnError(errors.New("down"))

	ev := &models.DeliveryEvent{ID: "d1", TokenID: "t1", UserID: "A", ContentID: "7", DeliveredAt: at}
	require.NoError(t, repo.Create(context.Background(), ev))

	err = repo.Create(context.Background(), ev)
	assert.Regexp(t, `db error: .*down`, err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}
