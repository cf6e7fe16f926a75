package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuRepo_LookupItemID_CaseInsensitive(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT item_id FROM food_items WHERE LOWER(name) = ?")).
		WithArgs("falafel").
		WillReturnRows(sqlmock.NewRows([]string{"item_id"}).AddRow(2))

	id, err := NewMenuRepo(db).LookupItemID(context.Background(), "  FaLaFeL ")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
}

func TestMenuRepo_LookupItemID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM food_items").
		WillReturnRows(sqlmock.NewRows([]string{"item_id"}))

	_, err := NewMenuRepo(db).LookupItemID(context.Background(), "pizza")
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.NotErrorIs(t, err, ErrStorageUnavailable)
}

func TestMenuRepo_LookupItemID_StorageError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM food_items").WillReturnError(errConnRefused)

	_, err := NewMenuRepo(db).LookupItemID(context.Background(), "falafel")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NotErrorIs(t, err, ErrItemNotFound)
}

func TestMenuRepo_Menu(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT item_id, name, price FROM food_items").
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "name", "price"}).
			AddRow(1, "foul", "25.00").
			AddRow(2, "falafel", "20.50"))

	items, err := NewMenuRepo(db).Menu(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "falafel", items[1].Name)
	assert.True(t, items[1].Price.Equal(decimal.RequireFromString("20.5")))
}

func TestMenuRepo_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing().WillReturnError(errConnRefused)

	err = NewMenuRepo(db).Ping(context.Background())
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
