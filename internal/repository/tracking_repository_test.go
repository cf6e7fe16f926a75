package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/food-order-webhook/internal/model"
)

func TestTrackingRepo_FinalizeTracking_Twice(t *testing.T) {
	db, mock := newMock(t)
	q := regexp.QuoteMeta("CALL finalize_order_tracking(?)")
	mock.ExpectExec(q).WithArgs(int64(4242)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(int64(4242)).WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewTrackingRepo(db)
	require.NoError(t, repo.FinalizeTracking(context.Background(), 4242))
	require.NoError(t, repo.FinalizeTracking(context.Background(), 4242))
}

func TestTrackingRepo_TrackingStatus(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT status FROM order_tracking").
		WithArgs(int64(4242)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.StatusInTransit))

	status, err := NewTrackingRepo(db).TrackingStatus(context.Background(), 4242)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInTransit, status)
}

func TestTrackingRepo_TrackingStatus_NotFoundVsUnavailable(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT status FROM order_tracking").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectQuery("SELECT status FROM order_tracking").
		WillReturnError(errConnRefused)

	repo := NewTrackingRepo(db)
	_, err := repo.TrackingStatus(context.Background(), 1)
	assert.ErrorIs(t, err, ErrTrackingNotFound)

	_, err = repo.TrackingStatus(context.Background(), 1)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NotErrorIs(t, err, ErrTrackingNotFound)
}

func TestTrackingRepo_SetStatus(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE order_tracking SET status = ? WHERE order_id = ?")).
		WithArgs(model.StatusDelivered, int64(4242)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewTrackingRepo(db).SetStatus(context.Background(), 4242, model.StatusDelivered))
}

func TestTrackingRepo_SetStatus_UnknownOrder(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE order_tracking").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM order_tracking").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	err := NewTrackingRepo(db).SetStatus(context.Background(), 9, model.StatusDelivered)
	assert.ErrorIs(t, err, ErrTrackingNotFound)
}

func TestTrackingRepo_SetStatus_Invalid(t *testing.T) {
	db, _ := newMock(t)
	err := NewTrackingRepo(db).SetStatus(context.Background(), 9, "lost at sea")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
