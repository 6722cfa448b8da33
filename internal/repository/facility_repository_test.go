package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
)

func TestListActiveBookingsOnExcludesRejected(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFacilityRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "facility_id", "account_id", "date", "start_min", "end_min", "purpose", "status", "created_at", "updated_at"}).
		AddRow("bk1", "f1", "a1", "2024-01-01", 600, 660, "seminar", string(models.BookingApproved), now, now)

	mock.ExpectQuery("SELECT .+ FROM facility_bookings WHERE facility_id").
		WithArgs("f1", "2024-01-01", string(models.BookingRejected)).
		WillReturnRows(rows)

	bookings, err := repo.ListActiveBookingsOn(context.Background(), "f1", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, 600, bookings[0].StartMin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingDefaultsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFacilityRepository(db)

	mock.ExpectExec("INSERT INTO facility_bookings").WillReturnResult(sqlmock.NewResult(1, 1))

	booking := &models.FacilityBooking{FacilityID: "f1", AccountID: "a1", Date: "2024-01-01", StartMin: 600, EndMin: 660, Purpose: "seminar", Status: models.BookingPending}
	err := repo.CreateBooking(context.Background(), booking)
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
}

func TestUpdateBookingStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFacilityRepository(db)

	mock.ExpectExec("UPDATE facility_bookings SET status").
		WithArgs("bk1", string(models.BookingApproved), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateBookingStatus(context.Background(), "bk1", models.BookingApproved)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
