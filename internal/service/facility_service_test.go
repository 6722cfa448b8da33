package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	"github.com/Aisenh037/dept-mgmt-api/internal/policy"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
)

type mockFacilityRepo struct {
	facilities map[string]*models.Facility
	bookings   map[string]*models.FacilityBooking
}

func (m *mockFacilityRepo) List(ctx context.Context) ([]models.Facility, error) {
	out := make([]models.Facility, 0, len(m.facilities))
	for _, f := range m.facilities {
		out = append(out, *f)
	}
	return out, nil
}

func (m *mockFacilityRepo) FindByID(ctx context.Context, id string) (*models.Facility, error) {
	f, ok := m.facilities[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return f, nil
}

func (m *mockFacilityRepo) Create(ctx context.Context, facility *models.Facility) error {
	facility.ID = "f-new"
	if m.facilities == nil {
		m.facilities = make(map[string]*models.Facility)
	}
	m.facilities[facility.ID] = facility
	return nil
}

func (m *mockFacilityRepo) ListActiveBookingsOn(ctx context.Context, facilityID, date string) ([]models.FacilityBooking, error) {
	var out []models.FacilityBooking
	for _, b := range m.bookings {
		if b.FacilityID == facilityID && b.Date == date && b.Status != models.BookingRejected {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockFacilityRepo) CreateBooking(ctx context.Context, booking *models.FacilityBooking) error {
	if m.bookings == nil {
		m.bookings = make(map[string]*models.FacilityBooking)
	}
	booking.ID = "bk-new"
	m.bookings[booking.ID] = booking
	return nil
}

func (m *mockFacilityRepo) FindBooking(ctx context.Context, id string) (*models.FacilityBooking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return b, nil
}

func (m *mockFacilityRepo) UpdateBookingStatus(ctx context.Context, id string, status models.BookingStatus) error {
	m.bookings[id].Status = status
	return nil
}

func seminarHall() *mockFacilityRepo {
	return &mockFacilityRepo{
		facilities: map[string]*models.Facility{
			"f1": {ID: "f1", Name: "Seminar Hall", Capacity: 120, Department: "Engineering", Available: true},
		},
		bookings: map[string]*models.FacilityBooking{},
	}
}

func newFacilityService(repo *mockFacilityRepo) *FacilityService {
	return NewFacilityService(repo, validator.New(), zap.NewNop())
}

func TestBookRejectsOverlapWithPendingAndApproved(t *testing.T) {
	repo := seminarHall()
	repo.bookings["b1"] = &models.FacilityBooking{ID: "b1", FacilityID: "f1", Date: "2024-03-01", StartMin: 600, EndMin: 660, Status: models.BookingApproved}
	repo.bookings["b2"] = &models.FacilityBooking{ID: "b2", FacilityID: "f1", Date: "2024-03-01", StartMin: 720, EndMin: 780, Status: models.BookingPending}
	svc := newFacilityService(repo)
	actor := policy.Actor{ID: "prof1", Role: models.RoleProfessor}

	cases := []struct{ start, end int }{
		{630, 690}, // overlaps approved tail
		{570, 630}, // overlaps approved head
		{600, 660}, // exact duplicate
		{610, 650}, // contained
		{590, 670}, // containing
		{750, 810}, // overlaps a merely pending booking
	}
	for _, tc := range cases {
		_, err := svc.Book(context.Background(), actor, "f1", BookFacilityRequest{Date: "2024-03-01", StartMin: tc.start, EndMin: tc.end, Purpose: "lecture"})
		require.Error(t, err, "expected conflict for [%d,%d)", tc.start, tc.end)
		assert.Equal(t, appErrors.ErrBookingConflict.Code, appErrors.FromError(err).Code)
	}
}

func TestBookAllowsBackToBackAndRejectedSlots(t *testing.T) {
	repo := seminarHall()
	repo.bookings["b1"] = &models.FacilityBooking{ID: "b1", FacilityID: "f1", Date: "2024-03-01", StartMin: 600, EndMin: 660, Status: models.BookingApproved}
	repo.bookings["b2"] = &models.FacilityBooking{ID: "b2", FacilityID: "f1", Date: "2024-03-01", StartMin: 500, EndMin: 560, Status: models.BookingRejected}
	svc := newFacilityService(repo)
	actor := policy.Actor{ID: "prof1", Role: models.RoleProfessor}

	// Half-open intervals: ending exactly when the next begins is fine.
	booking, err := svc.Book(context.Background(), actor, "f1", BookFacilityRequest{Date: "2024-03-01", StartMin: 660, EndMin: 720, Purpose: "lab"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, booking.Status)

	// A rejected booking does not block its slot.
	_, err = svc.Book(context.Background(), actor, "f1", BookFacilityRequest{Date: "2024-03-01", StartMin: 500, EndMin: 560, Purpose: "meeting"})
	require.NoError(t, err)
}

func TestBookOtherDateDoesNotConflict(t *testing.T) {
	repo := seminarHall()
	repo.bookings["b1"] = &models.FacilityBooking{ID: "b1", FacilityID: "f1", Date: "2024-03-01", StartMin: 600, EndMin: 660, Status: models.BookingApproved}
	svc := newFacilityService(repo)

	_, err := svc.Book(context.Background(), policy.Actor{ID: "prof1", Role: models.RoleProfessor}, "f1", BookFacilityRequest{Date: "2024-03-02", StartMin: 600, EndMin: 660, Purpose: "lecture"})
	require.NoError(t, err)
}

func TestBookValidatesInterval(t *testing.T) {
	svc := newFacilityService(seminarHall())
	actor := policy.Actor{ID: "prof1", Role: models.RoleProfessor}

	_, err := svc.Book(context.Background(), actor, "f1", BookFacilityRequest{Date: "2024-03-01", StartMin: 660, EndMin: 600, Purpose: "lecture"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Book(context.Background(), actor, "f1", BookFacilityRequest{Date: "tomorrow", StartMin: 600, EndMin: 660, Purpose: "lecture"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReviewApproveAndRejectOnlyOnce(t *testing.T) {
	repo := seminarHall()
	repo.bookings["b1"] = &models.FacilityBooking{ID: "b1", FacilityID: "f1", Date: "2024-03-01", StartMin: 600, EndMin: 660, Status: models.BookingPending}
	svc := newFacilityService(repo)
	actor := policy.Actor{ID: "hod1", Role: models.RoleHOD, Department: "Engineering"}

	booking, err := svc.Review(context.Background(), actor, "b1", true)
	require.NoError(t, err)
	assert.Equal(t, models.BookingApproved, booking.Status)

	_, err = svc.Review(context.Background(), actor, "b1", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestReviewForeignDepartmentDenied(t *testing.T) {
	repo := seminarHall()
	repo.bookings["b1"] = &models.FacilityBooking{ID: "b1", FacilityID: "f1", Date: "2024-03-01", StartMin: 600, EndMin: 660, Status: models.BookingPending}
	svc := newFacilityService(repo)
	actor := policy.Actor{ID: "hod2", Role: models.RoleHOD, Department: "Sciences"}

	_, err := svc.Review(context.Background(), actor, "b1", true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
