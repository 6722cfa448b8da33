package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
)

// FacilityRepository manages persistence for facilities and their bookings.
type FacilityRepository struct {
	db *sqlx.DB
}

// NewFacilityRepository constructs a FacilityRepository.
func NewFacilityRepository(db *sqlx.DB) *FacilityRepository {
	return &FacilityRepository{db: db}
}

const facilityColumns = `id, name, capacity, department, available, created_at, updated_at`
const bookingColumns = `id, facility_id, account_id, date, start_min, end_min, purpose, status, created_at, updated_at`

// List returns all facilities ordered by name.
func (r *FacilityRepository) List(ctx context.Context) ([]models.Facility, error) {
	query := fmt.Sprintf(`SELECT %s FROM facilities ORDER BY name ASC`, facilityColumns)
	var facilities []models.Facility
	if err := r.db.SelectContext(ctx, &facilities, query); err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	return facilities, nil
}

// FindByID fetches a facility by ID.
func (r *FacilityRepository) FindByID(ctx context.Context, id string) (*models.Facility, error) {
	query := fmt.Sprintf(`SELECT %s FROM facilities WHERE id = $1 LIMIT 1`, facilityColumns)
	var facility models.Facility
	if err := r.db.GetContext(ctx, &facility, query, id); err != nil {
		return nil, err
	}
	return &facility, nil
}

// Create inserts a new facility.
func (r *FacilityRepository) Create(ctx context.Context, facility *models.Facility) error {
	if facility.ID == "" {
		facility.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if facility.CreatedAt.IsZero() {
		facility.CreatedAt = now
	}
	facility.UpdatedAt = now
	const query = `INSERT INTO facilities (id, name, capacity, department, available, created_at, updated_at) VALUES (:id, :name, :capacity, :department, :available, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, facility); err != nil {
		return fmt.Errorf("create facility: %w", err)
	}
	return nil
}

// ListActiveBookingsOn returns the non-rejected bookings for a facility on a
// calendar date. Used by the overlap admission check.
func (r *FacilityRepository) ListActiveBookingsOn(ctx context.Context, facilityID, date string) ([]models.FacilityBooking, error) {
	query := fmt.Sprintf(`SELECT %s FROM facility_bookings WHERE facility_id = $1 AND date = $2 AND status <> $3 ORDER BY start_min ASC`, bookingColumns)
	var bookings []models.FacilityBooking
	if err := r.db.SelectContext(ctx, &bookings, query, facilityID, date, models.BookingRejected); err != nil {
		return nil, fmt.Errorf("list facility bookings: %w", err)
	}
	return bookings, nil
}

// CreateBooking inserts a new booking.
func (r *FacilityRepository) CreateBooking(ctx context.Context, booking *models.FacilityBooking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now
	const query = `INSERT INTO facility_bookings (id, facility_id, account_id, date, start_min, end_min, purpose, status, created_at, updated_at) VALUES (:id, :facility_id, :account_id, :date, :start_min, :end_min, :purpose, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// FindBooking fetches a booking by ID.
func (r *FacilityRepository) FindBooking(ctx context.Context, id string) (*models.FacilityBooking, error) {
	query := fmt.Sprintf(`SELECT %s FROM facility_bookings WHERE id = $1 LIMIT 1`, bookingColumns)
	var booking models.FacilityBooking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateBookingStatus transitions a booking to a new status.
func (r *FacilityRepository) UpdateBookingStatus(ctx context.Context, id string, status models.BookingStatus) error {
	const query = `UPDATE facility_bookings SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return nil
}
