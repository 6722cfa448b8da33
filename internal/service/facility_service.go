package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	"github.com/Aisenh037/dept-mgmt-api/internal/policy"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
)

type facilityRepository interface {
	List(ctx context.Context) ([]models.Facility, error)
	FindByID(ctx context.Context, id string) (*models.Facility, error)
	Create(ctx context.Context, facility *models.Facility) error
	ListActiveBookingsOn(ctx context.Context, facilityID, date string) ([]models.FacilityBooking, error)
	CreateBooking(ctx context.Context, booking *models.FacilityBooking) error
	FindBooking(ctx context.Context, id string) (*models.FacilityBooking, error)
	UpdateBookingStatus(ctx context.Context, id string, status models.BookingStatus) error
}

// CreateFacilityRequest holds payload for registering a facility.
type CreateFacilityRequest struct {
	Name       string `json:"name" validate:"required"`
	Capacity   int    `json:"capacity" validate:"required,min=1"`
	Department string `json:"department" validate:"required"`
}

// BookFacilityRequest reserves a facility for a half-open minute range.
type BookFacilityRequest struct {
	Date     string `json:"date" validate:"required"`
	StartMin int    `json:"start_min" validate:"min=0,max=1439"`
	EndMin   int    `json:"end_min" validate:"required,min=1,max=1440"`
	Purpose  string `json:"purpose" validate:"required"`
}

var bookingDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// FacilityService manages facilities and their booking calendar.
type FacilityService struct {
	repo      facilityRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFacilityService constructs the facility service.
func NewFacilityService(repo facilityRepository, validate *validator.Validate, logger *zap.Logger) *FacilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacilityService{repo: repo, validator: validate, logger: logger}
}

// List returns all facilities.
func (s *FacilityService) List(ctx context.Context) ([]models.Facility, error) {
	facilities, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list facilities")
	}
	return facilities, nil
}

// Create registers a facility.
func (s *FacilityService) Create(ctx context.Context, req CreateFacilityRequest) (*models.Facility, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid facility payload")
	}
	facility := &models.Facility{
		Name:       req.Name,
		Capacity:   req.Capacity,
		Department: req.Department,
		Available:  true,
	}
	if err := s.repo.Create(ctx, facility); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create facility")
	}
	return facility, nil
}

// Book requests a reservation. The new interval [start, end) must not
// overlap any pending or approved booking on the same facility and date;
// back-to-back bookings sharing an endpoint are allowed.
func (s *FacilityService) Book(ctx context.Context, actor policy.Actor, facilityID string, req BookFacilityRequest) (*models.FacilityBooking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	if !bookingDatePattern.MatchString(req.Date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	if req.StartMin >= req.EndMin {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start time must be before end time")
	}

	facility, err := s.repo.FindByID(ctx, facilityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "facility not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facility")
	}
	if !facility.Available {
		return nil, appErrors.Clone(appErrors.ErrConflict, "facility is not available for booking")
	}

	existing, err := s.repo.ListActiveBookingsOn(ctx, facilityID, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check bookings")
	}
	for _, b := range existing {
		if req.StartMin < b.EndMin && req.EndMin > b.StartMin {
			return nil, appErrors.Clone(appErrors.ErrBookingConflict, "facility already booked for the requested time")
		}
	}

	booking := &models.FacilityBooking{
		FacilityID: facilityID,
		AccountID:  actor.ID,
		Date:       req.Date,
		StartMin:   req.StartMin,
		EndMin:     req.EndMin,
		Purpose:    req.Purpose,
		Status:     models.BookingPending,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}
	return booking, nil
}

// Bookings returns the active bookings for a facility on a date.
func (s *FacilityService) Bookings(ctx context.Context, facilityID, date string) ([]models.FacilityBooking, error) {
	if !bookingDatePattern.MatchString(date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	bookings, err := s.repo.ListActiveBookingsOn(ctx, facilityID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	return bookings, nil
}

// Review approves or rejects a pending booking.
func (s *FacilityService) Review(ctx context.Context, actor policy.Actor, bookingID string, approve bool) (*models.FacilityBooking, error) {
	booking, err := s.repo.FindBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}

	facility, err := s.repo.FindByID(ctx, booking.FacilityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facility")
	}
	if d := policy.Decide(actor, policy.Target{Department: facility.Department}, policy.ActionUpdate); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}

	if booking.Status != models.BookingPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "booking has already been reviewed")
	}

	status := models.BookingRejected
	if approve {
		status = models.BookingApproved
	}
	if err := s.repo.UpdateBookingStatus(ctx, bookingID, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking")
	}
	booking.Status = status
	return booking, nil
}
