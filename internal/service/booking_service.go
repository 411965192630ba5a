package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/bnb-marketplace/internal/domain"
	"github.com/diagnosis/bnb-marketplace/internal/repository"
	"github.com/diagnosis/bnb-marketplace/pkg/events"
	"github.com/diagnosis/bnb-marketplace/pkg/logger"
	"github.com/diagnosis/bnb-marketplace/pkg/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type BookingService interface {
	// Create returns the booking and whether it was replayed from an earlier
	// request carrying the same idempotency key.
	Create(ctx context.Context, renterID string, req *domain.CreateBookingRequest, idempotencyKey string) (*domain.Booking, bool, error)
	ListMine(ctx context.Context, renterID string) ([]domain.BookingWithProperty, error)
	ListRequests(ctx context.Context, hostID string) ([]domain.BookingWithProperty, error)
	Update(ctx context.Context, renterID, id string, patch *domain.BookingPatch) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, requesterID, id, status string) (*domain.Booking, error)
	Delete(ctx context.Context, renterID, id string) error
}

type bookingService struct {
	bookingRepo     repository.BookingRepository
	propertyRepo    repository.PropertyRepository
	idempotencyRepo repository.IdempotencyRepository
	publisher       events.Publisher
	tracer          trace.Tracer
	now             func() time.Time
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	propertyRepo repository.PropertyRepository,
	idempotencyRepo repository.IdempotencyRepository,
	publisher events.Publisher,
) BookingService {
	return &bookingService{
		bookingRepo:     bookingRepo,
		propertyRepo:    propertyRepo,
		idempotencyRepo: idempotencyRepo,
		publisher:       publisher,
		tracer:          telemetry.Tracer("bnb/service/bookings"),
		now:             time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, renterID string, req *domain.CreateBookingRequest, idempotencyKey string) (*domain.Booking, bool, error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.Create")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, false, err
	}
	if _, err := uuid.Parse(req.PropertyID); err != nil {
		return nil, false, domain.Invalid("property not found")
	}

	if idempotencyKey != "" {
		existingID, err := s.idempotencyRepo.Lookup(ctx, renterID, idempotencyKey)
		if err != nil {
			return nil, false, fmt.Errorf("idempotency check failed: %w", err)
		}
		if existingID != "" {
			existing, err := s.bookingRepo.GetByID(ctx, existingID)
			if err != nil {
				return nil, false, fmt.Errorf("failed to load booking: %w", err)
			}
			if existing != nil {
				return existing, true, nil
			}
		}
	}

	property, err := s.propertyRepo.GetByID(ctx, req.PropertyID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load property: %w", err)
	}
	if property == nil {
		return nil, false, domain.Invalid("property not found")
	}

	nights, err := domain.Nights(req.CheckInDate, req.CheckOutDate)
	if err != nil {
		return nil, false, err
	}
	total := domain.TotalPrice(property.PricePerNight, nights)

	booking, err := s.bookingRepo.Create(ctx, renterID, property.ID, req.CheckInDate, req.CheckOutDate, total)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create booking: %w", err)
	}
	span.SetAttributes(attribute.String("booking.id", booking.ID), attribute.String("property.id", property.ID))

	if idempotencyKey != "" {
		if err := s.idempotencyRepo.Remember(ctx, renterID, idempotencyKey, booking.ID); err != nil {
			logger.ErrorContext(ctx, "Failed to store idempotency record", "error", err, "booking_id", booking.ID)
		}
	}

	s.publish(ctx, events.BookingCreated, events.BookingCreatedEvent{
		BookingID:    booking.ID,
		PropertyID:   property.ID,
		PropertyName: property.Name,
		HostID:       property.UserID,
		RenterID:     renterID,
		CheckInDate:  booking.CheckInDate,
		CheckOutDate: booking.CheckOutDate,
		TotalPrice:   booking.TotalPrice,
		CreatedAt:    booking.CreatedAt,
	})

	logger.InfoContext(ctx, "Booking created", "booking_id", booking.ID, "property_id", property.ID)
	return booking, false, nil
}

func (s *bookingService) ListMine(ctx context.Context, renterID string) ([]domain.BookingWithProperty, error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.ListMine")
	defer span.End()

	bookings, err := s.bookingRepo.ListByRenter(ctx, renterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (s *bookingService) ListRequests(ctx context.Context, hostID string) ([]domain.BookingWithProperty, error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.ListRequests")
	defer span.End()

	bookings, err := s.bookingRepo.ListByHost(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking requests: %w", err)
	}

	out := make([]domain.BookingWithProperty, 0, len(bookings))
	for _, b := range bookings {
		if b.Properties != nil {
			out = append(out, b)
		}
	}
	return out, nil
}

// Update edits the renter's own booking. A booking the renter does not own is
// reported as nil without an error.
func (s *bookingService) Update(ctx context.Context, renterID, id string, patch *domain.BookingPatch) (*domain.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.Update")
	defer span.End()

	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.UpdateDates(ctx, id, renterID, *patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	if booking == nil {
		return nil, nil
	}

	s.publish(ctx, events.BookingUpdated, events.BookingUpdatedEvent{
		BookingID:    booking.ID,
		RenterID:     renterID,
		CheckInDate:  booking.CheckInDate,
		CheckOutDate: booking.CheckOutDate,
		TotalPrice:   booking.TotalPrice,
		UpdatedAt:    s.now(),
	})
	return booking, nil
}

// UpdateStatus lets the host of the booked property set any status. The status
// is validated before anything is read.
func (s *bookingService) UpdateStatus(ctx context.Context, requesterID, id, status string) (*domain.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.UpdateStatus")
	defer span.End()

	newStatus, ok := domain.ParseBookingStatus(status)
	if !ok {
		return nil, domain.ErrInvalidStatus
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, domain.ErrBookingNotFound
	}

	if booking.PropertyID == nil {
		return nil, domain.ErrForbidden
	}
	property, err := s.propertyRepo.GetByID(ctx, *booking.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	if property == nil || !property.IsOwner(requesterID) {
		return nil, domain.ErrForbidden
	}

	updated, err := s.bookingRepo.UpdateStatus(ctx, id, newStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrBookingNotFound
	}
	span.SetAttributes(attribute.String("booking.status", string(newStatus)))

	s.publish(ctx, events.BookingStatusChanged, events.BookingStatusChangedEvent{
		BookingID:    updated.ID,
		PropertyID:   property.ID,
		PropertyName: property.Name,
		HostID:       property.UserID,
		RenterID:     updated.UserID,
		OldStatus:    string(booking.Status),
		NewStatus:    string(updated.Status),
		CheckInDate:  updated.CheckInDate,
		CheckOutDate: updated.CheckOutDate,
		ChangedAt:    s.now(),
	})

	logger.InfoContext(ctx, "Booking status changed",
		"booking_id", updated.ID, "from", booking.Status, "to", updated.Status)
	return updated, nil
}

// Delete removes the renter's booking regardless of status. Deleting a booking
// that does not exist or belongs to someone else is not an error.
func (s *bookingService) Delete(ctx context.Context, renterID, id string) error {
	ctx, span := s.tracer.Start(ctx, "BookingService.Delete")
	defer span.End()

	removed, err := s.bookingRepo.Delete(ctx, id, renterID)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if removed != nil {
		s.publish(ctx, events.BookingDeleted, events.BookingDeletedEvent{
			BookingID: removed.ID,
			RenterID:  renterID,
			DeletedAt: s.now(),
		})
	}
	return nil
}

func (s *bookingService) publish(ctx context.Context, subject string, payload any) {
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "error", err, "subject", subject)
	}
}
