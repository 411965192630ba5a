package domain

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingRejected  BookingStatus = "rejected"
)

// ParseBookingStatus accepts only the three stored statuses. Any status may
// follow any other; hosts are allowed to move a rejected booking back to pending.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingRejected:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// DateLayout is the wire and storage format of check-in and check-out dates.
const DateLayout = "2006-01-02"

type Booking struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	PropertyID   *string       `json:"property_id"`
	CheckInDate  string        `json:"check_in_date"`
	CheckOutDate string        `json:"check_out_date"`
	TotalPrice   float64       `json:"total_price"`
	Status       BookingStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}

// BookingProperty is the property summary joined onto booking listings.
type BookingProperty struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	ImageURLs ImageURLs `json:"image_urls"`
}

// BookingWithProperty is a booking row plus its joined property. Properties is
// nil once the property has been deleted.
type BookingWithProperty struct {
	Booking
	Properties *BookingProperty `json:"properties"`
}

// IsRenter reports whether userID created the booking.
func (b *Booking) IsRenter(userID string) bool {
	return b.UserID == userID
}

type CreateBookingRequest struct {
	PropertyID   string `json:"property_id"`
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
}

func (r *CreateBookingRequest) Normalize() {
	r.PropertyID = strings.TrimSpace(r.PropertyID)
	r.CheckInDate = strings.TrimSpace(r.CheckInDate)
	r.CheckOutDate = strings.TrimSpace(r.CheckOutDate)
}

func (r *CreateBookingRequest) Validate() error {
	if r.PropertyID == "" || r.CheckInDate == "" || r.CheckOutDate == "" {
		return ErrMissingFields
	}
	_, err := Nights(r.CheckInDate, r.CheckOutDate)
	return err
}

// BookingPatch carries the renter-editable fields. Nil fields are left as stored.
type BookingPatch struct {
	CheckInDate  *string `json:"check_in_date,omitempty"`
	CheckOutDate *string `json:"check_out_date,omitempty"`
}

func (p *BookingPatch) Normalize() {
	if p.CheckInDate != nil {
		s := strings.TrimSpace(*p.CheckInDate)
		p.CheckInDate = &s
	}
	if p.CheckOutDate != nil {
		s := strings.TrimSpace(*p.CheckOutDate)
		p.CheckOutDate = &s
	}
}

// Validate checks each supplied date. The ordering of a half-supplied range is
// enforced by the bookings_dates_check constraint.
func (p *BookingPatch) Validate() error {
	if p.CheckInDate == nil && p.CheckOutDate == nil {
		return Invalid("Nothing to update")
	}
	if p.CheckInDate != nil {
		if _, err := ParseDate(*p.CheckInDate); err != nil {
			return err
		}
	}
	if p.CheckOutDate != nil {
		if _, err := ParseDate(*p.CheckOutDate); err != nil {
			return err
		}
	}
	if p.CheckInDate != nil && p.CheckOutDate != nil {
		if _, err := Nights(*p.CheckInDate, *p.CheckOutDate); err != nil {
			return err
		}
	}
	return nil
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, Invalid("Invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Nights returns the number of nights between check-in and check-out.
func Nights(checkIn, checkOut string) (int, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return 0, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return 0, err
	}
	if !out.After(in) {
		return 0, Invalid("check_out_date must be after check_in_date")
	}
	return int(out.Sub(in).Hours() / 24), nil
}

// TotalPrice is the nightly price times the number of nights, rounded to cents.
func TotalPrice(pricePerNight float64, nights int) float64 {
	cents := int64(pricePerNight*100+0.5) * int64(nights)
	return float64(cents) / 100
}
