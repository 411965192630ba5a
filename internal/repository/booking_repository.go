package repository

import (
	"context"
	"errors"
	"time"

	"github.com/diagnosis/bnb-marketplace/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	Create(ctx context.Context, renterID, propertyID, checkIn, checkOut string, totalPrice float64) (*domain.Booking, error)
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByRenter(ctx context.Context, renterID string) ([]domain.BookingWithProperty, error)
	ListByHost(ctx context.Context, hostID string) ([]domain.BookingWithProperty, error)
	UpdateDates(ctx context.Context, id, renterID string, patch domain.BookingPatch) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error)
	Delete(ctx context.Context, id, renterID string) (*domain.Booking, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `b.id::text, b.user_id::text, b.property_id::text,
b.check_in_date::text, b.check_out_date::text, b.total_price::float8,
b.status, b.created_at`

const bookingPropertyCols = `p.id::text, p.name, p.location, p.image_urls`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.PropertyID,
		&b.CheckInDate, &b.CheckOutDate, &b.TotalPrice,
		&b.Status, &b.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapPgError(err)
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, renterID, propertyID, checkIn, checkOut string, totalPrice float64) (*domain.Booking, error) {
	const q = `INSERT INTO bookings AS b (user_id, property_id, check_in_date, check_out_date, total_price, status)
	VALUES ($1, $2, $3::date, $4::date, $5, 'pending')
	RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q, renterID, propertyID, checkIn, checkOut, totalPrice))
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings b WHERE b.id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q, id))
}

func (r *bookingRepository) ListByRenter(ctx context.Context, renterID string) ([]domain.BookingWithProperty, error) {
	const q = `SELECT ` + bookingCols + `, ` + bookingPropertyCols + `
	FROM bookings b
	LEFT JOIN properties p ON p.id = b.property_id
	WHERE b.user_id = $1
	ORDER BY b.created_at DESC`

	return r.listWithProperty(ctx, q, renterID)
}

// ListByHost returns bookings on properties owned by hostID. Bookings whose
// property is gone cannot match the join and are left out.
func (r *bookingRepository) ListByHost(ctx context.Context, hostID string) ([]domain.BookingWithProperty, error) {
	const q = `SELECT ` + bookingCols + `, ` + bookingPropertyCols + `
	FROM bookings b
	JOIN properties p ON p.id = b.property_id
	WHERE p.user_id = $1
	ORDER BY b.created_at DESC`

	return r.listWithProperty(ctx, q, hostID)
}

func (r *bookingRepository) listWithProperty(ctx context.Context, q string, args ...any) ([]domain.BookingWithProperty, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	bookings := []domain.BookingWithProperty{}
	for rows.Next() {
		var (
			b                 domain.BookingWithProperty
			propID, name, loc *string
			images            []string
		)
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.PropertyID,
			&b.CheckInDate, &b.CheckOutDate, &b.TotalPrice,
			&b.Status, &b.CreatedAt,
			&propID, &name, &loc, &images,
		); err != nil {
			return nil, err
		}
		if propID != nil {
			b.Properties = &domain.BookingProperty{
				ID:        *propID,
				Name:      deref(name),
				Location:  deref(loc),
				ImageURLs: domain.NormalizeImageURLs(images),
			}
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// UpdateDates applies the patch to the renter's booking and reprices it from
// the property's current nightly rate. It returns nil when no row matched.
func (r *bookingRepository) UpdateDates(ctx context.Context, id, renterID string, patch domain.BookingPatch) (*domain.Booking, error) {
	const q = `UPDATE bookings AS b SET
		check_in_date  = COALESCE($3::date, b.check_in_date),
		check_out_date = COALESCE($4::date, b.check_out_date),
		total_price    = COALESCE(
			(SELECT p.price_per_night FROM properties p WHERE p.id = b.property_id)
				* (COALESCE($4::date, b.check_out_date) - COALESCE($3::date, b.check_in_date)),
			b.total_price)
	WHERE b.id = $1 AND b.user_id = $2
	RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q, id, renterID, patch.CheckInDate, patch.CheckOutDate))
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error) {
	const q = `UPDATE bookings AS b SET status = $2 WHERE b.id = $1 RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q, id, string(status)))
}

// Delete removes the renter's booking and returns the removed row, or nil when nothing matched.
func (r *bookingRepository) Delete(ctx context.Context, id, renterID string) (*domain.Booking, error) {
	const q = `DELETE FROM bookings AS b WHERE b.id = $1 AND b.user_id = $2 RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q, id, renterID))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
