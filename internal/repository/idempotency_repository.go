package repository

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdempotencyRepository remembers which booking a renter's Idempotency-Key produced.
type IdempotencyRepository interface {
	// Lookup returns the booking created earlier for this renter and key, or "".
	Lookup(ctx context.Context, userID, key string) (string, error)
	// Remember records bookingID for the key. An existing record wins.
	Remember(ctx context.Context, userID, key, bookingID string) error
	// CleanupExpired removes expired idempotency records
	CleanupExpired(ctx context.Context) (int64, error)
}

type idempotencyRepository struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewIdempotencyRepository(pool *pgxpool.Pool) IdempotencyRepository {
	return &idempotencyRepository{pool: pool, ttl: 24 * time.Hour}
}

// keyHash scopes the key to the renter so two users cannot collide.
func keyHash(userID, key string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(userID+":"+key)))
}

func (r *idempotencyRepository) Lookup(ctx context.Context, userID, key string) (string, error) {
	const q = `SELECT booking_id::text FROM booking_idempotency WHERE key_hash = $1 AND expires_at > now()`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var bookingID string
	err := r.pool.QueryRow(ctx, q, keyHash(userID, key)).Scan(&bookingID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return bookingID, nil
}

func (r *idempotencyRepository) Remember(ctx context.Context, userID, key, bookingID string) error {
	const q = `INSERT INTO booking_idempotency (key_hash, booking_id, expires_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (key_hash) DO NOTHING`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, keyHash(userID, key), bookingID, time.Now().Add(r.ttl))
	return err
}

func (r *idempotencyRepository) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, `DELETE FROM booking_idempotency WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
