package repository

import (
	"context"
	"errors"
	"time"

	"github.com/diagnosis/bnb-marketplace/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, email, passwordHash, name string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, req domain.ProfileUpdateRequest) (*domain.Profile, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `u.id::text, u.email, u.password_hash, u.created_at, p.id IS NOT NULL, p.name, p.bio`

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u          domain.User
		hasProfile bool
		name, bio  *string
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &hasProfile, &name, &bio)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapPgError(err)
	}
	if hasProfile {
		u.Profile = &domain.Profile{Name: name, Bio: bio}
	}
	return &u, nil
}

// Create inserts the user and its profile in one transaction.
func (r *userRepository) Create(ctx context.Context, email, passwordHash, name string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u domain.User
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const insertUser = `INSERT INTO users (email, password_hash) VALUES ($1, $2)
		RETURNING id::text, email, password_hash, created_at`
		if err := tx.QueryRow(ctx, insertUser, email, passwordHash).Scan(
			&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt,
		); err != nil {
			return err
		}

		var profileName *string
		if name != "" {
			profileName = &name
		}
		const insertProfile = `INSERT INTO profiles (id, name) VALUES ($1, $2)`
		if _, err := tx.Exec(ctx, insertProfile, u.ID, profileName); err != nil {
			return err
		}
		u.Profile = &domain.Profile{Name: profileName}
		return nil
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return &u, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users u LEFT JOIN profiles p ON p.id = u.id WHERE u.email = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users u LEFT JOIN profiles p ON p.id = u.id WHERE u.id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, q, id))
}

// UpdateProfile sets the supplied fields and keeps the others. It returns nil
// when the user has no profile row.
func (r *userRepository) UpdateProfile(ctx context.Context, id string, req domain.ProfileUpdateRequest) (*domain.Profile, error) {
	const q = `UPDATE profiles SET
		name = COALESCE($2, name),
		bio = COALESCE($3, bio),
		updated_at = now()
	WHERE id = $1
	RETURNING name, bio`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.Profile
	err := r.pool.QueryRow(ctx, q, id, req.Name, req.Bio).Scan(&p.Name, &p.Bio)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapPgError(err)
	}
	return &p, nil
}
