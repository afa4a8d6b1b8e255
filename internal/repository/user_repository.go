package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tour-booking-service/internal/domain"
)

// UserRepository defines persistence access for accounts. Every lookup used
// by the auth subsystem excludes soft-deleted (inactive) rows.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByResetDigest matches an unexpired reset digest; a past expiry is
	// treated as no row regardless of storage state.
	GetByResetDigest(ctx context.Context, digest string, now time.Time) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
	// UpdateCredentials persists hash, watermark and reset state in one
	// atomic statement.
	UpdateCredentials(ctx context.Context, user *domain.User) error
	SetResetToken(ctx context.Context, id, digest string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*domain.User, error)
}

const userColumns = `id, name, email, photo, role, password_hash,
        password_changed_at, password_reset_digest, password_reset_expires_at,
        active, created_at, updated_at`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, name, email, photo, role, password_hash, active)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Photo,
		user.Role,
		user.PasswordHash,
		user.Active,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users WHERE id=$1 AND active`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users WHERE email=$1 AND active`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) GetByResetDigest(ctx context.Context, digest string, now time.Time) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users
        WHERE password_reset_digest=$1 AND password_reset_expires_at > $2 AND active`
	return r.scanOne(r.pool.QueryRow(ctx, query, digest, now))
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, photo=$3, updated_at=NOW()
        WHERE id=$4 AND active`
	return r.exec(ctx, query, user.Name, user.Email, user.Photo, user.ID)
}

func (r *userRepository) UpdateCredentials(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users
        SET password_hash=$1, password_changed_at=$2,
            password_reset_digest=$3, password_reset_expires_at=$4,
            updated_at=NOW()
        WHERE id=$5 AND active`
	return r.exec(ctx, query,
		user.PasswordHash,
		user.PasswordChangedAt,
		user.PasswordResetDigest,
		user.PasswordResetExpiresAt,
		user.ID,
	)
}

func (r *userRepository) SetResetToken(ctx context.Context, id, digest string, expiresAt time.Time) error {
	const query = `
        UPDATE users
        SET password_reset_digest=$1, password_reset_expires_at=$2, updated_at=NOW()
        WHERE id=$3 AND active`
	return r.exec(ctx, query, digest, expiresAt, id)
}

func (r *userRepository) ClearResetToken(ctx context.Context, id string) error {
	const query = `
        UPDATE users
        SET password_reset_digest=NULL, password_reset_expires_at=NULL, updated_at=NOW()
        WHERE id=$1`
	return r.exec(ctx, query, id)
}

func (r *userRepository) Deactivate(ctx context.Context, id string) error {
	const query = `
        UPDATE users SET active=FALSE, updated_at=NOW()
        WHERE id=$1 AND active`
	return r.exec(ctx, query, id)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users WHERE active ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) scanOne(row pgx.Row) (*domain.User, error) {
	return scanUser(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Photo,
		&user.Role,
		&user.PasswordHash,
		&user.PasswordChangedAt,
		&user.PasswordResetDigest,
		&user.PasswordResetExpiresAt,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
