package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/solarml/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type UsersRepo struct {
	pool *pgxpool.Pool
}

func NewUsersRepo(pool *pgxpool.Pool) *UsersRepo {
	return &UsersRepo{pool: pool}
}

const userColumns = `id, fullname, email, password_hash, phone_number, is_verified, otp, otp_expiry, created_at, updated_at`

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+userColumns+`
         FROM users
         WHERE email = $1`,
		email,
	)

	return scanUser(row)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+userColumns+`
         FROM users
         WHERE id = $1`,
		id,
	)

	return scanUser(row)
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO users (id, fullname, email, password_hash, phone_number, is_verified, otp, otp_expiry, created_at, updated_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		u.ID, u.Fullname, u.Email, u.PasswordHash, nullable(u.PhoneNumber),
		u.IsVerified, u.OTP, u.OTPExpiry, u.CreatedAt, u.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError

		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.ErrEmailTaken
		}

		return err
	}

	return nil
}

// Save persists in-place mutations of an existing record.
func (r *UsersRepo) Save(ctx context.Context, u user.User) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE users
         SET fullname = $2,
             email = $3,
             password_hash = $4,
             phone_number = $5,
             is_verified = $6,
             otp = $7,
             otp_expiry = $8,
             updated_at = $9
         WHERE id = $1`,
		u.ID, u.Fullname, u.Email, u.PasswordHash, nullable(u.PhoneNumber),
		u.IsVerified, u.OTP, u.OTPExpiry, u.UpdatedAt,
	)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}

	return nil
}

// DeleteUnverifiedByEmail removes the record only while it is unverified. A
// verified record (or a missing one) reports ErrNotFound.
func (r *UsersRepo) DeleteUnverifiedByEmail(ctx context.Context, email string) error {
	tag, err := r.pool.Exec(
		ctx,
		`DELETE FROM users
         WHERE email = $1 AND is_verified = FALSE`,
		email,
	)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}

	return nil
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var phone *string

	err := row.Scan(
		&u.ID,
		&u.Fullname,
		&u.Email,
		&u.PasswordHash,
		&phone,
		&u.IsVerified,
		&u.OTP,
		&u.OTPExpiry,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	if phone != nil {
		u.PhoneNumber = *phone
	}

	return u, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
