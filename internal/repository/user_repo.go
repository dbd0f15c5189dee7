package repository

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository defines methods for accessing user accounts.
type UserRepository interface {
	// CreateUser inserts a new account. Returns ErrDuplicate if the email is taken.
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]model.User, int, error)
	// UpdateProfile replaces name and email. Returns nil when the user does not exist.
	UpdateProfile(ctx context.Context, id, name, email string) (*model.User, error)
	// UpdateAccess changes role and/or active flag; nil arguments are left untouched.
	UpdateAccess(ctx context.Context, id string, role *string, isActive *bool) (*model.User, error)
	// BumpTokenVersion invalidates every session token issued so far for the user.
	BumpTokenVersion(ctx context.Context, id string) (int, error)
	SetStripeCustomerID(ctx context.Context, id, customerID string) error
	DeleteUser(ctx context.Context, id string) error
	PromoteByEmail(ctx context.Context, email string) error
}

type userRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo creates a new UserRepository.
func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

const userColumns = `
	id, name, email, password_hash, role, is_active,
	stripe_customer_id, stripe_subscription_id, stripe_price_id, stripe_current_period_end,
	token_version, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.IsActive,
		&u.StripeCustomerID,
		&u.StripeSubscriptionID,
		&u.StripePriceID,
		&u.StripeCurrentPeriodEnd,
		&u.TokenVersion,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) CreateUser(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns
	created, err := scanUser(r.pool.QueryRow(ctx, query, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.IsActive))
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return ErrDuplicate
		}
		return fmt.Errorf("creating user %s: %w", u.Email, err)
	}
	*u = *created
	return nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return u, nil
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns a page of users, newest first, with the total count.
func (r *userRepo) ListUsers(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating user rows: %w", err)
	}
	return users, total, nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, id, name, email string) (*model.User, error) {
	query := `
		UPDATE users
		SET name = $2, email = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, query, id, name, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isPgError(err, pgUniqueViolation) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("updating profile for user %s: %w", id, err)
	}
	return u, nil
}

func (r *userRepo) UpdateAccess(ctx context.Context, id string, role *string, isActive *bool) (*model.User, error) {
	query := `
		UPDATE users
		SET role = COALESCE($2, role),
		    is_active = COALESCE($3, is_active),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, query, id, role, isActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating access for user %s: %w", id, err)
	}
	return u, nil
}

func (r *userRepo) BumpTokenVersion(ctx context.Context, id string) (int, error) {
	var version int
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING token_version`, id).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("bumping token version for user %s: %w", id, err)
	}
	return version, nil
}

func (r *userRepo) SetStripeCustomerID(ctx context.Context, id, customerID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET stripe_customer_id = $2, updated_at = NOW() WHERE id = $1`, id, customerID)
	if err != nil {
		return fmt.Errorf("setting stripe customer for user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the account; owned rows go with it through ON DELETE CASCADE.
func (r *userRepo) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) PromoteByEmail(ctx context.Context, email string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = 'admin', updated_at = NOW() WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("promoting user %s: %w", email, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
