package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plantwatch/plantwatch/internal/database"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectUser = `
	SELECT id, username, gmail, password, expo_token, created_at
	FROM users
`

// FindByID retrieves a user by internal ID.
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	return r.scanUser(ctx, selectUser+" WHERE id = $1", id)
}

// FindByUsername retrieves a user by username.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	return r.scanUser(ctx, selectUser+" WHERE username = $1", username)
}

// scanUser scans a single user from a query.
func (r *PostgresRepository) scanUser(ctx context.Context, query string, args ...interface{}) (*User, error) {
	var u User

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Username,
		&u.Gmail,
		&u.PasswordHash,
		&u.ExpoToken,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &u, nil
}

// ExistsByUsernameOrGmail reports whether any user has the username or the gmail.
func (r *PostgresRepository) ExistsByUsernameOrGmail(ctx context.Context, username, gmail string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR gmail = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, username, gmail).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}

	return exists, nil
}

// Create inserts a user and sets its ID and CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (username, gmail, password, expo_token)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, u.Username, u.Gmail, u.PasswordHash, u.ExpoToken).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// UpdateExpoToken replaces the stored push token of a user.
func (r *PostgresRepository) UpdateExpoToken(ctx context.Context, id int64, expoToken string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET expo_token = $2 WHERE id = $1`, id, expoToken)
	if err != nil {
		return fmt.Errorf("update expo token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}
