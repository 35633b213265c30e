package user

import "context"

// Repository defines the interface for user persistence.
type Repository interface {
	// FindByID retrieves a user by internal ID.
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByUsername retrieves a user by username.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// ExistsByUsernameOrGmail reports whether any user has the username or the gmail.
	ExistsByUsernameOrGmail(ctx context.Context, username, gmail string) (bool, error)

	// Create inserts a user and sets its ID and CreatedAt.
	// Returns ErrUserExists if the username or gmail is taken.
	Create(ctx context.Context, user *User) error

	// UpdateExpoToken replaces the stored push token of a user.
	UpdateExpoToken(ctx context.Context, id int64, expoToken string) error
}
