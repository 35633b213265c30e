package models

// UserProfile is the caller's own account as returned by GET /user.
type UserProfile struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Gmail     string    `json:"gmail"`
	CreatedAt Timestamp `json:"createdAt"`
}

// TokenResponse is returned by registration and login.
type TokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// UserResponse is returned by GET /user.
type UserResponse struct {
	Message string       `json:"message"`
	Usuario *UserProfile `json:"usuario"`
	Token   *string      `json:"token"`
}
