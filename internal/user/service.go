package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/plantwatch/plantwatch/internal/api/models"
	"github.com/plantwatch/plantwatch/internal/auth"
)

// ErrIncorrectPassword is returned by Login when the password does not match.
var ErrIncorrectPassword = errors.New("incorrect password")

// Service provides account registration, login and profile operations.
type Service struct {
	repo   Repository
	tokens *auth.JWTService
	hasher *auth.PasswordHasher
}

// NewService creates a new user service.
func NewService(repo Repository, tokens *auth.JWTService, hasher *auth.PasswordHasher) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		hasher: hasher,
	}
}

// Register creates an account and returns a bearer token for it.
// The existence check is an early exit; the store's unique constraints decide.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (string, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return "", &models.ValidationError{Errors: errs}
	}

	exists, err := s.repo.ExistsByUsernameOrGmail(ctx, req.Username, req.Gmail)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrUserExists
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return "", err
	}

	u := &User{
		Username:     req.Username,
		Gmail:        req.Gmail,
		PasswordHash: hash,
		ExpoToken:    req.TokenExpo,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return "", err
	}

	return s.issue(u)
}

// Login verifies credentials, records the presented push token when it
// changed, and returns a bearer token embedding it.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (string, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return "", &models.ValidationError{Errors: errs}
	}

	u, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		return "", err
	}

	if err := s.hasher.Compare(u.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return "", ErrIncorrectPassword
		}
		return "", err
	}

	if u.ExpoToken == nil || *u.ExpoToken != req.TokenExpo {
		if err := s.repo.UpdateExpoToken(ctx, u.ID, req.TokenExpo); err != nil {
			return "", err
		}
		token := req.TokenExpo
		u.ExpoToken = &token
	}

	return s.issue(u)
}

// GetSelf returns the profile of the account with the given ID.
func (s *Service) GetSelf(ctx context.Context, id int64) (*models.UserProfile, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.UserProfile{
		ID:        u.ID,
		Username:  u.Username,
		Gmail:     u.Gmail,
		CreatedAt: models.Timestamp(u.CreatedAt),
	}, nil
}

func (s *Service) issue(u *User) (string, error) {
	token, _, err := s.tokens.Issue(auth.Claims{
		UserID:    u.ID,
		Username:  u.Username,
		Gmail:     u.Gmail,
		TokenExpo: u.ExpoToken,
	})
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
