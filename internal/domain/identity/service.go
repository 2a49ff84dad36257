package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nutriflow/nutriflow/internal/platform/auth"
	"github.com/nutriflow/nutriflow/internal/platform/db"
	"github.com/nutriflow/nutriflow/internal/platform/metrics"
)

var (
	ErrMissingCredentials = errors.New("Email and password are required")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrUserNotFound       = errors.New("User not found")
)

// TokenIssuer signs access tokens. *auth.TokenIssuer satisfies it.
type TokenIssuer interface {
	Issue(user auth.AuthUser) (string, error)
}

type Service struct {
	users   UserRepository
	tokens  TokenIssuer
	metrics *metrics.Metrics
}

func NewService(users UserRepository, tokens TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens}
}

func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Login checks the password of the user with email and returns a signed token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrMissingCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		s.metrics.ObserveLogin("invalid")
		return "", ErrInvalidCredentials
	}
	if err != nil {
		s.metrics.ObserveLogin("error")
		return "", fmt.Errorf("load user: %w", err)
	}
	if u.HashedPassword == "" {
		s.metrics.ObserveLogin("invalid")
		return "", ErrInvalidCredentials
	}
	if err := auth.CheckPassword(u.HashedPassword, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.metrics.ObserveLogin("invalid")
			return "", ErrInvalidCredentials
		}
		s.metrics.ObserveLogin("error")
		return "", err
	}

	token, err := s.tokens.Issue(u.AuthUser())
	if err != nil {
		s.metrics.ObserveLogin("error")
		return "", err
	}
	s.metrics.ObserveLogin("success")
	return token, nil
}

// Me returns the public profile of the authenticated user.
func (s *Service) Me(ctx context.Context, user auth.AuthUser) (*Me, error) {
	id, err := uuid.Parse(user.ID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &Me{ID: u.ID, Email: u.Email, Name: u.Name}, nil
}

// EnsureUser creates or updates the account with u.Email and sets its password.
// Used by seeding.
func (s *Service) EnsureUser(ctx context.Context, u *User, password string) error {
	if u.Email == "" || password == "" {
		return ErrMissingCredentials
	}
	if u.Role == "" {
		u.Role = auth.RoleNutritionist
	}
	if !u.Role.Valid() {
		return fmt.Errorf("user %s: unknown role %q", u.Email, u.Role)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	u.HashedPassword = hash
	return s.users.Upsert(ctx, u)
}
