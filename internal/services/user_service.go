package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/vocabmaster/quiz-service/internal/repositories"
)

// UserService handles the simulated sign-in: no credentials, just an email
// that keys the stats and survives restarts through the last-user slot.
type UserService interface {
	Login(ctx context.Context, email string) (string, error)
	CurrentUser(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}

type userService struct {
	lastUser repositories.LastUserRepository
	logger   *slog.Logger
}

func NewUserService(lastUser repositories.LastUserRepository, logger *slog.Logger) UserService {
	return &userService{lastUser: lastUser, logger: logger}
}

// Login normalizes and remembers the email. The returned value is the
// normalized form callers should use for all subsequent stats lookups.
func (s *userService) Login(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email address", ErrValidationFailed)
	}

	if err := s.lastUser.Set(ctx, email); err != nil {
		// Losing the restore slot is not worth failing the login.
		s.logger.Warn("Failed to remember last user", "email", email, "error", err)
	}

	s.logger.Info("User logged in", "email", email)
	return email, nil
}

// CurrentUser returns the last logged-in email, or "" when nobody is
// signed in.
func (s *userService) CurrentUser(ctx context.Context) (string, error) {
	email, err := s.lastUser.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load current user: %w", err)
	}
	return email, nil
}

func (s *userService) Logout(ctx context.Context) error {
	if err := s.lastUser.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear current user: %w", err)
	}
	return nil
}
