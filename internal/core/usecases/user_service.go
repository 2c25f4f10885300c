package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/jomondi/fleetpulse/internal/core/ports"
)

// UserService handles admin-dashboard account management.
type UserService struct {
	users ports.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(users ports.UserRepository) *UserService {
	return &UserService{users: users}
}

// List returns all dashboard accounts.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// GetByID returns a single account.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// Save validates and upserts an account.
func (s *UserService) Save(ctx context.Context, u *domain.User) error {
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("invalid email %q", u.Email)
	}
	switch u.Role {
	case "admin", "operator", "viewer":
	case "":
		u.Role = "viewer"
	default:
		return fmt.Errorf("unknown role %q", u.Role)
	}
	return s.users.Upsert(ctx, u)
}
