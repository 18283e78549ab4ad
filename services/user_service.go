package services

import (
	"context"
	"fmt"

	"habitsAPI/internal/logger"
	"habitsAPI/internal/store"
)

// UserService handles account-level operations driven by the identity
// provider.
type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

// DeleteUserData removes every habit and log owned by uid.
func (s *UserService) DeleteUserData(ctx context.Context, uid string) error {
	if uid == "" {
		return ErrUnauthenticated
	}
	if err := s.store.DeleteUserData(ctx, uid); err != nil {
		return fmt.Errorf("failed to delete user data: %w", err)
	}
	logger.Info("user data deleted", "uid", uid)
	return nil
}
