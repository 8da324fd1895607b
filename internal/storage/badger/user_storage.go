package badger

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/imunetrack/internal/interfaces"
	"github.com/ternarybob/imunetrack/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// UserStorage implements interfaces.UserStorage for Badger
type UserStorage struct {
	m *Manager
}

// ListUsers returns all users ordered by id
func (s *UserStorage) ListUsers(ctx context.Context) ([]*models.Usuario, error) {
	var users []models.Usuario
	if err := s.m.store.Find(&users, all()); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	result := make([]*models.Usuario, len(users))
	for i := range users {
		result[i] = &users[i]
	}
	return result, nil
}

// GetUser returns the user with the given id
func (s *UserStorage) GetUser(ctx context.Context, id int) (*models.Usuario, error) {
	var user models.Usuario
	err := s.m.store.Get(id, &user)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail looks a user up by email (case-insensitive)
func (s *UserStorage) GetUserByEmail(ctx context.Context, email string) (*models.Usuario, error) {
	var users []models.Usuario
	query := badgerhold.Where("Email").MatchFunc(func(ra *badgerhold.RecordAccess) (bool, error) {
		stored, ok := ra.Field().(string)
		return ok && strings.EqualFold(stored, email), nil
	}).SortBy("ID")
	if err := s.m.store.Find(&users, query); err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return &users[0], nil
}

// CreateUser assigns the next id and stores the user
func (s *UserStorage) CreateUser(ctx context.Context, user *models.Usuario) error {
	s.m.writes.Lock()
	defer s.m.writes.Unlock()

	if _, err := s.GetUserByEmail(ctx, user.Email); err == nil {
		return interfaces.ErrConflict
	} else if err != interfaces.ErrNotFound {
		return err
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		return err
	}
	user.ID = 1
	if len(users) > 0 {
		user.ID = users[len(users)-1].ID + 1
	}

	if err := s.m.store.Insert(user.ID, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateUser replaces a stored user
func (s *UserStorage) UpdateUser(ctx context.Context, user *models.Usuario) error {
	s.m.writes.Lock()
	defer s.m.writes.Unlock()

	existing, err := s.GetUserByEmail(ctx, user.Email)
	if err == nil && existing.ID != user.ID {
		return interfaces.ErrConflict
	} else if err != nil && err != interfaces.ErrNotFound {
		return err
	}

	err = s.m.store.Update(user.ID, user)
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// DeleteUser removes a user
func (s *UserStorage) DeleteUser(ctx context.Context, id int) error {
	err := s.m.store.Delete(id, &models.Usuario{})
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
