package service

import (
	"context"
	"fmt"

	"github.com/storkforge/petconnect/internal/domain/entity"
	"github.com/storkforge/petconnect/internal/domain/utils/validator"
)

type UserStorage interface {
	Create(ctx context.Context, user *entity.User) (*entity.User, error)
	Get(ctx context.Context, id string) (*entity.User, error)
	GetMany(ctx context.Context, ids []string) ([]entity.User, error)
	Update(ctx context.Context, user *entity.User) (*entity.User, error)
}

type UserService struct {
	userStorage UserStorage
}

func NewUserService(userStorage UserStorage) *UserService {
	return &UserService{
		userStorage: userStorage,
	}
}

func (s *UserService) Create(ctx context.Context, user entity.User) (*entity.User, error) {
	if err := validateContact(user.Email, user.Phone); err != nil {
		return nil, err
	}
	return s.userStorage.Create(ctx, &user)
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	return s.userStorage.Get(ctx, id)
}

func (s *UserService) GetMany(ctx context.Context, ids []string) ([]entity.User, error) {
	return s.userStorage.GetMany(ctx, ids)
}

// UpdateContact replaces the addresses reminders are delivered to.
// An empty value removes the address for that channel.
func (s *UserService) UpdateContact(ctx context.Context, id, email, phone string) (*entity.User, error) {
	if err := validateContact(email, phone); err != nil {
		return nil, err
	}
	user, err := s.userStorage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Email = email
	user.Phone = phone
	return s.userStorage.Update(ctx, user)
}

func validateContact(email, phone string) error {
	if email != "" && !validator.Email(email) {
		return fmt.Errorf("invalid email address %q", email)
	}
	if phone != "" && !validator.Phone(phone) {
		return fmt.Errorf("invalid phone number %q", phone)
	}
	return nil
}
