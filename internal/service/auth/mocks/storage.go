package mocks

import (
	"context"
	"time"

	"locamat/internal/models"

	"github.com/stretchr/testify/mock"
)

type UserStorage struct {
	mock.Mock
}

func (m *UserStorage) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *UserStorage) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *UserStorage) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	args := m.Called(ctx, jti, expiresAt)
	return args.Error(0)
}

func (m *UserStorage) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

type CartResetter struct {
	mock.Mock
}

func (m *CartResetter) Reset(ctx context.Context) {
	m.Called(ctx)
}
