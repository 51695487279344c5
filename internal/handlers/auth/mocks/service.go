package mocks

import (
	"context"

	"locamat/internal/models"

	"github.com/stretchr/testify/mock"
)

type AuthService struct {
	mock.Mock
}

func (m *AuthService) SignUp(ctx context.Context, email, password, fullName string) (models.Session, error) {
	args := m.Called(ctx, email, password, fullName)
	return args.Get(0).(models.Session), args.Error(1)
}

func (m *AuthService) SignInWithPassword(ctx context.Context, email, password string) (models.Session, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(models.Session), args.Error(1)
}

func (m *AuthService) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *AuthService) Session(ctx context.Context) (models.Session, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Session), args.Error(1)
}
