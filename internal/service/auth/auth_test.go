package authservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"locamat/internal/auth"
	databaseerrors "locamat/internal/database"
	"locamat/internal/database/sqlite"
	"locamat/internal/models"
	"locamat/internal/notify"
	serviceerrors "locamat/internal/service"
	authservice "locamat/internal/service/auth"
	"locamat/internal/service/auth/mocks"
	"locamat/pkg/lib/logger/slogdiscard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const userID = "a1d2c3b4-5e6f-4a8b-9c0d-1e2f3a4b5c6d"

type memSlot map[string]string

func (m memSlot) Get(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", databaseerrors.ErrNotFound
	}
	return v, nil
}

func (m memSlot) Put(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func (m memSlot) Delete(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

type fixture struct {
	storage *mocks.UserStorage
	cart    *mocks.CartResetter
	slot    memSlot
	svc     *authservice.AuthService
}

func newFixture(ttl time.Duration) *fixture {
	f := &fixture{
		storage: new(mocks.UserStorage),
		cart:    new(mocks.CartResetter),
		slot:    memSlot{},
	}
	f.svc = f.newService(ttl)
	return f
}

func (f *fixture) newService(ttl time.Duration) *authservice.AuthService {
	logger := slogdiscard.NewDiscardLogger()
	return authservice.New(logger, f.storage, auth.NewIssuer("test-secret", ttl), f.slot, f.cart, notify.NewFeed(logger, 0)).
		WithCost(bcrypt.MinCost)
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestSignUp(t *testing.T) {
	f := newFixture(time.Hour)

	f.storage.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "ana@example.com" && u.FullName == "Ana Lima" &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")) == nil
	})).Return(models.User{Id: userID, Email: "ana@example.com", FullName: "Ana Lima", PasswordHash: "h"}, nil)

	session, err := f.svc.SignUp(context.Background(), " Ana@Example.com ", "secret1", "Ana Lima")
	require.NoError(t, err)
	assert.Equal(t, userID, session.User.Id)
	assert.Empty(t, session.User.PasswordHash)
	assert.NotEmpty(t, session.AccessToken)
	assert.Contains(t, f.slot, authservice.SessionSlotKey)
	f.storage.AssertExpectations(t)
}

func TestSignUp_Validation(t *testing.T) {
	tests := []struct {
		name, email, password, fullName, msg string
	}{
		{"bad email", "nope", "secret1", "Ana", "email is not valid"},
		{"short password", "ana@example.com", "123", "Ana", "at least 6"},
		{"no name", "ana@example.com", "secret1", "  ", "full name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(time.Hour)
			_, err := f.svc.SignUp(context.Background(), tt.email, tt.password, tt.fullName)
			require.ErrorIs(t, err, serviceerrors.ErrValidation)
			assert.Contains(t, err.Error(), tt.msg)
			f.storage.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
		})
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	f := newFixture(time.Hour)
	f.storage.On("CreateUser", mock.Anything, mock.Anything).Return(models.User{}, databaseerrors.ErrAlreadyExists)

	_, err := f.svc.SignUp(context.Background(), "ana@example.com", "secret1", "Ana")
	assert.ErrorIs(t, err, serviceerrors.ErrAlreadyExists)
}

func TestSignInAndSession(t *testing.T) {
	f := newFixture(time.Hour)
	f.storage.On("GetUserByEmail", mock.Anything, "ana@example.com").
		Return(models.User{Id: userID, Email: "ana@example.com", PasswordHash: hashed(t, "secret1")}, nil)
	f.storage.On("IsTokenRevoked", mock.Anything, mock.Anything).Return(false, nil)

	_, err := f.svc.Session(context.Background())
	assert.ErrorIs(t, err, serviceerrors.ErrUnauthorized)

	signedIn, err := f.svc.SignInWithPassword(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)

	current, err := f.svc.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, signedIn.AccessToken, current.AccessToken)
	assert.Equal(t, userID, current.User.Id)
}

func TestSignIn_WrongCredentials(t *testing.T) {
	f := newFixture(time.Hour)
	f.storage.On("GetUserByEmail", mock.Anything, "ana@example.com").
		Return(models.User{Id: userID, PasswordHash: hashed(t, "secret1")}, nil)
	f.storage.On("GetUserByEmail", mock.Anything, "nobody@example.com").
		Return(models.User{}, databaseerrors.ErrNotFound)

	_, err := f.svc.SignInWithPassword(context.Background(), "ana@example.com", "wrong")
	assert.ErrorIs(t, err, serviceerrors.ErrUnauthorized)

	_, err = f.svc.SignInWithPassword(context.Background(), "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, serviceerrors.ErrUnauthorized)

	_, err = f.svc.SignInWithPassword(context.Background(), "", "")
	assert.ErrorIs(t, err, serviceerrors.ErrValidation)
}

func TestSession_ExpiredTokenDropped(t *testing.T) {
	f := newFixture(-time.Minute)
	f.storage.On("GetUserByEmail", mock.Anything, "ana@example.com").
		Return(models.User{Id: userID, PasswordHash: hashed(t, "secret1")}, nil)

	_, err := f.svc.SignInWithPassword(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)

	_, err = f.svc.Session(context.Background())
	assert.ErrorIs(t, err, serviceerrors.ErrUnauthorized)
	assert.NotContains(t, f.slot, authservice.SessionSlotKey)
	f.storage.AssertNotCalled(t, "IsTokenRevoked", mock.Anything, mock.Anything)
}

func TestSignOut_RevokesAndResetsCart(t *testing.T) {
	f := newFixture(time.Hour)
	f.storage.On("GetUserByEmail", mock.Anything, "ana@example.com").
		Return(models.User{Id: userID, PasswordHash: hashed(t, "secret1")}, nil)
	f.storage.On("RevokeToken", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(errors.New("backend down"))
	f.cart.On("Reset", mock.Anything).Once()

	_, err := f.svc.SignInWithPassword(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, f.svc.SignOut(context.Background()))

	_, err = f.svc.Session(context.Background())
	assert.ErrorIs(t, err, serviceerrors.ErrUnauthorized)
	assert.NotContains(t, f.slot, authservice.SessionSlotKey)
	f.storage.AssertExpectations(t)
	f.cart.AssertExpectations(t)
}

func TestSession_RevokedElsewhere(t *testing.T) {
	f := newFixture(time.Hour)
	f.storage.On("GetUserByEmail", mock.Anything, "ana@example.com").
		Return(models.User{Id: userID, PasswordHash: hashed(t, "secret1")}, nil)
	f.storage.On("IsTokenRevoked", mock.Anything, mock.Anything).Return(true, nil)

	_, err := f.svc.SignInWithPassword(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)

	_, err = f.svc.Session(context.Background())
	assert.ErrorIs(t, err, serviceerrors.ErrUnauthorized)
}

func TestRestore_FromDurableSlot(t *testing.T) {
	slot, err := sqlite.New(context.Background(), slogdiscard.NewDiscardLogger(), ":memory:")
	require.NoError(t, err)
	defer slot.Close()

	storage := new(mocks.UserStorage)
	storage.On("GetUserByEmail", mock.Anything, "ana@example.com").
		Return(models.User{Id: userID, PasswordHash: hashed(t, "secret1")}, nil)
	storage.On("IsTokenRevoked", mock.Anything, mock.Anything).Return(false, nil)

	logger := slogdiscard.NewDiscardLogger()
	issuer := auth.NewIssuer("test-secret", time.Hour)
	first := authservice.New(logger, storage, issuer, slot, new(mocks.CartResetter), notify.NewFeed(logger, 0)).
		WithCost(bcrypt.MinCost)
	signedIn, err := first.SignInWithPassword(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)

	second := authservice.New(logger, storage, issuer, slot, new(mocks.CartResetter), notify.NewFeed(logger, 0))
	second.Restore(context.Background())

	restored, err := second.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, signedIn.AccessToken, restored.AccessToken)
}

func TestRestore_MalformedIsDiscarded(t *testing.T) {
	f := newFixture(time.Hour)
	f.slot[authservice.SessionSlotKey] = "{not json"

	f.svc.Restore(context.Background())

	_, err := f.svc.Session(context.Background())
	assert.ErrorIs(t, err, serviceerrors.ErrUnauthorized)
	assert.NotContains(t, f.slot, authservice.SessionSlotKey)
}
