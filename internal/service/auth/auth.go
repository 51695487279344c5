package authservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"locamat/internal/auth"
	databaseerrors "locamat/internal/database"
	"locamat/internal/models"
	"locamat/internal/notify"
	serviceerrors "locamat/internal/service"
	"locamat/pkg/lib/logger/sl"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// SessionSlotKey names the slot the signed-in session is kept under.
const SessionSlotKey = "session"

type UserStorage interface {
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

type Slot interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// CartResetter empties the local cart when the user signs out.
type CartResetter interface {
	Reset(ctx context.Context)
}

type registration struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	FullName string `validate:"required"`
}

type AuthService struct {
	log      *slog.Logger
	storage  UserStorage
	issuer   *auth.Issuer
	slot     Slot
	cart     CartResetter
	notifier notify.Notifier
	validate *validator.Validate
	cost     int

	mu      sync.RWMutex
	current *models.Session
}

func New(log *slog.Logger, storage UserStorage, issuer *auth.Issuer, slot Slot, cart CartResetter, notifier notify.Notifier) *AuthService {
	return &AuthService{
		log:      log,
		storage:  storage,
		issuer:   issuer,
		slot:     slot,
		cart:     cart,
		notifier: notifier,
		validate: validator.New(),
		cost:     bcrypt.DefaultCost,
	}
}

// WithCost sets the bcrypt cost used for new passwords.
func (s *AuthService) WithCost(cost int) *AuthService {
	s.cost = cost
	return s
}

// Restore loads the session kept from a previous run. It is checked again on
// every call to Session.
func (s *AuthService) Restore(ctx context.Context) {
	const op = "service.auth.Restore"
	log := s.log.With("op", op)

	raw, err := s.slot.Get(ctx, SessionSlotKey)
	if err != nil {
		if !errors.Is(err, databaseerrors.ErrNotFound) {
			log.Warn("Failed to read stored session", sl.Err(err))
		}
		return
	}

	var session models.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil || session.AccessToken == "" {
		log.Warn("Discarding malformed stored session")
		s.forget(ctx)
		return
	}

	s.mu.Lock()
	s.current = &session
	s.mu.Unlock()
	log.Info("Session restored", "user_id", session.User.Id)
}

// SignUp creates an account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, email, password, fullName string) (models.Session, error) {
	const op = "service.auth.SignUp"
	log := s.log.With("op", op)

	req := registration{
		Email:    normalizeEmail(email),
		Password: password,
		FullName: strings.TrimSpace(fullName),
	}
	if err := s.validate.Struct(req); err != nil {
		log.Info("Registration rejected", sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, registrationError(err))
	}
	if err := serviceerrors.CheckContext(ctx); err != nil {
		log.Warn("Context is over", sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		log.Error("Failed to hash password", sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.CreateUser(ctx, models.User{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(hash),
	})
	if err != nil {
		return models.Session{}, serviceerrors.Report(log, op, "Failed to create user", err)
	}

	session, err := s.open(ctx, user)
	if err != nil {
		log.Error("Failed to open session", sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("User registered", "user_id", user.Id)
	s.notifier.Notify(notify.LevelSuccess, "Account created")
	return session, nil
}

func (s *AuthService) SignInWithPassword(ctx context.Context, email, password string) (models.Session, error) {
	const op = "service.auth.SignInWithPassword"
	log := s.log.With("op", op)

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return models.Session{}, fmt.Errorf("%s: %w", op, serviceerrors.NewValidation("email and password are required"))
	}
	if err := serviceerrors.CheckContext(ctx); err != nil {
		log.Warn("Context is over", sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		err = serviceerrors.Report(log, op, "Failed to look up user", err)
		if errors.Is(err, serviceerrors.ErrNotFound) {
			return models.Session{}, fmt.Errorf("%s: %w", op, serviceerrors.ErrUnauthorized)
		}
		return models.Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn("Wrong password", "user_id", user.Id)
		return models.Session{}, fmt.Errorf("%s: %w", op, serviceerrors.ErrUnauthorized)
	}

	session, err := s.open(ctx, user)
	if err != nil {
		log.Error("Failed to open session", sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("User signed in", "user_id", user.Id)
	s.notifier.Notify(notify.LevelSuccess, "Signed in")
	return session, nil
}

// SignOut revokes the current token, forgets the session and empties the
// cart. Local state is cleared even when revocation fails.
func (s *AuthService) SignOut(ctx context.Context) error {
	const op = "service.auth.SignOut"
	log := s.log.With("op", op)

	s.mu.Lock()
	current := s.current
	s.current = nil
	s.mu.Unlock()

	if current != nil {
		if claims, err := s.issuer.Validate(current.AccessToken); err == nil {
			if err := s.storage.RevokeToken(ctx, claims.ID, current.ExpiresAt); err != nil {
				log.Warn("Failed to revoke token", sl.Err(err))
			}
		}
	}

	s.forget(ctx)
	s.cart.Reset(ctx)

	log.Info("User signed out")
	s.notifier.Notify(notify.LevelInfo, "Signed out")
	return nil
}

// Session returns the signed-in session. An expired or revoked token is
// dropped and reported as ErrUnauthorized.
func (s *AuthService) Session(ctx context.Context) (models.Session, error) {
	const op = "service.auth.Session"
	log := s.log.With("op", op)

	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current == nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, serviceerrors.ErrUnauthorized)
	}

	claims, err := s.issuer.Validate(current.AccessToken)
	if err != nil {
		log.Info("Dropping invalid session", sl.Err(err))
		s.drop(ctx, current)
		return models.Session{}, fmt.Errorf("%s: %w", op, serviceerrors.ErrUnauthorized)
	}

	revoked, err := s.storage.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return models.Session{}, serviceerrors.Report(log, op, "Failed to check token", err)
	}
	if revoked {
		log.Info("Dropping revoked session", "user_id", claims.UserID)
		s.drop(ctx, current)
		return models.Session{}, fmt.Errorf("%s: %w", op, serviceerrors.ErrUnauthorized)
	}

	return *current, nil
}

func (s *AuthService) open(ctx context.Context, user models.User) (models.Session, error) {
	token, claims, err := s.issuer.Generate(user.Id, user.Email)
	if err != nil {
		return models.Session{}, err
	}

	user.PasswordHash = ""
	session := models.Session{
		AccessToken: token,
		User:        user,
		ExpiresAt:   claims.ExpiresAt.Time,
	}

	s.mu.Lock()
	s.current = &session
	s.mu.Unlock()

	raw, err := json.Marshal(session)
	if err == nil {
		err = s.slot.Put(context.WithoutCancel(ctx), SessionSlotKey, string(raw))
	}
	if err != nil {
		s.log.Warn("Failed to keep session", sl.Err(err))
	}

	return session, nil
}

// drop forgets current unless another session replaced it meanwhile.
func (s *AuthService) drop(ctx context.Context, current *models.Session) {
	s.mu.Lock()
	if s.current != current {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.mu.Unlock()

	s.forget(ctx)
}

func (s *AuthService) forget(ctx context.Context) {
	if err := s.slot.Delete(context.WithoutCancel(ctx), SessionSlotKey); err != nil {
		s.log.Warn("Failed to delete stored session", sl.Err(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func registrationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return serviceerrors.NewValidation(err.Error())
	}

	switch fe := verrs[0]; {
	case fe.Field() == "Email" && fe.Tag() == "email":
		return serviceerrors.NewValidation("email is not valid")
	case fe.Field() == "Password" && fe.Tag() == "min":
		return serviceerrors.NewValidation("password must be at least 6 characters")
	case fe.Field() == "FullName":
		return serviceerrors.NewValidation("full name is required")
	default:
		return serviceerrors.NewValidation(strings.ToLower(fe.Field()) + " is required")
	}
}
