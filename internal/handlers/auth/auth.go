package authhandler

import (
	"context"
	"log/slog"
	"net/http"

	"locamat/internal/handlers"
	"locamat/internal/models"
	"locamat/pkg/lib/logger/sl"
)

type AuthService interface {
	SignUp(ctx context.Context, email, password, fullName string) (models.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (models.Session, error)
	SignOut(ctx context.Context) error
	Session(ctx context.Context) (models.Session, error)
}

type Handler struct {
	log     *slog.Logger
	service AuthService
}

func New(log *slog.Logger, service AuthService) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/signup
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.SignUp"
	log := h.log.With("op", op)

	var req signUpRequest
	if err := handlers.Decode(w, r, &req); err != nil {
		log.Error("Cannot unmarshal request body", sl.Err(err))
		handlers.Error(w, log, http.StatusBadRequest, "Cannot unmarshal request body")
		return
	}

	session, err := h.service.SignUp(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to sign up")
		return
	}

	handlers.JSON(w, log, http.StatusCreated, session)
}

// POST /auth/signin
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.SignIn"
	log := h.log.With("op", op)

	var req signInRequest
	if err := handlers.Decode(w, r, &req); err != nil {
		log.Error("Cannot unmarshal request body", sl.Err(err))
		handlers.Error(w, log, http.StatusBadRequest, "Cannot unmarshal request body")
		return
	}

	session, err := h.service.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to sign in")
		return
	}

	handlers.JSON(w, log, http.StatusOK, session)
}

// POST /auth/signout
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.SignOut"
	log := h.log.With("op", op)

	if err := h.service.SignOut(r.Context()); err != nil {
		handlers.ServiceError(w, log, err, "Failed to sign out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /auth/session
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Session"
	log := h.log.With("op", op)

	session, err := h.service.Session(r.Context())
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to read session")
		return
	}

	handlers.JSON(w, log, http.StatusOK, session)
}
