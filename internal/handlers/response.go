// Package handlers holds what every HTTP handler shares: JSON encoding,
// mapping service errors to status codes and reading the current session.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"locamat/internal/models"
	serviceerrors "locamat/internal/service"
	"locamat/pkg/lib/logger/sl"
)

const StatusClientClosedRequest = 499

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

type SessionProvider interface {
	Session(ctx context.Context) (models.Session, error)
}

func JSON(w http.ResponseWriter, log *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Failed to respond", sl.Err(err))
	}
}

func Error(w http.ResponseWriter, log *slog.Logger, status int, message string) {
	JSON(w, log, status, map[string]string{"error": message})
}

func Decode(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(target)
}

// ServiceError writes the status matching err. Errors it does not know are
// logged and answered with 500 and fallback.
func ServiceError(w http.ResponseWriter, log *slog.Logger, err error, fallback string) {
	var verr *serviceerrors.ValidationError

	switch {
	case errors.As(err, &verr):
		log.Info("Rejected", sl.Err(err))
		Error(w, log, http.StatusBadRequest, verr.Message)
	case errors.Is(err, serviceerrors.ErrContextCanceled):
		log.Warn("Context canceled", sl.Err(err))
		Error(w, log, StatusClientClosedRequest, "Context canceled")
	case errors.Is(err, serviceerrors.ErrDeadlineExceeded):
		log.Warn("Deadline exceeded", sl.Err(err))
		Error(w, log, http.StatusGatewayTimeout, "Deadline exceeded")
	case errors.Is(err, serviceerrors.ErrUnauthorized):
		log.Warn("Unauthorized", sl.Err(err))
		Error(w, log, http.StatusUnauthorized, "Sign in to continue")
	case errors.Is(err, serviceerrors.ErrForbidden):
		log.Warn("Forbidden", sl.Err(err))
		Error(w, log, http.StatusForbidden, "You are not allowed to do that")
	case errors.Is(err, serviceerrors.ErrNotFound):
		log.Warn("Not found", sl.Err(err))
		Error(w, log, http.StatusNotFound, "Not found")
	case errors.Is(err, serviceerrors.ErrInvalidTransition):
		log.Warn("Invalid transition", sl.Err(err))
		Error(w, log, http.StatusConflict, "This booking has already been answered")
	case errors.Is(err, serviceerrors.ErrConflict):
		log.Warn("Conflict", sl.Err(err))
		Error(w, log, http.StatusConflict, "These dates are no longer available, pick another period")
	case errors.Is(err, serviceerrors.ErrAlreadyExists):
		log.Warn("Already exists", sl.Err(err))
		Error(w, log, http.StatusConflict, "Already exists")
	default:
		log.Error(fallback, sl.Err(err))
		Error(w, log, http.StatusInternalServerError, fallback)
	}
}

// CurrentSession returns nil when nobody is signed in.
func CurrentSession(ctx context.Context, sessions SessionProvider) (*models.Session, error) {
	s, err := sessions.Session(ctx)
	if err != nil {
		if errors.Is(err, serviceerrors.ErrUnauthorized) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
