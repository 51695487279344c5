package notificationhandler

import (
	"log/slog"
	"net/http"
	"strconv"

	"locamat/internal/handlers"
	"locamat/internal/notify"
)

type Feed interface {
	Since(after uint64) []notify.Notice
}

type Handler struct {
	log  *slog.Logger
	feed Feed
}

func New(log *slog.Logger, feed Feed) *Handler {
	return &Handler{
		log:  log,
		feed: feed,
	}
}

// GET /notifications?after={seq}
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.List"
	log := h.log.With("op", op)

	var after uint64
	if raw := r.URL.Query().Get("after"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			handlers.Error(w, log, http.StatusBadRequest, "after must be a non-negative integer")
			return
		}
		after = n
	}

	handlers.JSON(w, log, http.StatusOK, h.feed.Since(after))
}
