package storagehandler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"locamat/internal/handlers"
	"locamat/internal/models"
	"locamat/pkg/lib/logger/sl"
)

type ObjectReader interface {
	Download(ctx context.Context, bucket, objectPath string) (models.Object, error)
}

type Handler struct {
	log     *slog.Logger
	objects ObjectReader
}

func New(log *slog.Logger, objects ObjectReader) *Handler {
	return &Handler{
		log:     log,
		objects: objects,
	}
}

// GET /storage/{bucket}/{object...}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, bucket, object string) {
	const op = "handlers.storage.Serve"
	log := h.log.With("op", op, "bucket", bucket, "path", object)

	obj, err := h.objects.Download(r.Context(), bucket, object)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to read object")
		return
	}

	mime := obj.Mime
	if mime == "" {
		mime = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(obj.Data); err != nil {
		log.Error("Failed to write object", sl.Err(err))
	}
}
