package reviewhandler

import (
	"context"
	"log/slog"
	"net/http"

	"locamat/internal/handlers"
	"locamat/internal/models"
	reviewservice "locamat/internal/service/review"
	"locamat/pkg/lib/logger/sl"
)

type ReviewService interface {
	Submit(ctx context.Context, session *models.Session, productID string, rating int, comment string) (models.Review, error)
	List(ctx context.Context, productID string) ([]models.Review, error)
}

type Handler struct {
	log      *slog.Logger
	service  ReviewService
	sessions handlers.SessionProvider
}

func New(log *slog.Logger, service ReviewService, sessions handlers.SessionProvider) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		sessions: sessions,
	}
}

type listResponse struct {
	Reviews []models.Review       `json:"reviews"`
	Summary reviewservice.Summary `json:"summary"`
}

type submitRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// GET /products/{productId}/reviews
func (h *Handler) List(w http.ResponseWriter, r *http.Request, productId string) {
	const op = "handlers.review.List"
	log := h.log.With("op", op, "product_id", productId)

	reviews, err := h.service.List(r.Context(), productId)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to load reviews")
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}

	handlers.JSON(w, log, http.StatusOK, listResponse{
		Reviews: reviews,
		Summary: reviewservice.Summarize(reviews),
	})
}

// POST /products/{productId}/reviews
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request, productId string) {
	const op = "handlers.review.Submit"
	log := h.log.With("op", op, "product_id", productId)

	session, err := handlers.CurrentSession(r.Context(), h.sessions)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to read session")
		return
	}

	var req submitRequest
	if err := handlers.Decode(w, r, &req); err != nil {
		log.Error("Cannot unmarshal request body", sl.Err(err))
		handlers.Error(w, log, http.StatusBadRequest, "Cannot unmarshal request body")
		return
	}

	review, err := h.service.Submit(r.Context(), session, productId, req.Rating, req.Comment)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to submit review")
		return
	}

	handlers.JSON(w, log, http.StatusCreated, review)
}
