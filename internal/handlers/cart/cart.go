package carthandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"locamat/internal/handlers"
	"locamat/internal/models"
	cartservice "locamat/internal/service/cart"
	"locamat/pkg/lib/logger/sl"

	"github.com/go-playground/validator/v10"
)

type CartStore interface {
	AddItem(ctx context.Context, item models.CartItem) cartservice.Event
	RemoveItem(ctx context.Context, id string) cartservice.Event
	UpdateQuantity(ctx context.Context, id string, quantity int) bool
	ClearCart(ctx context.Context) cartservice.Event
	Checkout(ctx context.Context) error
	SetOpen(open bool)
	Snapshot() cartservice.Snapshot
}

type Handler struct {
	log      *slog.Logger
	store    CartStore
	validate *validator.Validate
}

func New(log *slog.Logger, store CartStore) *Handler {
	return &Handler{
		log:      log,
		store:    store,
		validate: validator.New(),
	}
}

// Response is the cart after a mutation together with what happened.
type Response struct {
	Event cartservice.Event    `json:"event,omitempty"`
	Cart  cartservice.Snapshot `json:"cart"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type openRequest struct {
	Open *bool `json:"open" validate:"required"`
}

// GET /cart
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.View"
	log := h.log.With("op", op)

	handlers.JSON(w, log, http.StatusOK, Response{Cart: h.store.Snapshot()})
}

// POST /cart/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.AddItem"
	log := h.log.With("op", op)

	var item models.CartItem
	if err := handlers.Decode(w, r, &item); err != nil {
		log.Error("Cannot unmarshal request body", sl.Err(err))
		handlers.Error(w, log, http.StatusBadRequest, "Cannot unmarshal request body")
		return
	}

	if err := h.validate.Struct(item); err != nil {
		log.Error("Failed to validate", sl.Err(err))
		handlers.Error(w, log, http.StatusBadRequest, "Item id and title are required")
		return
	}
	if item.Price.IsNegative() {
		handlers.Error(w, log, http.StatusBadRequest, "Price must not be negative")
		return
	}

	ev := h.store.AddItem(r.Context(), item)
	handlers.JSON(w, log, http.StatusOK, Response{Event: ev, Cart: h.store.Snapshot()})
}

// PATCH /cart/items/{itemId}
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request, itemId string) {
	const op = "handlers.cart.UpdateQuantity"
	log := h.log.With("op", op, "item_id", itemId)

	var req quantityRequest
	if err := handlers.Decode(w, r, &req); err != nil {
		log.Error("Cannot unmarshal request body", sl.Err(err))
		handlers.Error(w, log, http.StatusBadRequest, "Cannot unmarshal request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("Failed to validate", sl.Err(err))
		handlers.Error(w, log, http.StatusBadRequest, "Quantity is required")
		return
	}

	var ev cartservice.Event
	if h.store.UpdateQuantity(r.Context(), itemId, *req.Quantity) {
		ev = cartservice.EventQuantityUpdated
	}
	handlers.JSON(w, log, http.StatusOK, Response{Event: ev, Cart: h.store.Snapshot()})
}

// DELETE /cart/items/{itemId}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request, itemId string) {
	const op = "handlers.cart.RemoveItem"
	log := h.log.With("op", op, "item_id", itemId)

	ev := h.store.RemoveItem(r.Context(), itemId)
	handlers.JSON(w, log, http.StatusOK, Response{Event: ev, Cart: h.store.Snapshot()})
}

// DELETE /cart
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.Clear"
	log := h.log.With("op", op)

	ev := h.store.ClearCart(r.Context())
	handlers.JSON(w, log, http.StatusOK, Response{Event: ev, Cart: h.store.Snapshot()})
}

// PUT /cart/open
func (h *Handler) SetOpen(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.SetOpen"
	log := h.log.With("op", op)

	var req openRequest
	if err := handlers.Decode(w, r, &req); err != nil {
		log.Error("Cannot unmarshal request body", sl.Err(err))
		handlers.Error(w, log, http.StatusBadRequest, "Cannot unmarshal request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		handlers.Error(w, log, http.StatusBadRequest, "Open is required")
		return
	}

	h.store.SetOpen(*req.Open)
	handlers.JSON(w, log, http.StatusOK, Response{Cart: h.store.Snapshot()})
}

// POST /cart/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.Checkout"
	log := h.log.With("op", op)

	err := h.store.Checkout(r.Context())
	switch {
	case errors.Is(err, cartservice.ErrPaymentUnavailable):
		log.Info("Checkout attempted", "total_items", h.store.Snapshot().TotalItems)
		handlers.Error(w, log, http.StatusNotImplemented, "Online payment will be available soon")
	case err != nil:
		handlers.ServiceError(w, log, err, "Failed to check out")
	default:
		handlers.JSON(w, log, http.StatusOK, Response{Cart: h.store.Snapshot()})
	}
}
