package cartservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	databaseerrors "locamat/internal/database"
	"locamat/internal/models"
	"locamat/internal/notify"
	"locamat/pkg/lib/logger/sl"

	"github.com/shopspring/decimal"
)

// DefaultSlotKey names the slot the cart snapshot is stored under.
const DefaultSlotKey = "cart"

var ErrPaymentUnavailable = errors.New("online payment is not available yet")

type Event string

const (
	EventItemAdded       Event = "item_added"
	EventQuantityUpdated Event = "quantity_updated"
	EventItemRemoved     Event = "item_removed"
	EventCartCleared     Event = "cart_cleared"
)

type Slot interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Snapshot is the cart as presented to the UI.
type Snapshot struct {
	Items      []models.CartItem `json:"items"`
	TotalItems int               `json:"total_items"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	IsOpen     bool              `json:"is_open"`
}

// Store holds the renter's selection. Every mutation writes the whole
// collection to the slot; the slot is read once, in New.
type Store struct {
	log      *slog.Logger
	slot     Slot
	key      string
	notifier notify.Notifier

	mu    sync.Mutex
	items []models.CartItem
	open  bool
}

func New(ctx context.Context, log *slog.Logger, slot Slot, key string, notifier notify.Notifier) *Store {
	if key == "" {
		key = DefaultSlotKey
	}

	s := &Store{
		log:      log,
		slot:     slot,
		key:      key,
		notifier: notifier,
		items:    []models.CartItem{},
	}
	s.items = s.load(ctx)

	return s
}

func (s *Store) load(ctx context.Context) []models.CartItem {
	const op = "service.cart.load"
	log := s.log.With("op", op)

	raw, err := s.slot.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, databaseerrors.ErrNotFound) {
			log.Warn("Failed to read stored cart, starting empty", sl.Err(err))
		}
		return []models.CartItem{}
	}

	items, err := decode(raw)
	if err != nil {
		log.Warn("Discarding malformed stored cart", sl.Err(err))
		return []models.CartItem{}
	}

	return items
}

// decode parses a stored snapshot and rejects one that breaks the cart's
// invariants: no empty or repeated ids, quantities of at least one.
func decode(raw string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Id == "" {
			return nil, errors.New("item without id")
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("item %s has quantity %d", it.Id, it.Quantity)
		}
		if _, dup := seen[it.Id]; dup {
			return nil, fmt.Errorf("item %s stored twice", it.Id)
		}
		seen[it.Id] = struct{}{}
	}

	if items == nil {
		items = []models.CartItem{}
	}
	return items, nil
}

// persist must be called with mu held. The write ignores cancellation of ctx.
func (s *Store) persist(ctx context.Context) {
	const op = "service.cart.persist"

	raw, err := json.Marshal(s.items)
	if err != nil {
		s.log.With("op", op).Error("Failed to encode cart", sl.Err(err))
		return
	}

	if err := s.slot.Put(context.WithoutCancel(ctx), s.key, string(raw)); err != nil {
		s.log.With("op", op).Error("Failed to store cart", sl.Err(err))
	}
}

func (s *Store) index(id string) int {
	for i, it := range s.items {
		if it.Id == id {
			return i
		}
	}
	return -1
}

// AddItem bumps the quantity of a known item or inserts a new one with
// quantity 1, then opens the cart drawer. The quantity of item is ignored.
func (s *Store) AddItem(ctx context.Context, item models.CartItem) Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ev Event
	if i := s.index(item.Id); i >= 0 {
		s.items[i].Quantity++
		ev = EventQuantityUpdated
		s.notifier.Notify(notify.LevelSuccess, fmt.Sprintf("Quantity updated for %s", item.Title))
	} else {
		item.Quantity = 1
		s.items = append(s.items, item)
		ev = EventItemAdded
		s.notifier.Notify(notify.LevelSuccess, fmt.Sprintf("%s added to cart", item.Title))
	}

	s.open = true
	s.persist(ctx)

	return ev
}

// RemoveItem deletes the entry with id. An unknown id leaves the cart as is.
func (s *Store) RemoveItem(ctx context.Context, id string) Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(id); i >= 0 {
		s.items = append(s.items[:i:i], s.items[i+1:]...)
		s.persist(ctx)
	}

	s.notifier.Notify(notify.LevelInfo, "Item removed from cart")
	return EventItemRemoved
}

// UpdateQuantity sets the quantity of id. Quantities below 1 are ignored.
// It reports whether the cart changed.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) bool {
	if quantity < 1 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return false
	}

	s.items[i].Quantity = quantity
	s.persist(ctx)
	return true
}

func (s *Store) ClearCart(ctx context.Context) Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []models.CartItem{}
	s.persist(ctx)

	s.notifier.Notify(notify.LevelInfo, "Cart cleared")
	return EventCartCleared
}

// Reset drops the cart and its stored snapshot without notifying. Used on sign-out.
func (s *Store) Reset(ctx context.Context) {
	const op = "service.cart.Reset"

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []models.CartItem{}
	s.open = false

	if err := s.slot.Delete(context.WithoutCancel(ctx), s.key); err != nil {
		s.log.With("op", op).Error("Failed to delete stored cart", sl.Err(err))
	}
}

// Checkout is where online payment will plug in.
func (s *Store) Checkout(ctx context.Context) error {
	const op = "service.cart.Checkout"

	s.notifier.Notify(notify.LevelInfo, "Online payment will be available soon")
	return fmt.Errorf("%s: %w", op, ErrPaymentUnavailable)
}

func (s *Store) SetOpen(open bool) {
	s.mu.Lock()
	s.open = open
	s.mu.Unlock()
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Store) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalItems(s.items)
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalPrice(s.items)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.CartItem, len(s.items))
	copy(items, s.items)

	return Snapshot{
		Items:      items,
		TotalItems: totalItems(items),
		TotalPrice: totalPrice(items),
		IsOpen:     s.open,
	}
}

func totalItems(items []models.CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func totalPrice(items []models.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}
