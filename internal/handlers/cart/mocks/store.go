package mocks

import (
	"context"

	"locamat/internal/models"
	cartservice "locamat/internal/service/cart"

	"github.com/stretchr/testify/mock"
)

type CartStore struct {
	mock.Mock
}

func (m *CartStore) AddItem(ctx context.Context, item models.CartItem) cartservice.Event {
	args := m.Called(ctx, item)
	return args.Get(0).(cartservice.Event)
}

func (m *CartStore) RemoveItem(ctx context.Context, id string) cartservice.Event {
	args := m.Called(ctx, id)
	return args.Get(0).(cartservice.Event)
}

func (m *CartStore) UpdateQuantity(ctx context.Context, id string, quantity int) bool {
	args := m.Called(ctx, id, quantity)
	return args.Bool(0)
}

func (m *CartStore) ClearCart(ctx context.Context) cartservice.Event {
	args := m.Called(ctx)
	return args.Get(0).(cartservice.Event)
}

func (m *CartStore) Checkout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *CartStore) SetOpen(open bool) {
	m.Called(open)
}

func (m *CartStore) Snapshot() cartservice.Snapshot {
	args := m.Called()
	return args.Get(0).(cartservice.Snapshot)
}
