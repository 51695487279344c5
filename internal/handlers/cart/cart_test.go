package carthandler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	carthandler "locamat/internal/handlers/cart"
	"locamat/internal/handlers/cart/mocks"
	"locamat/internal/models"
	"locamat/internal/notify"
	cartservice "locamat/internal/service/cart"
	"locamat/pkg/lib/logger/slogdiscard"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestHandler(store carthandler.CartStore) *carthandler.Handler {
	logger := slogdiscard.NewDiscardLogger()
	return carthandler.New(logger, store)
}

func TestHandler_AddItem(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		setupMock    func(s *mocks.CartStore)
		expectedCode int
		expectedEv   cartservice.Event
	}{
		{
			name: "Success",
			body: `{"id":"p1","title":"Tente","price":"1000","image":"x.jpg","category":"event"}`,
			setupMock: func(s *mocks.CartStore) {
				s.On("AddItem", mock.Anything, mock.MatchedBy(func(it models.CartItem) bool {
					return it.Id == "p1" && it.Price.Equal(decimal.NewFromInt(1000))
				})).Return(cartservice.EventItemAdded)
				s.On("Snapshot").Return(cartservice.Snapshot{TotalItems: 1, IsOpen: true})
			},
			expectedCode: http.StatusOK,
			expectedEv:   cartservice.EventItemAdded,
		},
		{
			name:         "Invalid json",
			body:         `{"id":`,
			setupMock:    func(s *mocks.CartStore) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Missing title",
			body:         `{"id":"p1","price":"10"}`,
			setupMock:    func(s *mocks.CartStore) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Negative price",
			body:         `{"id":"p1","title":"x","price":"-1"}`,
			setupMock:    func(s *mocks.CartStore) {},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mocks.CartStore)
			tt.setupMock(store)
			handler := newTestHandler(store)

			req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(tt.body))
			ww := httptest.NewRecorder()

			handler.AddItem(ww, req)
			resp := ww.Result()
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedCode, resp.StatusCode)
			if tt.expectedCode == http.StatusOK {
				var body carthandler.Response
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedEv, body.Event)
				assert.True(t, body.Cart.IsOpen)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestHandler_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		setupMock    func(s *mocks.CartStore)
		expectedCode int
		expectedEv   cartservice.Event
	}{
		{
			name: "Updated",
			body: `{"quantity":3}`,
			setupMock: func(s *mocks.CartStore) {
				s.On("UpdateQuantity", mock.Anything, "p1", 3).Return(true)
				s.On("Snapshot").Return(cartservice.Snapshot{})
			},
			expectedCode: http.StatusOK,
			expectedEv:   cartservice.EventQuantityUpdated,
		},
		{
			name: "Ignored below one",
			body: `{"quantity":0}`,
			setupMock: func(s *mocks.CartStore) {
				s.On("UpdateQuantity", mock.Anything, "p1", 0).Return(false)
				s.On("Snapshot").Return(cartservice.Snapshot{})
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Missing quantity",
			body:         `{}`,
			setupMock:    func(s *mocks.CartStore) {},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mocks.CartStore)
			tt.setupMock(store)
			handler := newTestHandler(store)

			req := httptest.NewRequest(http.MethodPatch, "/cart/items/p1", strings.NewReader(tt.body))
			ww := httptest.NewRecorder()

			handler.UpdateQuantity(ww, req, "p1")
			resp := ww.Result()
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedCode, resp.StatusCode)
			if tt.expectedCode == http.StatusOK {
				var body carthandler.Response
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedEv, body.Event)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestHandler_Checkout(t *testing.T) {
	store := new(mocks.CartStore)
	store.On("Checkout", mock.Anything).Return(fmt.Errorf("op: %w", cartservice.ErrPaymentUnavailable))
	store.On("Snapshot").Return(cartservice.Snapshot{TotalItems: 2})
	handler := newTestHandler(store)

	ww := httptest.NewRecorder()
	handler.Checkout(ww, httptest.NewRequest(http.MethodPost, "/cart/checkout", nil))

	assert.Equal(t, http.StatusNotImplemented, ww.Code)
	store.AssertExpectations(t)
}

// memSlot is an in-memory cart slot.
type memSlot map[string]string

func (m memSlot) Get(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
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

func TestHandler_FlowWithRealStore(t *testing.T) {
	logger := slogdiscard.NewDiscardLogger()
	store := cartservice.New(context.Background(), logger, memSlot{}, cartservice.DefaultSlotKey, notify.NewFeed(logger, 0))
	handler := newTestHandler(store)

	add := func(body string) carthandler.Response {
		ww := httptest.NewRecorder()
		handler.AddItem(ww, httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, ww.Code)
		var resp carthandler.Response
		require.NoError(t, json.NewDecoder(ww.Body).Decode(&resp))
		return resp
	}

	add(`{"id":"a","title":"A","price":"10"}`)
	resp := add(`{"id":"a","title":"A","price":"10"}`)
	assert.Equal(t, cartservice.EventQuantityUpdated, resp.Event)
	resp = add(`{"id":"b","title":"B","price":"5"}`)
	assert.Equal(t, 3, resp.Cart.TotalItems)
	assert.True(t, decimal.NewFromInt(25).Equal(resp.Cart.TotalPrice))

	ww := httptest.NewRecorder()
	handler.SetOpen(ww, httptest.NewRequest(http.MethodPut, "/cart/open", strings.NewReader(`{"open":false}`)))
	require.Equal(t, http.StatusOK, ww.Code)
	assert.False(t, store.IsOpen())

	ww = httptest.NewRecorder()
	handler.RemoveItem(ww, httptest.NewRequest(http.MethodDelete, "/cart/items/missing", nil), "missing")
	require.Equal(t, http.StatusOK, ww.Code)
	assert.Equal(t, 3, store.TotalItems())

	ww = httptest.NewRecorder()
	handler.Clear(ww, httptest.NewRequest(http.MethodDelete, "/cart", nil))
	require.Equal(t, http.StatusOK, ww.Code)
	assert.Equal(t, 0, store.TotalItems())

	ww = httptest.NewRecorder()
	handler.View(ww, httptest.NewRequest(http.MethodGet, "/cart", nil))
	var view carthandler.Response
	require.NoError(t, json.NewDecoder(ww.Body).Decode(&view))
	assert.Empty(t, view.Cart.Items)
}
