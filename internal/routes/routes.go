package routes

import (
	"net/http"
	"strings"

	authhandler "locamat/internal/handlers/auth"
	bookinghandler "locamat/internal/handlers/booking"
	carthandler "locamat/internal/handlers/cart"
	notificationhandler "locamat/internal/handlers/notification"
	producthandler "locamat/internal/handlers/product"
	reviewhandler "locamat/internal/handlers/review"
	storagehandler "locamat/internal/handlers/storage"
	"locamat/pkg/lib/urlparser"
)

type Handlers struct {
	Auth          *authhandler.Handler
	Product       *producthandler.Handler
	Booking       *bookinghandler.Handler
	Review        *reviewhandler.Handler
	Cart          *carthandler.Handler
	Storage       *storagehandler.Handler
	Notifications *notificationhandler.Handler
}

type Routes struct {
	h Handlers
}

func New(h Handlers) *Routes {
	return &Routes{h: h}
}

func (r *Routes) Register(mux *http.ServeMux) {
	// POST /auth/signup, POST /auth/signin, POST /auth/signout, GET /auth/session
	mux.HandleFunc("/auth/signup", only(http.MethodPost, r.h.Auth.SignUp))
	mux.HandleFunc("/auth/signin", only(http.MethodPost, r.h.Auth.SignIn))
	mux.HandleFunc("/auth/signout", only(http.MethodPost, r.h.Auth.SignOut))
	mux.HandleFunc("/auth/session", only(http.MethodGet, r.h.Auth.Session))

	// GET /products, POST /products
	mux.HandleFunc("/products", func(ww http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			r.h.Product.List(ww, req)
		case http.MethodPost:
			r.h.Product.Publish(ww, req)
		default:
			methodNotAllowed(ww, req)
		}
	})
	mux.HandleFunc("/products/", r.productPath)
	mux.HandleFunc("/categories", only(http.MethodGet, r.h.Product.Categories))

	mux.HandleFunc("/bookings/incoming", only(http.MethodGet, r.h.Booking.Incoming))
	mux.HandleFunc("/bookings/outgoing", only(http.MethodGet, r.h.Booking.Outgoing))
	mux.HandleFunc("/bookings/", r.bookingPath)

	// GET /cart, DELETE /cart
	mux.HandleFunc("/cart", func(ww http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			r.h.Cart.View(ww, req)
		case http.MethodDelete:
			r.h.Cart.Clear(ww, req)
		default:
			methodNotAllowed(ww, req)
		}
	})
	mux.HandleFunc("/cart/items", only(http.MethodPost, r.h.Cart.AddItem))
	mux.HandleFunc("/cart/items/", r.cartItemPath)
	mux.HandleFunc("/cart/open", only(http.MethodPut, r.h.Cart.SetOpen))
	mux.HandleFunc("/cart/checkout", only(http.MethodPost, r.h.Cart.Checkout))

	mux.HandleFunc("/notifications", only(http.MethodGet, r.h.Notifications.List))
	mux.HandleFunc("/storage/", r.storagePath)
}

func (r *Routes) productPath(ww http.ResponseWriter, req *http.Request) {
	switch strings.Trim(req.URL.Path, "/") {
	case "products/mine":
		// GET /products/mine
		only(http.MethodGet, r.h.Product.Mine)(ww, req)
		return
	case "products/featured":
		// GET /products/featured?limit={n}
		only(http.MethodGet, r.h.Product.Featured)(ww, req)
		return
	}

	params, err := urlparser.ParseProductPath(req.URL.Path)
	if err != nil {
		http.Error(ww, err.Error(), http.StatusBadRequest)
		return
	}
	id := params.ID

	switch {
	case params.Action == "" && req.Method == http.MethodGet:
		// GET /products/{productId}
		r.h.Product.Get(ww, req, id)
	case params.Action == "" && req.Method == http.MethodDelete:
		// DELETE /products/{productId}
		r.h.Product.Delete(ww, req, id)
	case params.Action == "availability" && req.Method == http.MethodGet:
		// GET /products/{productId}/availability
		r.h.Booking.Availability(ww, req, id)
	case params.Action == "quote" && req.Method == http.MethodPost:
		// POST /products/{productId}/quote
		r.h.Booking.Quote(ww, req, id)
	case params.Action == "bookings" && req.Method == http.MethodPost:
		// POST /products/{productId}/bookings
		r.h.Booking.Request(ww, req, id)
	case params.Action == "reviews" && req.Method == http.MethodGet:
		// GET /products/{productId}/reviews
		r.h.Review.List(ww, req, id)
	case params.Action == "reviews" && req.Method == http.MethodPost:
		// POST /products/{productId}/reviews
		r.h.Review.Submit(ww, req, id)
	default:
		http.NotFound(ww, req)
	}
}

func (r *Routes) bookingPath(ww http.ResponseWriter, req *http.Request) {
	params, err := urlparser.ParseBookingPath(req.URL.Path)
	if err != nil {
		http.Error(ww, err.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case params.Action == "accept" && req.Method == http.MethodPost:
		// POST /bookings/{bookingId}/accept
		r.h.Booking.Accept(ww, req, params.ID)
	case params.Action == "reject" && req.Method == http.MethodPost:
		// POST /bookings/{bookingId}/reject
		r.h.Booking.Reject(ww, req, params.ID)
	default:
		http.NotFound(ww, req)
	}
}

func (r *Routes) cartItemPath(ww http.ResponseWriter, req *http.Request) {
	params, err := urlparser.ParseCartItemPath(req.URL.Path)
	if err != nil {
		http.Error(ww, err.Error(), http.StatusBadRequest)
		return
	}

	switch req.Method {
	case http.MethodPatch:
		// PATCH /cart/items/{itemId}
		r.h.Cart.UpdateQuantity(ww, req, params.ID)
	case http.MethodDelete:
		// DELETE /cart/items/{itemId}
		r.h.Cart.RemoveItem(ww, req, params.ID)
	default:
		methodNotAllowed(ww, req)
	}
}

func (r *Routes) storagePath(ww http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		methodNotAllowed(ww, req)
		return
	}

	bucket, object, err := urlparser.ParseStoragePath(req.URL.Path)
	if err != nil {
		http.Error(ww, err.Error(), http.StatusBadRequest)
		return
	}

	// GET /storage/{bucket}/{object...}
	r.h.Storage.Serve(ww, req, bucket, object)
}

func only(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(ww http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			methodNotAllowed(ww, req)
			return
		}
		next(ww, req)
	}
}

func methodNotAllowed(ww http.ResponseWriter, req *http.Request) {
	http.Error(ww, "method not allowed", http.StatusMethodNotAllowed)
}
