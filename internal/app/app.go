package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"locamat/internal/auth"
	"locamat/internal/blob"
	"locamat/internal/catalog"
	authhandler "locamat/internal/handlers/auth"
	bookinghandler "locamat/internal/handlers/booking"
	carthandler "locamat/internal/handlers/cart"
	notificationhandler "locamat/internal/handlers/notification"
	producthandler "locamat/internal/handlers/product"
	reviewhandler "locamat/internal/handlers/review"
	storagehandler "locamat/internal/handlers/storage"
	"locamat/internal/notify"
	"locamat/internal/routes"
	authservice "locamat/internal/service/auth"
	bookingservice "locamat/internal/service/booking"
	cartservice "locamat/internal/service/cart"
	productservice "locamat/internal/service/product"
	reviewservice "locamat/internal/service/review"
	"locamat/pkg/config"
	"locamat/pkg/lib/logger/sl"

	"github.com/shopspring/decimal"
)

// Storage is the backend every service reads and writes through.
type Storage interface {
	productservice.ProductStorage
	bookingservice.BookingStorage
	reviewservice.ReviewStorage
	authservice.UserStorage
	blob.ObjectStorage
}

// Slot is the local durable key/value store of this client.
type Slot interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

const shutdownTimeout = 10 * time.Second

type App struct {
	log     *slog.Logger
	cfg     *config.Config
	storage Storage
	slot    Slot
	handler http.Handler
}

// New builds the process-wide cart and session and wires every handler. The
// stored cart and session are read from slot here.
func New(ctx context.Context, log *slog.Logger, cfg *config.Config, storage Storage, slot Slot) *App {
	feed := notify.NewFeed(log, notify.DefaultSize)

	cart := cartservice.New(ctx, log, slot, cfg.Cart.SlotKey, feed)

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := authservice.New(log, storage, issuer, slot, cart, feed)
	authService.Restore(ctx)

	blobs := blob.New(log, storage, cfg.Storage.PublicURL)
	pipeline := catalog.New(decimal.NewFromInt(cfg.Catalog.DefaultMaxPrice))

	productService := productservice.New(log, storage, blobs, cfg.Storage.Bucket, pipeline, feed)
	bookingService := bookingservice.New(log, storage, feed)
	reviewService := reviewservice.New(log, storage, feed)

	mux := http.NewServeMux()
	routes.New(routes.Handlers{
		Auth:          authhandler.New(log, authService),
		Product:       producthandler.New(log, productService, authService),
		Booking:       bookinghandler.New(log, bookingService, authService),
		Review:        reviewhandler.New(log, reviewService, authService),
		Cart:          carthandler.New(log, cart),
		Storage:       storagehandler.New(log, blobs),
		Notifications: notificationhandler.New(log, feed),
	}).Register(mux)

	return &App{
		log:     log,
		cfg:     cfg,
		storage: storage,
		slot:    slot,
		handler: mux,
	}
}

func (a *App) Handler() http.Handler {
	return a.handler
}

func (a *App) MustRun(ctx context.Context) {
	if err := a.Run(ctx); err != nil {
		panic(err)
	}
}

// Run serves HTTP until ctx is canceled, then shuts the server down.
func (a *App) Run(ctx context.Context) error {
	const op = "app.Run"
	log := a.log.With("op", op)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.HTTP.Port),
		Handler:      a.handler,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("Server stopped")

	return nil
}
