package producthandler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"locamat/internal/catalog"
	"locamat/internal/handlers"
	"locamat/internal/imaging"
	"locamat/internal/models"
	productservice "locamat/internal/service/product"
	"locamat/pkg/lib/geo"
	"locamat/pkg/lib/logger/sl"

	"github.com/shopspring/decimal"
)

// DefaultFeatured is how many listings the landing page shows.
const DefaultFeatured = 6

type ProductService interface {
	Publish(ctx context.Context, session *models.Session, draft productservice.Draft, image io.Reader) (models.Product, error)
	Get(ctx context.Context, id string) (models.Product, error)
	Catalog(ctx context.Context, f catalog.Filter) ([]catalog.Result, error)
	Featured(ctx context.Context, n int) ([]models.Product, error)
	CategoryCounts(ctx context.Context) (map[models.Category]int, error)
	ListMine(ctx context.Context, session *models.Session) ([]models.Product, error)
	Delete(ctx context.Context, session *models.Session, id string) error
}

type Handler struct {
	log      *slog.Logger
	service  ProductService
	sessions handlers.SessionProvider
}

func New(log *slog.Logger, service ProductService, sessions handlers.SessionProvider) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		sessions: sessions,
	}
}

// GET /products?q=&min=&max=&category=&lat=&lng=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.product.List"
	log := h.log.With("op", op)

	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		log.Info("Bad filter", sl.Err(err))
		handlers.Error(w, log, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.service.Catalog(r.Context(), filter)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to list products")
		return
	}

	handlers.JSON(w, log, http.StatusOK, results)
}

// ParseFilter reads the catalog filter from query parameters. lat and lng
// must be given together.
func ParseFilter(q url.Values) (catalog.Filter, error) {
	f := catalog.Filter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
	}

	var err error
	if f.MinPrice, err = parseDecimal(q.Get("min")); err != nil {
		return catalog.Filter{}, errors.New("min must be a number")
	}
	if f.MaxPrice, err = parseDecimal(q.Get("max")); err != nil {
		return catalog.Filter{}, errors.New("max must be a number")
	}

	lat, lng := q.Get("lat"), q.Get("lng")
	if lat == "" && lng == "" {
		return f, nil
	}
	if lat == "" || lng == "" {
		return catalog.Filter{}, errors.New("lat and lng go together")
	}

	var p geo.Point
	if p.Lat, err = strconv.ParseFloat(lat, 64); err != nil {
		return catalog.Filter{}, errors.New("lat must be a number")
	}
	if p.Lng, err = strconv.ParseFloat(lng, 64); err != nil {
		return catalog.Filter{}, errors.New("lng must be a number")
	}
	if !p.Valid() {
		return catalog.Filter{}, errors.New("coordinates are out of range")
	}
	f.Origin = &p

	return f, nil
}

func parseDecimal(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GET /products/featured?limit=
func (h *Handler) Featured(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.product.Featured"
	log := h.log.With("op", op)

	n := DefaultFeatured
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			handlers.Error(w, log, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		n = v
	}

	products, err := h.service.Featured(r.Context(), n)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to list products")
		return
	}

	handlers.JSON(w, log, http.StatusOK, products)
}

// GET /categories
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.product.Categories"
	log := h.log.With("op", op)

	counts, err := h.service.CategoryCounts(r.Context())
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to count products")
		return
	}

	handlers.JSON(w, log, http.StatusOK, counts)
}

// GET /products/{productId}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, productId string) {
	const op = "handlers.product.Get"
	log := h.log.With("op", op, "product_id", productId)

	p, err := h.service.Get(r.Context(), productId)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to get product")
		return
	}

	handlers.JSON(w, log, http.StatusOK, p)
}

// GET /products/mine
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.product.Mine"
	log := h.log.With("op", op)

	session, err := handlers.CurrentSession(r.Context(), h.sessions)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to read session")
		return
	}

	products, err := h.service.ListMine(r.Context(), session)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to list products")
		return
	}

	handlers.JSON(w, log, http.StatusOK, products)
}

// POST /products, multipart form with an optional "image" file.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.product.Publish"
	log := h.log.With("op", op)

	session, err := handlers.CurrentSession(r.Context(), h.sessions)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to read session")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+handlers.MaxBodyBytes)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		log.Error("Cannot parse form", sl.Err(err))
		handlers.Error(w, log, http.StatusBadRequest, "Cannot parse form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	draft, err := draftFromForm(r.MultipartForm.Value)
	if err != nil {
		handlers.Error(w, log, http.StatusBadRequest, err.Error())
		return
	}

	var image io.Reader
	file, _, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		image = file
	case errors.Is(err, http.ErrMissingFile):
	default:
		log.Error("Cannot read image", sl.Err(err))
		handlers.Error(w, log, http.StatusBadRequest, "Cannot read image")
		return
	}

	p, err := h.service.Publish(r.Context(), session, draft, image)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to publish product")
		return
	}

	handlers.JSON(w, log, http.StatusCreated, p)
}

func draftFromForm(form map[string][]string) (productservice.Draft, error) {
	get := func(key string) string {
		if v := form[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	d := productservice.Draft{
		Title:       get("title"),
		Category:    models.Category(get("category")),
		Description: get("description"),
	}

	var err error
	if d.Price, err = parseDecimal(get("price")); err != nil {
		return productservice.Draft{}, errors.New("price must be a number")
	}
	if d.Latitude, err = parseFloat(get("latitude")); err != nil {
		return productservice.Draft{}, errors.New("latitude must be a number")
	}
	if d.Longitude, err = parseFloat(get("longitude")); err != nil {
		return productservice.Draft{}, errors.New("longitude must be a number")
	}
	if loc := get("location"); loc != "" {
		d.Location = &loc
	}

	return d, nil
}

// DELETE /products/{productId}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, productId string) {
	const op = "handlers.product.Delete"
	log := h.log.With("op", op, "product_id", productId)

	session, err := handlers.CurrentSession(r.Context(), h.sessions)
	if err != nil {
		handlers.ServiceError(w, log, err, "Failed to read session")
		return
	}

	if err := h.service.Delete(r.Context(), session, productId); err != nil {
		handlers.ServiceError(w, log, err, "Failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
