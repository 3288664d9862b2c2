// Package handler exposes the storefront core over HTTP. Handlers decode
// JSON, delegate to the domain packages, and map domain errors to status
// codes; no business logic lives here.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/evelest/storefront/internal/domain/cart"
	"github.com/evelest/storefront/internal/domain/catalog"
	"github.com/evelest/storefront/internal/domain/checkout"
	"github.com/evelest/storefront/internal/domain/pricing"
	"github.com/evelest/storefront/internal/domain/promo"
	"github.com/evelest/storefront/internal/domain/sales"
)

// Handler wires the storefront domain services to HTTP routes.
type Handler struct {
	catalog    catalog.Repository
	promotions promo.Repository
	pricer     *pricing.Engine
	settlement *checkout.Service
	ledger     sales.Ledger
	sessions   *cart.Sessions
	now        func() time.Time
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	catalogRepo catalog.Repository,
	promotions promo.Repository,
	pricer *pricing.Engine,
	settlement *checkout.Service,
	ledger sales.Ledger,
) *Handler {
	return &Handler{
		catalog:    catalogRepo,
		promotions: promotions,
		pricer:     pricer,
		settlement: settlement,
		ledger:     ledger,
		sessions:   cart.NewSessions(),
		now:        time.Now,
	}
}

// Routes returns the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/categories", h.ListCategories)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/{productID}", h.GetProduct)
		r.Put("/{productID}", h.UpdateProduct)
		r.Delete("/{productID}", h.DeleteProduct)
		r.Get("/{productID}/price", h.GetEffectivePrice)
	})

	r.Route("/carts/{buyerID}", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddCartItem)
		r.Delete("/items/{productID}", h.RemoveCartItem)
		r.Post("/checkout", h.Checkout)
	})

	r.Route("/promotions", func(r chi.Router) {
		r.Post("/", h.CreatePromotion)
		r.Post("/{promotionID}/products", h.AssignPromotionProduct)
	})

	r.Get("/buyers/{buyerID}/purchases", h.ListPurchases)
	r.Get("/sellers/{sellerID}/sales", h.ListSellerSales)
	r.Get("/sellers/{sellerID}/revenue", h.GetSellerRevenue)

	return r
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Code: status, Message: message})
}

// writeInternalError logs the underlying error and responds with a generic
// 500; internals are not leaked to clients.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// pathID parses the named chi URL parameter as a positive int64.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// atInstant returns the reference instant for a display-path request: the
// "at" query parameter (RFC 3339) when present, otherwise now.
func (h *Handler) atInstant(r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("at")
	if raw == "" {
		return h.now(), true
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}
