package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/evelest/storefront/internal/domain/catalog"
)

type productResponse struct {
	ID          int64   `json:"id"`
	CategoryID  int64   `json:"categoryId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	SellerID    int64   `json:"sellerId"`
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type productRequest struct {
	CategoryID  int64           `json:"categoryId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	SellerID    int64           `json:"sellerId"`
}

type priceResponse struct {
	ProductID       int64   `json:"productId"`
	BasePrice       float64 `json:"basePrice"`
	EffectivePrice  float64 `json:"effectivePrice"`
	PromotionID     *int64  `json:"promotionId,omitempty"`
	PromotionName   string  `json:"promotionName,omitempty"`
	DiscountPercent int     `json:"discountPercent,omitempty"`
}

func toProductResponse(p catalog.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Quantity:    p.Quantity,
		SellerID:    p.SellerID,
	}
}

// ListCategories returns all categories sorted by name.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = categoryResponse{ID: c.ID, Name: c.Name}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListProducts returns products, optionally filtered by the "category" and
// "q" query parameters.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var filter catalog.SearchFilter
	if raw := r.URL.Query().Get("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid category id")
			return
		}
		filter.CategoryID = id
	}
	filter.Query = r.URL.Query().Get("q")

	var (
		products []catalog.Product
		err      error
	)
	if filter.CategoryID == 0 && filter.Query == "" {
		products, err = h.catalog.List(r.Context())
	} else {
		products, err = h.catalog.Search(r.Context(), filter)
	}
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "productID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	p, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(*p))
}

// CreateProduct adds a product to the catalog on behalf of a seller.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.CategoryID <= 0 || req.SellerID <= 0 || req.Quantity < 0 || req.Price.IsNegative() {
		writeError(w, http.StatusUnprocessableEntity, "title, categoryId, sellerId required; price and quantity must not be negative")
		return
	}

	p := &catalog.Product{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price.Round(2),
		Quantity:    req.Quantity,
		SellerID:    req.SellerID,
	}
	id, err := h.catalog.Create(r.Context(), p)
	if err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeInternalError(w, r, err)
		return
	}
	p.ID = id
	writeJSON(w, http.StatusCreated, toProductResponse(*p))
}

// UpdateProduct rewrites a product's editable attributes.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "productID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.CategoryID <= 0 || req.Quantity < 0 || req.Price.IsNegative() {
		writeError(w, http.StatusUnprocessableEntity, "title and categoryId required; price and quantity must not be negative")
		return
	}

	p := &catalog.Product{
		ID:          id,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price.Round(2),
		Quantity:    req.Quantity,
	}
	if err := h.catalog.Update(r.Context(), p); err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, catalog.ErrCategoryNotFound):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeInternalError(w, r, err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteProduct removes a product from the catalog. Products with recorded
// sales are refused so the ledger stays consistent.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "productID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, catalog.ErrInUse):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeInternalError(w, r, err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetEffectivePrice returns the product's effective unit price at the
// reference instant (now, or the "at" query parameter).
func (h *Handler) GetEffectivePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "productID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	at, ok := h.atInstant(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid at instant, want RFC 3339")
		return
	}

	q, err := h.pricer.EffectivePrice(r.Context(), id, at)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeInternalError(w, r, err)
		return
	}

	resp := priceResponse{
		ProductID:      q.ProductID,
		BasePrice:      q.BasePrice.InexactFloat64(),
		EffectivePrice: q.UnitPrice.InexactFloat64(),
	}
	if q.Promotion != nil {
		promoID := q.Promotion.ID
		resp.PromotionID = &promoID
		resp.PromotionName = q.Promotion.Name
		resp.DiscountPercent = q.Promotion.DiscountPercent
	}
	writeJSON(w, http.StatusOK, resp)
}
