package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/evelest/storefront/internal/domain/catalog"
	"github.com/evelest/storefront/internal/domain/promo"
)

type promotionRequest struct {
	Name            string    `json:"name"`
	DiscountPercent int       `json:"discountPercent"`
	ValidFrom       time.Time `json:"validFrom"`
	ValidTo         time.Time `json:"validTo"`
}

type promotionResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	DiscountPercent int       `json:"discountPercent"`
	ValidFrom       time.Time `json:"validFrom"`
	ValidTo         time.Time `json:"validTo"`
}

type assignProductRequest struct {
	ProductID int64 `json:"productId"`
}

// CreatePromotion registers a new time-bounded discount.
func (h *Handler) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	var req promotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	p := &promo.Promotion{
		Name:            req.Name,
		DiscountPercent: req.DiscountPercent,
		ValidFrom:       req.ValidFrom,
		ValidTo:         req.ValidTo,
	}
	id, err := h.promotions.Create(r.Context(), p)
	if err != nil {
		if errors.Is(err, promo.ErrInvalidDiscount) || errors.Is(err, promo.ErrInvalidWindow) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, promotionResponse{
		ID:              id,
		Name:            p.Name,
		DiscountPercent: p.DiscountPercent,
		ValidFrom:       p.ValidFrom,
		ValidTo:         p.ValidTo,
	})
}

// AssignPromotionProduct links a product to a promotion.
func (h *Handler) AssignPromotionProduct(w http.ResponseWriter, r *http.Request) {
	promotionID, ok := pathID(r, "promotionID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid promotion id")
		return
	}

	var req assignProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "productId is required")
		return
	}

	if err := h.promotions.AssignProduct(r.Context(), promotionID, req.ProductID); err != nil {
		switch {
		case errors.Is(err, promo.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeInternalError(w, r, err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
