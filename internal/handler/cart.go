package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/evelest/storefront/internal/domain/cart"
	"github.com/evelest/storefront/internal/domain/catalog"
	"github.com/evelest/storefront/internal/domain/checkout"
)

type cartLineResponse struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type cartResponse struct {
	BuyerID int64              `json:"buyerId"`
	Lines   []cartLineResponse `json:"lines"`
	Total   float64            `json:"total"`
}

type addItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type checkoutResponse struct {
	SaleIDs []int64 `json:"saleIds"`
}

type stockErrorBody struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ProductID int64  `json:"productId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Shortfall int    `json:"shortfall"`
}

// GetCart returns the buyer's cart lines and its total at the current
// instant. The total is recomputed on every call from live promotion state.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := pathID(r, "buyerID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid buyer id")
		return
	}

	c := h.sessions.Get(buyerID)
	total, err := c.Total(r.Context(), h.pricer, h.now())
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeInternalError(w, r, err)
		return
	}

	lines := c.Lines()
	resp := cartResponse{
		BuyerID: buyerID,
		Lines:   make([]cartLineResponse, len(lines)),
		Total:   total.InexactFloat64(),
	}
	for i, l := range lines {
		resp.Lines[i] = cartLineResponse{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	writeJSON(w, http.StatusOK, resp)
}

// AddCartItem appends a line to the buyer's cart. Stock is not checked here;
// it is only authoritative at checkout.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := pathID(r, "buyerID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid buyer id")
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "productId is required")
		return
	}

	if err := h.sessions.Get(buyerID).Add(req.ProductID, req.Quantity); err != nil {
		var iq *cart.InvalidQuantityError
		if errors.As(err, &iq) {
			writeError(w, http.StatusUnprocessableEntity, iq.Error())
			return
		}
		writeInternalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveCartItem drops every cart line for the given product.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := pathID(r, "buyerID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid buyer id")
		return
	}
	productID, ok := pathID(r, "productID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	h.sessions.Get(buyerID).Remove(productID)
	w.WriteHeader(http.StatusNoContent)
}

// ClearCart empties the buyer's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := pathID(r, "buyerID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid buyer id")
		return
	}

	h.sessions.Get(buyerID).Clear()
	w.WriteHeader(http.StatusNoContent)
}

// Checkout settles the buyer's cart: all lines commit together or not at
// all. On success the cart is cleared and the created sale IDs returned.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := pathID(r, "buyerID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid buyer id")
		return
	}

	saleIDs, err := h.settlement.Checkout(r.Context(), h.sessions.Get(buyerID))
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkoutResponse{SaleIDs: saleIDs})
}

// writeCheckoutError maps settlement failures to responses. Business-rule
// failures always name the offending product and the numeric discrepancy.
func (h *Handler) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *checkout.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeJSON(w, http.StatusConflict, stockErrorBody{
			Code:      http.StatusConflict,
			Message:   stockErr.Error(),
			ProductID: stockErr.ProductID,
			Requested: stockErr.Requested,
			Available: stockErr.Available,
			Shortfall: stockErr.Shortfall(),
		})
		return
	}

	var notFound *checkout.ProductNotFoundError
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, checkout.ErrEmptyCart.Error())
	default:
		writeInternalError(w, r, err)
	}
}
