package handler

import (
	"net/http"
	"time"

	"github.com/evelest/storefront/internal/domain/sales"
)

type historyEntryResponse struct {
	SaleID        int64     `json:"saleId"`
	ProductID     int64     `json:"productId"`
	ProductTitle  string    `json:"productTitle"`
	BuyerID       int64     `json:"buyerId"`
	SalePrice     float64   `json:"salePrice"`
	SoldQuantity  int       `json:"soldQuantity"`
	Amount        float64   `json:"amount"`
	PromotionName string    `json:"promotionName,omitempty"`
	SaleDate      time.Time `json:"saleDate"`
}

type revenueResponse struct {
	SellerID int64   `json:"sellerId"`
	Revenue  float64 `json:"revenue"`
}

func toHistoryResponse(entries []sales.HistoryEntry) []historyEntryResponse {
	resp := make([]historyEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = historyEntryResponse{
			SaleID:        e.ID,
			ProductID:     e.ProductID,
			ProductTitle:  e.ProductTitle,
			BuyerID:       e.BuyerID,
			SalePrice:     e.SalePrice.InexactFloat64(),
			SoldQuantity:  e.SoldQuantity,
			Amount:        e.Amount().InexactFloat64(),
			PromotionName: e.PromotionName,
			SaleDate:      e.SaleDate,
		}
	}
	return resp
}

// ListPurchases returns the buyer's purchase history, newest first.
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := pathID(r, "buyerID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid buyer id")
		return
	}

	entries, err := h.ledger.PurchasesByBuyer(r.Context(), buyerID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryResponse(entries))
}

// ListSellerSales returns the sales of the seller's products, newest first.
func (h *Handler) ListSellerSales(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := pathID(r, "sellerID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid seller id")
		return
	}

	entries, err := h.ledger.SalesBySeller(r.Context(), sellerID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryResponse(entries))
}

// GetSellerRevenue returns the seller's total ledger revenue.
func (h *Handler) GetSellerRevenue(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := pathID(r, "sellerID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid seller id")
		return
	}

	revenue, err := h.ledger.RevenueBySeller(r.Context(), sellerID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, revenueResponse{
		SellerID: sellerID,
		Revenue:  revenue.InexactFloat64(),
	})
}
