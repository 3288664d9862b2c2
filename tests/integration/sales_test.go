//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestSellerRevenue(t *testing.T) {
	const (
		buyerID  = 6
		sellerID = 3 // no other test sells seller 3's products
	)

	p := createProduct(t, productRequest{
		CategoryID: 3,
		Title:      "Revenue Test Trivet",
		Price:      12.50,
		Quantity:   20,
		SellerID:   sellerID,
	})

	addToCart(t, buyerID, p.ID, 4)

	resp := doPost(t, fmt.Sprintf("/api/carts/%d/checkout", buyerID), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d", resp.StatusCode)
	}

	revResp := doGet(t, fmt.Sprintf("/api/sellers/%d/revenue", sellerID))
	defer revResp.Body.Close()
	if revResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", revResp.StatusCode)
	}

	rev := decodeJSON[revenueResponse](t, revResp)
	if rev.SellerID != sellerID {
		t.Errorf("sellerId: got %d, want %d", rev.SellerID, sellerID)
	}
	if rev.Revenue != 50.00 {
		t.Errorf("revenue: got %v, want 50.00", rev.Revenue)
	}

	salesResp := doGet(t, fmt.Sprintf("/api/sellers/%d/sales", sellerID))
	defer salesResp.Body.Close()
	entries := decodeJSON[[]historyEntryResponse](t, salesResp)
	if len(entries) != 1 {
		t.Fatalf("expected 1 sale for seller %d, got %d", sellerID, len(entries))
	}
	if entries[0].ProductTitle != "Revenue Test Trivet" || entries[0].Amount != 50.00 {
		t.Errorf("sale entry: %+v", entries[0])
	}
}

func TestSellerSales_EmptyForUnknownSeller(t *testing.T) {
	resp := doGet(t, "/api/sellers/999/sales")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	entries := decodeJSON[[]historyEntryResponse](t, resp)
	if len(entries) != 0 {
		t.Errorf("expected no sales, got %d", len(entries))
	}
}
