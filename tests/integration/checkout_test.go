//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

func addToCart(t *testing.T, buyerID, productID int64, quantity int) {
	t.Helper()

	resp := doPost(t, fmt.Sprintf("/api/carts/%d/items", buyerID), addItemRequest{
		ProductID: productID,
		Quantity:  quantity,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("add to cart: expected 204, got %d", resp.StatusCode)
	}
}

func getCart(t *testing.T, buyerID int64) cartResponse {
	t.Helper()

	resp := doGet(t, fmt.Sprintf("/api/carts/%d", buyerID))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get cart: expected 200, got %d", resp.StatusCode)
	}
	return decodeJSON[cartResponse](t, resp)
}

func getProduct(t *testing.T, id int64) productResponse {
	t.Helper()

	resp := doGet(t, fmt.Sprintf("/api/products/%d", id))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get product: expected 200, got %d", resp.StatusCode)
	}
	return decodeJSON[productResponse](t, resp)
}

func TestCart_AddAndGet(t *testing.T) {
	const buyerID = 1

	addToCart(t, buyerID, 8, 2) // Insulated Water Bottle, $19.95

	c := getCart(t, buyerID)
	if len(c.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(c.Lines))
	}
	if c.Lines[0].ProductID != 8 || c.Lines[0].Quantity != 2 {
		t.Errorf("line: %+v", c.Lines[0])
	}
	if c.Total != 39.90 {
		t.Errorf("total: got %v, want 39.90", c.Total)
	}

	// Clean up so later buyer-1 state is predictable.
	resp := doDelete(t, fmt.Sprintf("/api/carts/%d", buyerID))
	resp.Body.Close()
}

func TestCart_InvalidQuantity(t *testing.T) {
	resp := doPost(t, "/api/carts/1/items", addItemRequest{ProductID: 8, Quantity: 0})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	resp := doPost(t, "/api/carts/50/checkout", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCheckout_Success(t *testing.T) {
	const buyerID = 2

	p := createProduct(t, productRequest{
		CategoryID: 1,
		Title:      "Checkout Test Webcam",
		Price:      10.00,
		Quantity:   5,
		SellerID:   1,
	})

	addToCart(t, buyerID, p.ID, 3)

	resp := doPost(t, fmt.Sprintf("/api/carts/%d/checkout", buyerID), nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	result := decodeJSON[checkoutResponse](t, resp)
	if len(result.SaleIDs) != 1 {
		t.Fatalf("expected 1 sale, got %d", len(result.SaleIDs))
	}

	if got := getProduct(t, p.ID).Quantity; got != 2 {
		t.Errorf("stock after checkout: got %d, want 2", got)
	}
	if c := getCart(t, buyerID); len(c.Lines) != 0 {
		t.Errorf("cart not cleared: %d lines remain", len(c.Lines))
	}

	histResp := doGet(t, fmt.Sprintf("/api/buyers/%d/purchases", buyerID))
	defer histResp.Body.Close()
	purchases := decodeJSON[[]historyEntryResponse](t, histResp)
	if len(purchases) == 0 {
		t.Fatal("expected purchase history")
	}
	latest := purchases[0]
	if latest.SalePrice != 10.00 || latest.SoldQuantity != 3 || latest.Amount != 30.00 {
		t.Errorf("purchase entry: %+v", latest)
	}
}

func TestCheckout_InsufficientStock(t *testing.T) {
	const buyerID = 3

	p := createProduct(t, productRequest{
		CategoryID: 1,
		Title:      "Scarce Dongle",
		Price:      5.00,
		Quantity:   2,
		SellerID:   1,
	})

	addToCart(t, buyerID, p.ID, 3)

	resp := doPost(t, fmt.Sprintf("/api/carts/%d/checkout", buyerID), nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	body := decodeJSON[stockErrorResponse](t, resp)
	if body.ProductID != p.ID {
		t.Errorf("productId: got %d, want %d", body.ProductID, p.ID)
	}
	if body.Requested != 3 || body.Available != 2 || body.Shortfall != 1 {
		t.Errorf("discrepancy: %+v", body)
	}

	if got := getProduct(t, p.ID).Quantity; got != 2 {
		t.Errorf("stock after rejection: got %d, want 2", got)
	}
	if c := getCart(t, buyerID); len(c.Lines) != 1 {
		t.Errorf("cart must survive a failed checkout, got %d lines", len(c.Lines))
	}
}

func TestCheckout_AppliesActivePromotion(t *testing.T) {
	const buyerID = 4

	p := createProduct(t, productRequest{
		CategoryID: 1,
		Title:      "Promoted Monitor Arm",
		Price:      100.00,
		Quantity:   10,
		SellerID:   2,
	})

	// Promotion active right now, so checkout picks it up.
	now := time.Now().UTC()
	promoResp := doPost(t, "/api/promotions", promotionRequest{
		Name:            "Flash Deal",
		DiscountPercent: 25,
		ValidFrom:       now.Add(-time.Hour),
		ValidTo:         now.Add(time.Hour),
	})
	defer promoResp.Body.Close()
	if promoResp.StatusCode != http.StatusCreated {
		t.Fatalf("create promotion: expected 201, got %d", promoResp.StatusCode)
	}
	created := decodeJSON[promotionResponse](t, promoResp)

	assignResp := doPost(t, fmt.Sprintf("/api/promotions/%d/products", created.ID),
		assignProductRequest{ProductID: p.ID})
	assignResp.Body.Close()
	if assignResp.StatusCode != http.StatusNoContent {
		t.Fatalf("assign promotion: expected 204, got %d", assignResp.StatusCode)
	}

	addToCart(t, buyerID, p.ID, 2)

	resp := doPost(t, fmt.Sprintf("/api/carts/%d/checkout", buyerID), nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	histResp := doGet(t, fmt.Sprintf("/api/buyers/%d/purchases", buyerID))
	defer histResp.Body.Close()
	purchases := decodeJSON[[]historyEntryResponse](t, histResp)
	if len(purchases) == 0 {
		t.Fatal("expected purchase history")
	}
	latest := purchases[0]
	if latest.SalePrice != 75.00 {
		t.Errorf("sale price: got %v, want 75.00", latest.SalePrice)
	}
	if latest.PromotionName != "Flash Deal" {
		t.Errorf("promotion: got %q", latest.PromotionName)
	}
}

func TestCheckout_UnknownProduct(t *testing.T) {
	const buyerID = 5

	// Adding is allowed: stock and existence are only authoritative at
	// checkout.
	addToCart(t, buyerID, 987654, 1)

	resp := doPost(t, fmt.Sprintf("/api/carts/%d/checkout", buyerID), nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCreatePromotion_InvalidDiscount(t *testing.T) {
	now := time.Now().UTC()
	resp := doPost(t, "/api/promotions", promotionRequest{
		Name:            "Free Everything",
		DiscountPercent: 100,
		ValidFrom:       now,
		ValidTo:         now.Add(time.Hour),
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}
