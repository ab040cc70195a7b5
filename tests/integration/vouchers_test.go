package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utamuwetu/storefront/internal/database"
	"github.com/utamuwetu/storefront/internal/store"
)

func TestVoucherFlatDiscount(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "flat@example.com")
	createTestAddress(t, db, user.ID, true)
	product := createTestProduct(t, db, "VCH-FLAT", 100, 20)
	createTestVoucher(t, db, "KARIBU50", 50, false, 0, 10)

	order, err := store.PlaceOrder(ctx, db, store.PlaceOrderRequest{
		UserID:      user.ID,
		Items:       []store.CartItem{{ProductID: product.ID, Quantity: 2}},
		VoucherCode: "karibu50",
	})
	if err != nil {
		t.Fatalf("Place order with voucher: %v", err)
	}

	if !order.Discount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected discount 50, got %s", order.Discount)
	}
	if !order.TotalAmount.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Expected total 150, got %s", order.TotalAmount)
	}
}

func TestVoucherPercentageDiscount(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "pct@example.com")
	createTestAddress(t, db, user.ID, true)
	product := createTestProduct(t, db, "VCH-PCT", 200, 20)
	createTestVoucher(t, db, "ASILIMIA10", 10, true, 0, 10)

	order, err := store.PlaceOrder(ctx, db, store.PlaceOrderRequest{
		UserID:      user.ID,
		Items:       []store.CartItem{{ProductID: product.ID, Quantity: 1}},
		VoucherCode: "ASILIMIA10",
	})
	if err != nil {
		t.Fatalf("Place order with voucher: %v", err)
	}

	if !order.TotalAmount.Equal(decimal.NewFromInt(180)) {
		t.Errorf("Expected total 180, got %s", order.TotalAmount)
	}
}

func TestVoucherFlooredAtZero(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "floor@example.com")
	createTestAddress(t, db, user.ID, true)
	product := createTestProduct(t, db, "VCH-FLOOR", 30, 20)
	createTestVoucher(t, db, "MEGA500", 500, false, 0, 10)

	order, err := store.PlaceOrder(ctx, db, store.PlaceOrderRequest{
		UserID:      user.ID,
		Items:       []store.CartItem{{ProductID: product.ID, Quantity: 1}},
		VoucherCode: "MEGA500",
	})
	if err != nil {
		t.Fatalf("Place order with voucher: %v", err)
	}

	if !order.TotalAmount.IsZero() {
		t.Errorf("Expected total 0, got %s", order.TotalAmount)
	}
}

func TestVoucherSingleUsePerUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	userA := createTestUser(t, db, "usera@example.com")
	createTestAddress(t, db, userA.ID, true)
	userB := createTestUser(t, db, "userb@example.com")
	createTestAddress(t, db, userB.ID, true)
	product := createTestProduct(t, db, "VCH-ONCE", 100, 50)
	createTestVoucher(t, db, "MOJA", 10, false, 0, 5)

	if _, err := store.PlaceOrder(ctx, db, store.PlaceOrderRequest{
		UserID:      userA.ID,
		Items:       []store.CartItem{{ProductID: product.ID, Quantity: 1}},
		VoucherCode: "MOJA",
	}); err != nil {
		t.Fatalf("First redemption: %v", err)
	}

	// Same user again: rejected, and the failed attempt must not create an
	// order at all.
	_, err := store.PlaceOrder(ctx, db, store.PlaceOrderRequest{
		UserID:      userA.ID,
		Items:       []store.CartItem{{ProductID: product.ID, Quantity: 1}},
		VoucherCode: "MOJA",
	})
	if !errors.Is(err, database.ErrVoucherAlreadyUsed) {
		t.Errorf("Expected ErrVoucherAlreadyUsed, got: %v", err)
	}

	var orders int
	if err := db.QueryRow(`SELECT COUNT(*) FROM orders WHERE user_id = $1`, userA.ID).Scan(&orders); err != nil {
		t.Fatalf("Count orders: %v", err)
	}
	if orders != 1 {
		t.Errorf("Expected 1 order for user A, got %d", orders)
	}

	// A different user may still redeem.
	if _, err := store.PlaceOrder(ctx, db, store.PlaceOrderRequest{
		UserID:      userB.ID,
		Items:       []store.CartItem{{ProductID: product.ID, Quantity: 1}},
		VoucherCode: "MOJA",
	}); err != nil {
		t.Errorf("Second user redemption failed: %v", err)
	}
}

func TestVoucherUsageLimit(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product := createTestProduct(t, db, "VCH-LIMIT", 100, 50)
	createTestVoucher(t, db, "WAWILI", 10, false, 0, 2)

	emails := []string{"l1@example.com", "l2@example.com", "l3@example.com"}
	var errs []error
	for _, email := range emails {
		u := createTestUser(t, db, email)
		createTestAddress(t, db, u.ID, true)
		_, err := store.PlaceOrder(ctx, db, store.PlaceOrderRequest{
			UserID:      u.ID,
			Items:       []store.CartItem{{ProductID: product.ID, Quantity: 1}},
			VoucherCode: "WAWILI",
		})
		errs = append(errs, err)
	}

	if errs[0] != nil || errs[1] != nil {
		t.Errorf("First two redemptions should succeed: %v, %v", errs[0], errs[1])
	}
	if !errors.Is(errs[2], database.ErrVoucherLimitReached) {
		t.Errorf("Expected ErrVoucherLimitReached, got: %v", errs[2])
	}
}

func TestVoucherRejections(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "reject@example.com")
	createTestAddress(t, db, user.ID, true)
	product := createTestProduct(t, db, "VCH-BAD", 100, 50)

	_, err := store.PlaceOrder(ctx, db, store.PlaceOrderRequest{
		UserID:      user.ID,
		Items:       []store.CartItem{{ProductID: product.ID, Quantity: 1}},
		VoucherCode: "HAIPO",
	})
	if !errors.Is(err, database.ErrVoucherNotFound) {
		t.Errorf("Expected ErrVoucherNotFound, got: %v", err)
	}

	// Expired window.
	past := time.Now().Add(-time.Hour)
	if _, err := store.CreateVoucher(ctx, db, store.CreateVoucherRequest{
		Code:           "ZAMANI",
		DiscountAmount: decimal.NewFromInt(10),
		ValidFrom:      past.Add(-24 * time.Hour),
		ValidTo:        &past,
		UsageLimit:     5,
	}); err != nil {
		t.Fatalf("Create expired voucher: %v", err)
	}
	_, err = store.PlaceOrder(ctx, db, store.PlaceOrderRequest{
		UserID:      user.ID,
		Items:       []store.CartItem{{ProductID: product.ID, Quantity: 1}},
		VoucherCode: "ZAMANI",
	})
	if !errors.Is(err, database.ErrVoucherExpired) {
		t.Errorf("Expected ErrVoucherExpired, got: %v", err)
	}

	// No end date: never valid.
	if _, err := store.CreateVoucher(ctx, db, store.CreateVoucherRequest{
		Code:           "WAZI",
		DiscountAmount: decimal.NewFromInt(10),
		UsageLimit:     5,
	}); err != nil {
		t.Fatalf("Create open-ended voucher: %v", err)
	}
	_, err = store.PlaceOrder(ctx, db, store.PlaceOrderRequest{
		UserID:      user.ID,
		Items:       []store.CartItem{{ProductID: product.ID, Quantity: 1}},
		VoucherCode: "WAZI",
	})
	if !errors.Is(err, database.ErrVoucherExpired) {
		t.Errorf("Expected ErrVoucherExpired for open-ended voucher, got: %v", err)
	}

	// Minimum purchase not met.
	createTestVoucher(t, db, "KUBWA", 20, false, 500, 5)
	_, err = store.PlaceOrder(ctx, db, store.PlaceOrderRequest{
		UserID:      user.ID,
		Items:       []store.CartItem{{ProductID: product.ID, Quantity: 1}},
		VoucherCode: "KUBWA",
	})
	if !errors.Is(err, database.ErrVoucherMinimumNotMet) {
		t.Errorf("Expected ErrVoucherMinimumNotMet, got: %v", err)
	}
}
