package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Profile      *Profile  `json:"profile,omitempty"`
}

// Profile is created in the same transaction as its user; there is no
// separate "create profile" operation.
type Profile struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Bio          string    `json:"bio"`
	Coins        int       `json:"coins"`
	IsSubscribed bool      `json:"is_subscribed"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	AddressTypeHome   = "HOME"
	AddressTypeOffice = "OFFICE"
	AddressTypeOther  = "OTHER"
)

type Address struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	FullName      string `json:"full_name"`
	PhoneNumber   string `json:"phone_number"`
	County        string `json:"county"`
	Estate        string `json:"estate"`
	HouseNumber   string `json:"house_number"`
	StreetAddress string `json:"street_address,omitempty"`
	IsDefault     bool   `json:"is_default"`
	AddressType   string `json:"address_type"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID          int64           `json:"id"`
	SKU         string          `json:"sku"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	OldPrice    decimal.Decimal `json:"old_price"`
	CategoryID  int64           `json:"category_id"`
	BrandID     *int64          `json:"brand_id,omitempty"`
	IsPopular   bool            `json:"is_popular"`
	IsHotDeal   bool            `json:"is_hot_deal"`
	TotalStock  int             `json:"total_stock"`
	SoldCount   int             `json:"sold_count"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// StockAvailable is total stock minus units already sold, floored at zero.
func (p *Product) StockAvailable() int {
	if avail := p.TotalStock - p.SoldCount; avail > 0 {
		return avail
	}
	return 0
}

const (
	PaymentStatusPending  = "P"
	PaymentStatusComplete = "C"
	PaymentStatusFailed   = "F"
)

const (
	DeliveryStatusProcessing = "Processing"
	DeliveryStatusShipped    = "Shipped"
	DeliveryStatusDelivered  = "Delivered"
	DeliveryStatusCancelled  = "Cancelled"
)

func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusComplete, PaymentStatusFailed:
		return true
	}
	return false
}

func ValidDeliveryStatus(s string) bool {
	switch s {
	case DeliveryStatusProcessing, DeliveryStatusShipped,
		DeliveryStatusDelivered, DeliveryStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	AddressID      *int64          `json:"address_id,omitempty"`
	OrderNumber    string          `json:"order_number"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Discount       decimal.Decimal `json:"discount"`
	PaymentStatus  string          `json:"payment_status"`
	DeliveryStatus string          `json:"delivery_status"`
	TransactionID  *string         `json:"transaction_id,omitempty"`
	TrackingNumber *string         `json:"tracking_number,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Items          []OrderItem     `json:"items,omitempty"`
}

// OrderItem keeps a weak product reference: the product row may be deleted
// later, the snapshot price and quantity never change.
type OrderItem struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"order_id"`
	ProductID       *int64          `json:"product_id,omitempty"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

func (i *OrderItem) TotalItemPrice() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type TrackingEvent struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Status    string    `json:"status"`
	Location  string    `json:"location,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Voucher struct {
	ID                int64           `json:"id"`
	Code              string          `json:"code"`
	DiscountAmount    decimal.Decimal `json:"discount_amount"`
	IsPercentage      bool            `json:"is_percentage"`
	MinPurchaseAmount decimal.Decimal `json:"min_purchase_amount"`
	ValidFrom         time.Time       `json:"valid_from"`
	ValidTo           *time.Time      `json:"valid_to,omitempty"`
	Active            bool            `json:"active"`
	UsageLimit        int             `json:"usage_limit"`
}

// ValidAt reports whether the voucher can be applied at the given instant.
// A voucher with no end date is never valid.
func (v *Voucher) ValidAt(now time.Time) bool {
	if !v.Active || v.ValidTo == nil {
		return false
	}
	return !now.Before(v.ValidFrom) && !now.After(*v.ValidTo)
}

var oneHundred = decimal.NewFromInt(100)

// Discount computes the reduction this voucher applies to a subtotal.
// Percentage vouchers take discount_amount% of the subtotal; flat vouchers
// subtract discount_amount, capped so the payable total never goes negative.
func (v *Voucher) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if v.IsPercentage {
		return subtotal.Mul(v.DiscountAmount).Div(oneHundred)
	}
	if v.DiscountAmount.GreaterThan(subtotal) {
		return subtotal
	}
	return v.DiscountAmount
}

type VoucherUsage struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	VoucherID int64     `json:"voucher_id"`
	UsedAt    time.Time `json:"used_at"`
}
