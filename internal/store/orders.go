package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/utamuwetu/storefront/internal/database"
	"github.com/utamuwetu/storefront/internal/models"
)

type CartItem struct {
	ProductID int64
	Quantity  int
}

type PlaceOrderRequest struct {
	UserID int64
	// AddressID zero means "ship to the user's default address".
	AddressID   int64
	Items       []CartItem
	VoucherCode string
}

// generateOrderNumber returns ORD- followed by 8 uppercase hex characters.
// Uniqueness is backed by the orders_order_number_key index: a collision
// surfaces as a retryable error and the next attempt rolls a fresh number.
func generateOrderNumber() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	return "ORD-" + strings.ToUpper(hex.EncodeToString(b[:]))
}

const orderColumns = `id, user_id, address_id, order_number, total_amount,
	discount, payment_status, delivery_status, transaction_id, tracking_number,
	created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }, o *models.Order) error {
	return row.Scan(
		&o.ID,
		&o.UserID,
		&o.AddressID,
		&o.OrderNumber,
		&o.TotalAmount,
		&o.Discount,
		&o.PaymentStatus,
		&o.DeliveryStatus,
		&o.TransactionID,
		&o.TrackingNumber,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}

// PlaceOrder converts a cart into a persisted order: resolve the shipping
// address, lock and validate every product, apply the optional voucher,
// write the order with immutable price snapshots and reserve stock. The
// whole workflow runs in one serializable transaction; any failure rolls
// back every row and every counter, so a failed call leaves no trace.
func PlaceOrder(ctx context.Context, db *sql.DB, req PlaceOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, database.ErrEmptyCart
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, database.ErrInvalidQuantity)
		}
	}

	var order *models.Order

	// Under serializable isolation every contender for the same product row
	// aborts with 40001 when the winner commits, so the retry budget has to
	// cover a realistic burst of concurrent carts, not just one conflict.
	err := database.WithRetry(ctx, db, database.TxOptions{
		IsolationLevel: sql.LevelSerializable,
		MaxRetries:     10,
	}, func(tx *sql.Tx) error {
		address, err := resolveShippingAddress(ctx, tx, req.UserID, req.AddressID)
		if err != nil {
			return err
		}

		// Validation pass: lock every product before writing anything.
		// Locks are taken in ascending product id order so two carts that
		// share products cannot deadlock each other.
		ids := make([]int64, 0, len(req.Items))
		qtyByProduct := make(map[int64]int, len(req.Items))
		for _, item := range req.Items {
			if _, dup := qtyByProduct[item.ProductID]; !dup {
				ids = append(ids, item.ProductID)
			}
			qtyByProduct[item.ProductID] += item.Quantity
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		products := make(map[int64]*models.Product, len(ids))
		for _, id := range ids {
			product, err := LockProduct(ctx, tx, id)
			if err != nil {
				return err
			}
			if qtyByProduct[id] > product.StockAvailable() {
				return fmt.Errorf("product %d: %w", id, database.ErrInsufficientStock)
			}
			products[id] = product
		}

		subtotal := decimal.Zero
		for id, qty := range qtyByProduct {
			subtotal = subtotal.Add(products[id].Price.Mul(decimal.NewFromInt(int64(qty))))
		}

		discount := decimal.Zero
		if req.VoucherCode != "" {
			_, discount, err = redeemVoucher(ctx, tx, req.UserID, req.VoucherCode, subtotal)
			if err != nil {
				return err
			}
		}
		total := subtotal.Sub(discount)
		if total.IsNegative() {
			total = decimal.Zero
		}

		var orderID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (user_id, address_id, order_number, total_amount, discount,
			                     payment_status, delivery_status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
			 RETURNING id`,
			req.UserID, address.ID, generateOrderNumber(), total, discount,
			models.PaymentStatusPending, models.DeliveryStatusProcessing).Scan(&orderID)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, id := range ids {
			product := products[id]
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
				 VALUES ($1, $2, $3, $4)`,
				orderID, id, qtyByProduct[id], product.Price); err != nil {
				return fmt.Errorf("create order item: %w", err)
			}

			if err := ReserveStock(ctx, tx, id, qtyByProduct[id]); err != nil {
				return err
			}
		}

		order = &models.Order{}
		if err := scanOrder(tx.QueryRowContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID), order); err != nil {
			return fmt.Errorf("fetch created order: %w", err)
		}

		order.Items, err = fetchOrderItems(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func resolveShippingAddress(ctx context.Context, tx *sql.Tx, userID, addressID int64) (*models.Address, error) {
	address := &models.Address{}

	var err error
	if addressID > 0 {
		err = scanAddress(tx.QueryRowContext(ctx,
			`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`,
			addressID, userID), address)
		if err == sql.ErrNoRows {
			return nil, database.ErrAddressNotFound
		}
	} else {
		err = scanAddress(tx.QueryRowContext(ctx,
			`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 AND is_default`,
			userID), address)
		if err == sql.ErrNoRows {
			return nil, database.ErrNoShippingAddress
		}
	}
	if err != nil {
		return nil, fmt.Errorf("resolve shipping address: %w", err)
	}

	return address, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func fetchOrderItems(ctx context.Context, q queryer, orderID int64) ([]models.OrderItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, price_at_purchase
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY id`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.PriceAtPurchase,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func GetOrder(ctx context.Context, db *sql.DB, userID, id int64) (*models.Order, error) {
	order := &models.Order{}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`

	err := scanOrder(db.QueryRowContext(ctx, query, id, userID), order)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	order.Items, err = fetchOrderItems(ctx, db, order.ID)
	if err != nil {
		return nil, err
	}

	return order, nil
}

func GetOrderByNumber(ctx context.Context, db *sql.DB, userID int64, orderNumber string) (*models.Order, error) {
	order := &models.Order{}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1 AND user_id = $2`

	err := scanOrder(db.QueryRowContext(ctx, query, orderNumber, userID), order)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order by number: %w", err)
	}

	order.Items, err = fetchOrderItems(ctx, db, order.ID)
	if err != nil {
		return nil, err
	}

	return order, nil
}

func ListOrdersCursor(ctx context.Context, db *sql.DB, userID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, userID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// SetPaymentStatus records the outcome of a payment attempt against the
// order, along with the processor's transaction reference.
func SetPaymentStatus(ctx context.Context, db *sql.DB, orderID int64, status string, transactionID *string) (*models.Order, error) {
	order := &models.Order{}

	err := scanOrder(db.QueryRowContext(ctx,
		`UPDATE orders
		 SET payment_status = $2,
		     transaction_id = COALESCE($3, transaction_id),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+orderColumns,
		orderID, status, transactionID), order)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("set payment status: %w", err)
	}

	return order, nil
}
