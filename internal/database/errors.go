package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

// ConstraintOrderNumber is the unique index on orders.order_number. A
// collision here means the generated ORD-XXXXXXXX number is already taken;
// the workflow re-rolls a fresh number on retry instead of failing the order.
const ConstraintOrderNumber = "orders_order_number_key"

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001":
			return ErrorClassSerialization
		case "40P01":
			return ErrorClassDeadlock
		case "55P03":
			return ErrorClassTransient
		case "23505":
			if pqErr.Constraint == ConstraintOrderNumber {
				return ErrorClassTransient
			}
			return ErrorClassPermanent
		case "23503", "23502", "23514":
			return ErrorClassPermanent
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrorClassPermanent
	}

	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	class := ClassifyError(err)
	return class == ErrorClassTransient ||
		class == ErrorClassDeadlock ||
		class == ErrorClassSerialization
}

func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == constraint
}

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrProductNotFound      = errors.New("product not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrAddressNotFound      = errors.New("address not found")
	ErrNoShippingAddress    = errors.New("no shipping address on file")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrVoucherNotFound      = errors.New("voucher not found")
	ErrVoucherExpired       = errors.New("voucher expired or inactive")
	ErrVoucherAlreadyUsed   = errors.New("voucher already used")
	ErrVoucherLimitReached  = errors.New("voucher usage limit reached")
	ErrVoucherMinimumNotMet = errors.New("order total below voucher minimum")
)
