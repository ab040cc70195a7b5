package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/utamuwetu/storefront/internal/database"
	"github.com/utamuwetu/storefront/internal/models"
)

const voucherColumns = `id, code, discount_amount, is_percentage,
	min_purchase_amount, valid_from, valid_to, active, usage_limit`

func scanVoucher(row interface{ Scan(...any) error }, v *models.Voucher) error {
	return row.Scan(
		&v.ID,
		&v.Code,
		&v.DiscountAmount,
		&v.IsPercentage,
		&v.MinPurchaseAmount,
		&v.ValidFrom,
		&v.ValidTo,
		&v.Active,
		&v.UsageLimit,
	)
}

type CreateVoucherRequest struct {
	Code              string
	DiscountAmount    decimal.Decimal
	IsPercentage      bool
	MinPurchaseAmount decimal.Decimal
	ValidFrom         time.Time
	ValidTo           *time.Time
	UsageLimit        int
}

func CreateVoucher(ctx context.Context, db *sql.DB, req CreateVoucherRequest) (*models.Voucher, error) {
	if req.ValidFrom.IsZero() {
		req.ValidFrom = time.Now()
	}
	if req.UsageLimit < 1 {
		req.UsageLimit = 1
	}

	voucher := &models.Voucher{}

	err := scanVoucher(db.QueryRowContext(ctx,
		`INSERT INTO vouchers (code, discount_amount, is_percentage, min_purchase_amount,
		                       valid_from, valid_to, active, usage_limit)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7)
		 RETURNING `+voucherColumns,
		strings.ToUpper(req.Code), req.DiscountAmount, req.IsPercentage,
		req.MinPurchaseAmount, req.ValidFrom, req.ValidTo, req.UsageLimit), voucher)
	if err != nil {
		return nil, fmt.Errorf("create voucher: %w", err)
	}

	return voucher, nil
}

// GetVoucher looks up a voucher by code, case-insensitively.
func GetVoucher(ctx context.Context, db *sql.DB, code string) (*models.Voucher, error) {
	voucher := &models.Voucher{}

	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE UPPER(code) = UPPER($1)`

	err := scanVoucher(db.QueryRowContext(ctx, query, code), voucher)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrVoucherNotFound
		}
		return nil, fmt.Errorf("get voucher: %w", err)
	}

	return voucher, nil
}

// lockVoucher serializes concurrent redemptions of the same code so the
// usage-limit check cannot race.
func lockVoucher(ctx context.Context, tx *sql.Tx, code string) (*models.Voucher, error) {
	voucher := &models.Voucher{}

	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE UPPER(code) = UPPER($1) FOR UPDATE`

	err := scanVoucher(tx.QueryRowContext(ctx, query, code), voucher)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrVoucherNotFound
		}
		return nil, fmt.Errorf("lock voucher: %w", err)
	}

	return voucher, nil
}

func HasUsedVoucher(ctx context.Context, tx *sql.Tx, userID, voucherID int64) (bool, error) {
	var used bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM voucher_usages WHERE user_id = $1 AND voucher_id = $2)`,
		userID, voucherID).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("check voucher usage: %w", err)
	}
	return used, nil
}

func countVoucherUsages(ctx context.Context, tx *sql.Tx, voucherID int64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM voucher_usages WHERE voucher_id = $1`,
		voucherID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count voucher usages: %w", err)
	}
	return n, nil
}

func RecordVoucherUsage(ctx context.Context, tx *sql.Tx, userID, voucherID int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO voucher_usages (user_id, voucher_id, used_at) VALUES ($1, $2, NOW())`,
		userID, voucherID)
	if err != nil {
		if database.IsUniqueViolation(err, "voucher_usages_user_id_voucher_id_key") {
			return database.ErrVoucherAlreadyUsed
		}
		return fmt.Errorf("record voucher usage: %w", err)
	}
	return nil
}

// redeemVoucher runs the whole voucher step of the order workflow: validity
// window, per-user single redemption, total usage limit, minimum purchase.
// On success the usage row is written and the discount returned. Everything
// happens on tx, so a later failure in the workflow rolls it back.
func redeemVoucher(ctx context.Context, tx *sql.Tx, userID int64, code string, subtotal decimal.Decimal) (*models.Voucher, decimal.Decimal, error) {
	voucher, err := lockVoucher(ctx, tx, code)
	if err != nil {
		return nil, decimal.Zero, err
	}

	if !voucher.ValidAt(time.Now()) {
		return nil, decimal.Zero, database.ErrVoucherExpired
	}

	used, err := HasUsedVoucher(ctx, tx, userID, voucher.ID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if used {
		return nil, decimal.Zero, database.ErrVoucherAlreadyUsed
	}

	usages, err := countVoucherUsages(ctx, tx, voucher.ID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if usages >= voucher.UsageLimit {
		return nil, decimal.Zero, database.ErrVoucherLimitReached
	}

	if subtotal.LessThan(voucher.MinPurchaseAmount) {
		return nil, decimal.Zero, database.ErrVoucherMinimumNotMet
	}

	if err := RecordVoucherUsage(ctx, tx, userID, voucher.ID); err != nil {
		return nil, decimal.Zero, err
	}

	return voucher, voucher.Discount(subtotal), nil
}
