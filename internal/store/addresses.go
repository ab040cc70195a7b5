package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/utamuwetu/storefront/internal/database"
	"github.com/utamuwetu/storefront/internal/models"
)

const addressColumns = `id, user_id, full_name, phone_number, county, estate,
	house_number, street_address, is_default, address_type`

func scanAddress(row interface{ Scan(...any) error }, a *models.Address) error {
	return row.Scan(
		&a.ID,
		&a.UserID,
		&a.FullName,
		&a.PhoneNumber,
		&a.County,
		&a.Estate,
		&a.HouseNumber,
		&a.StreetAddress,
		&a.IsDefault,
		&a.AddressType,
	)
}

type CreateAddressRequest struct {
	FullName      string
	PhoneNumber   string
	County        string
	Estate        string
	HouseNumber   string
	StreetAddress string
	IsDefault     bool
	AddressType   string
}

// CreateAddress inserts an address for the user. When the new address is
// flagged default, any previous default is cleared in the same transaction.
func CreateAddress(ctx context.Context, db *sql.DB, userID int64, req CreateAddressRequest) (*models.Address, error) {
	if req.County == "" {
		req.County = "Nairobi"
	}
	if req.AddressType == "" {
		req.AddressType = models.AddressTypeHome
	}

	address := &models.Address{}

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if req.IsDefault {
			if _, err := tx.ExecContext(ctx,
				`UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`,
				userID); err != nil {
				return fmt.Errorf("clear default addresses: %w", err)
			}
		}

		err := scanAddress(tx.QueryRowContext(ctx,
			`INSERT INTO addresses (user_id, full_name, phone_number, county, estate,
			                        house_number, street_address, is_default, address_type)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING `+addressColumns,
			userID, req.FullName, req.PhoneNumber, req.County, req.Estate,
			req.HouseNumber, req.StreetAddress, req.IsDefault, req.AddressType), address)
		if err != nil {
			return fmt.Errorf("create address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return address, nil
}

// GetAddress resolves an address only when it belongs to ownerUserID.
func GetAddress(ctx context.Context, db *sql.DB, id, ownerUserID int64) (*models.Address, error) {
	address := &models.Address{}

	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 AND user_id = $2`

	err := scanAddress(db.QueryRowContext(ctx, query, id, ownerUserID), address)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrAddressNotFound
		}
		return nil, fmt.Errorf("get address: %w", err)
	}

	return address, nil
}

func GetDefaultAddress(ctx context.Context, db *sql.DB, userID int64) (*models.Address, error) {
	address := &models.Address{}

	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 AND is_default`

	err := scanAddress(db.QueryRowContext(ctx, query, userID), address)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNoShippingAddress
		}
		return nil, fmt.Errorf("get default address: %w", err)
	}

	return address, nil
}

func ListAddresses(ctx context.Context, db *sql.DB, userID int64) ([]models.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY id`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []models.Address
	for rows.Next() {
		var a models.Address
		if err := scanAddress(rows, &a); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, a)
	}

	return addresses, rows.Err()
}

// SetDefaultAddress makes addressID the user's single default. Clearing the
// old default and setting the new one commit together, so at no observable
// point does the user have zero or two defaults.
func SetDefaultAddress(ctx context.Context, db *sql.DB, userID, addressID int64) (*models.Address, error) {
	address := &models.Address{}

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var owned bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM addresses WHERE id = $1 AND user_id = $2)`,
			addressID, userID).Scan(&owned)
		if err != nil {
			return fmt.Errorf("check address ownership: %w", err)
		}
		if !owned {
			return database.ErrAddressNotFound
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND id <> $2 AND is_default`,
			userID, addressID); err != nil {
			return fmt.Errorf("clear default addresses: %w", err)
		}

		err = scanAddress(tx.QueryRowContext(ctx,
			`UPDATE addresses SET is_default = TRUE WHERE id = $1 RETURNING `+addressColumns,
			addressID), address)
		if err != nil {
			return fmt.Errorf("set default address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return address, nil
}
