package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/utamuwetu/storefront/internal/database"
	"github.com/utamuwetu/storefront/internal/models"
)

const productColumns = `id, sku, slug, title, description, price, old_price,
	category_id, brand_id, is_popular, is_hot_deal, total_stock, sold_count,
	created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }, p *models.Product) error {
	return row.Scan(
		&p.ID,
		&p.SKU,
		&p.Slug,
		&p.Title,
		&p.Description,
		&p.Price,
		&p.OldPrice,
		&p.CategoryID,
		&p.BrandID,
		&p.IsPopular,
		&p.IsHotDeal,
		&p.TotalStock,
		&p.SoldCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

type CreateProductRequest struct {
	SKU         string
	Slug        string
	Title       string
	Description string
	Price       decimal.Decimal
	OldPrice    decimal.Decimal
	CategoryID  int64
	BrandID     *int64
	TotalStock  int
}

func CreateProduct(ctx context.Context, db *sql.DB, req CreateProductRequest) (*models.Product, error) {
	product := &models.Product{}

	query := `
		INSERT INTO products (sku, slug, title, description, price, old_price,
		                      category_id, brand_id, total_stock, sold_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, NOW(), NOW())
		RETURNING ` + productColumns

	err := scanProduct(db.QueryRowContext(ctx, query,
		req.SKU, req.Slug, req.Title, req.Description, req.Price, req.OldPrice,
		req.CategoryID, req.BrandID, req.TotalStock), product)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	product := &models.Product{}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	err := scanProduct(db.QueryRowContext(ctx, query, id), product)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// LockProduct reads a product row under FOR UPDATE so its price snapshot and
// stock counters stay stable for the rest of the transaction.
func LockProduct(ctx context.Context, tx *sql.Tx, productID int64) (*models.Product, error) {
	product := &models.Product{}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	err := scanProduct(tx.QueryRowContext(ctx, query, productID), product)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("lock product %d: %w", productID, err)
	}

	return product, nil
}

// ReserveStock bumps sold_count only while the invariant
// sold_count + qty <= total_stock holds; zero rows affected means another
// transaction got there first or stock was short all along.
func ReserveStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET sold_count = sold_count + $1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND sold_count + $1 <= total_stock`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("product %d: %w", productID, database.ErrInsufficientStock)
	}

	return nil
}

func ListProducts(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		if err := scanProduct(rows, &product); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &OffsetPage{
		Items:      products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func CreateCategory(ctx context.Context, db *sql.DB, name string) (*models.Category, error) {
	category := &models.Category{}

	err := db.QueryRowContext(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id, name`,
		name).Scan(&category.ID, &category.Name)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	return category, nil
}

func ListCategories(ctx context.Context, db *sql.DB) ([]models.Category, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

func CreateBrand(ctx context.Context, db *sql.DB, name string) (*models.Brand, error) {
	brand := &models.Brand{}

	err := db.QueryRowContext(ctx,
		`INSERT INTO brands (name) VALUES ($1) RETURNING id, name`,
		name).Scan(&brand.ID, &brand.Name)
	if err != nil {
		return nil, fmt.Errorf("create brand: %w", err)
	}

	return brand, nil
}

func ListBrands(ctx context.Context, db *sql.DB) ([]models.Brand, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name FROM brands ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	var brands []models.Brand
	for rows.Next() {
		var b models.Brand
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		brands = append(brands, b)
	}

	return brands, rows.Err()
}
