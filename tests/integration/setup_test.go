package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/utamuwetu/storefront/internal/models"
	"github.com/utamuwetu/storefront/internal/store"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := runMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close database: %v", err)
		}
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func runMigrations(db *sql.DB) error {
	migrationDir := "../../migrations"
	files, err := os.ReadDir(migrationDir)
	if err != nil {
		return fmt.Errorf("read migration directory: %w", err)
	}

	var migrationFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".up.sql") {
			migrationFiles = append(migrationFiles, file.Name())
		}
	}

	sort.Strings(migrationFiles)

	for _, filename := range migrationFiles {
		filePath := filepath.Join(migrationDir, filename)
		content, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", filename, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", filename, err)
		}
	}

	return nil
}

func createTestUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()

	username := strings.SplitN(email, "@", 2)[0]
	user, err := store.CreateUser(context.Background(), db, email, username, "s3cret-pass")
	if err != nil {
		t.Fatalf("Create user %s: %v", email, err)
	}
	return user
}

func createTestAddress(t *testing.T, db *sql.DB, userID int64, isDefault bool) *models.Address {
	t.Helper()

	address, err := store.CreateAddress(context.Background(), db, userID, store.CreateAddressRequest{
		FullName:    "Test Customer",
		PhoneNumber: "+254700000000",
		Estate:      "Nyayo Estate, Gate 2",
		HouseNumber: "Hse 12",
		IsDefault:   isDefault,
	})
	if err != nil {
		t.Fatalf("Create address: %v", err)
	}
	return address
}

func createTestProduct(t *testing.T, db *sql.DB, sku string, price int64, stock int) *models.Product {
	t.Helper()
	ctx := context.Background()

	category, err := store.CreateCategory(ctx, db, "cat-"+sku)
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}

	product, err := store.CreateProduct(ctx, db, store.CreateProductRequest{
		SKU:        sku,
		Slug:       strings.ToLower(sku),
		Title:      "Product " + sku,
		Price:      decimal.NewFromInt(price),
		OldPrice:   decimal.NewFromInt(price),
		CategoryID: category.ID,
		TotalStock: stock,
	})
	if err != nil {
		t.Fatalf("Create product %s: %v", sku, err)
	}
	return product
}

func createTestVoucher(t *testing.T, db *sql.DB, code string, amount int64, percentage bool, minPurchase int64, limit int) *models.Voucher {
	t.Helper()

	validTo := time.Now().Add(24 * time.Hour)
	voucher, err := store.CreateVoucher(context.Background(), db, store.CreateVoucherRequest{
		Code:              code,
		DiscountAmount:    decimal.NewFromInt(amount),
		IsPercentage:      percentage,
		MinPurchaseAmount: decimal.NewFromInt(minPurchase),
		ValidFrom:         time.Now().Add(-time.Hour),
		ValidTo:           &validTo,
		UsageLimit:        limit,
	})
	if err != nil {
		t.Fatalf("Create voucher %s: %v", code, err)
	}
	return voucher
}
