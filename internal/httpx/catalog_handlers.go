package httpx

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/utamuwetu/storefront/internal/models"
	"github.com/utamuwetu/storefront/internal/store"
)

type CatalogHandler struct {
	DB  *sql.DB
	Log *zap.Logger
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/categories", h.listCategories)
	r.Post("/categories", h.createCategory)
	r.Get("/brands", h.listBrands)
	r.Post("/brands", h.createBrand)
	r.Get("/vouchers/{code}", h.checkVoucher)
	r.Post("/vouchers", h.createVoucher)
}

func pageParams(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	result, err := store.ListProducts(r.Context(), h.DB, page, pageSize)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type createProductRequest struct {
	SKU         string `json:"sku"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	OldPrice    string `json:"old_price"`
	CategoryID  int64  `json:"category_id"`
	BrandID     *int64 `json:"brand_id"`
	TotalStock  int    `json:"total_stock"`
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json")
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid price")
		return
	}
	oldPrice := price
	if req.OldPrice != "" {
		if oldPrice, err = decimal.NewFromString(req.OldPrice); err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "invalid old_price")
			return
		}
	}
	if req.SKU == "" || req.Slug == "" || req.Title == "" || req.CategoryID == 0 {
		writeErrorMsg(w, http.StatusBadRequest, "sku, slug, title and category_id are required")
		return
	}

	product, err := store.CreateProduct(r.Context(), h.DB, store.CreateProductRequest{
		SKU:         req.SKU,
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Price:       price,
		OldPrice:    oldPrice,
		CategoryID:  req.CategoryID,
		BrandID:     req.BrandID,
		TotalStock:  req.TotalStock,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := store.GetProduct(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), h.DB)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

type nameRequest struct {
	Name string `json:"name"`
}

func (h *CatalogHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeErrorMsg(w, http.StatusBadRequest, "name is required")
		return
	}

	category, err := store.CreateCategory(r.Context(), h.DB, req.Name)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusCreated, category)
}

func (h *CatalogHandler) listBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := store.ListBrands(r.Context(), h.DB)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, brands)
}

func (h *CatalogHandler) createBrand(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeErrorMsg(w, http.StatusBadRequest, "name is required")
		return
	}

	brand, err := store.CreateBrand(r.Context(), h.DB, req.Name)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusCreated, brand)
}

type checkVoucherResponse struct {
	Voucher *models.Voucher `json:"voucher"`
	Valid   bool            `json:"valid"`
}

func (h *CatalogHandler) checkVoucher(w http.ResponseWriter, r *http.Request) {
	voucher, err := store.GetVoucher(r.Context(), h.DB, chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, checkVoucherResponse{
		Voucher: voucher,
		Valid:   voucher.ValidAt(time.Now()),
	})
}

type createVoucherRequest struct {
	Code              string     `json:"code"`
	DiscountAmount    string     `json:"discount_amount"`
	IsPercentage      bool       `json:"is_percentage"`
	MinPurchaseAmount string     `json:"min_purchase_amount"`
	ValidFrom         *time.Time `json:"valid_from"`
	ValidTo           *time.Time `json:"valid_to"`
	UsageLimit        int        `json:"usage_limit"`
}

func (h *CatalogHandler) createVoucher(w http.ResponseWriter, r *http.Request) {
	var req createVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Code == "" {
		writeErrorMsg(w, http.StatusBadRequest, "code is required")
		return
	}

	amount, err := decimal.NewFromString(req.DiscountAmount)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid discount_amount")
		return
	}
	minPurchase := decimal.Zero
	if req.MinPurchaseAmount != "" {
		if minPurchase, err = decimal.NewFromString(req.MinPurchaseAmount); err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "invalid min_purchase_amount")
			return
		}
	}

	storeReq := store.CreateVoucherRequest{
		Code:              req.Code,
		DiscountAmount:    amount,
		IsPercentage:      req.IsPercentage,
		MinPurchaseAmount: minPurchase,
		ValidTo:           req.ValidTo,
		UsageLimit:        req.UsageLimit,
	}
	if req.ValidFrom != nil {
		storeReq.ValidFrom = *req.ValidFrom
	}

	voucher, err := store.CreateVoucher(r.Context(), h.DB, storeReq)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusCreated, voucher)
}
