package httpx

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/utamuwetu/storefront/internal/auth"
	"github.com/utamuwetu/storefront/internal/models"
	"github.com/utamuwetu/storefront/internal/store"
)

type OrdersHandler struct {
	DB  *sql.DB
	Log *zap.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/number/{orderNumber}", h.getOrderByNumber)
	r.Get("/orders/{id}/tracking", h.listTracking)
	r.Post("/orders/{id}/tracking", h.appendTracking)
	r.Post("/orders/{id}/payment", h.setPaymentStatus)
}

type placeOrderRequest struct {
	AddressID   int64  `json:"address_id"`
	VoucherCode string `json:"voucher_code"`
	Items       []struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	} `json:"items"`
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json")
		return
	}

	items := make([]store.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, store.CartItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := store.PlaceOrder(r.Context(), h.DB, store.PlaceOrderRequest{
		UserID:      auth.UserID(r.Context()),
		AddressID:   req.AddressID,
		Items:       items,
		VoucherCode: req.VoucherCode,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	h.Log.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.Int64("user_id", order.UserID),
		zap.String("total", order.TotalAmount.String()),
	)
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	page, err := store.ListOrdersCursor(r.Context(), h.DB, auth.UserID(r.Context()), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := store.GetOrder(r.Context(), h.DB, auth.UserID(r.Context()), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) getOrderByNumber(w http.ResponseWriter, r *http.Request) {
	order, err := store.GetOrderByNumber(r.Context(), h.DB, auth.UserID(r.Context()), chi.URLParam(r, "orderNumber"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) listTracking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if _, err := store.GetOrder(r.Context(), h.DB, auth.UserID(r.Context()), id); err != nil {
		writeError(w, h.Log, err)
		return
	}

	events, err := store.ListTracking(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

type appendTrackingRequest struct {
	Status   string `json:"status"`
	Location string `json:"location"`
	Message  string `json:"message"`
}

func (h *OrdersHandler) appendTracking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req appendTrackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !models.ValidDeliveryStatus(req.Status) {
		writeErrorMsg(w, http.StatusBadRequest, "status must be one of Processing, Shipped, Delivered, Cancelled")
		return
	}

	event, err := store.AppendTracking(r.Context(), h.DB, id, store.AppendTrackingRequest{
		Status:   req.Status,
		Location: req.Location,
		Message:  req.Message,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

type setPaymentStatusRequest struct {
	Status        string  `json:"status"`
	TransactionID *string `json:"transaction_id"`
}

func (h *OrdersHandler) setPaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req setPaymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !models.ValidPaymentStatus(req.Status) {
		writeErrorMsg(w, http.StatusBadRequest, "status must be one of P, C, F")
		return
	}

	order, err := store.SetPaymentStatus(r.Context(), h.DB, id, req.Status, req.TransactionID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
