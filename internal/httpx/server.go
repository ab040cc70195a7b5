package httpx

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/utamuwetu/storefront/internal/auth"
	"github.com/utamuwetu/storefront/internal/config"
	"github.com/utamuwetu/storefront/internal/database"
)

func NewRouter(db *sql.DB, cfg *config.Config, log *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	authH := &AuthHandler{DB: db, Cfg: &cfg.Auth, Log: log}
	catalogH := &CatalogHandler{DB: db, Log: log}
	accountH := &AccountHandler{DB: db, Log: log}
	ordersH := &OrdersHandler{DB: db, Log: log}

	authH.Register(r)
	catalogH.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(&cfg.Auth))
		accountH.Register(r)
		ordersH.Register(r)
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeError maps store errors onto HTTP statuses. Workflow failures are
// surfaced verbatim; anything unclassified is logged and hidden behind a 500.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrCategoryNotFound),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrAddressNotFound),
		errors.Is(err, database.ErrVoucherNotFound):
		writeErrorMsg(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrInsufficientStock),
		errors.Is(err, database.ErrVoucherAlreadyUsed),
		errors.Is(err, database.ErrVoucherLimitReached),
		errors.Is(err, database.ErrEmailTaken):
		writeErrorMsg(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrNoShippingAddress),
		errors.Is(err, database.ErrEmptyCart),
		errors.Is(err, database.ErrInvalidQuantity),
		errors.Is(err, database.ErrVoucherExpired),
		errors.Is(err, database.ErrVoucherMinimumNotMet):
		writeErrorMsg(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, database.ErrInvalidCredentials):
		writeErrorMsg(w, http.StatusUnauthorized, err.Error())
	default:
		log.Error("request failed", zap.Error(err))
		writeErrorMsg(w, http.StatusInternalServerError, "internal error")
	}
}
