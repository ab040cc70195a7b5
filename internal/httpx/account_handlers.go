package httpx

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/utamuwetu/storefront/internal/auth"
	"github.com/utamuwetu/storefront/internal/store"
)

type AccountHandler struct {
	DB  *sql.DB
	Log *zap.Logger
}

func (h *AccountHandler) Register(r chi.Router) {
	r.Get("/me", h.me)
	r.Patch("/me/profile", h.updateProfile)
	r.Get("/addresses", h.listAddresses)
	r.Post("/addresses", h.createAddress)
	r.Post("/addresses/{id}/default", h.setDefaultAddress)
}

func (h *AccountHandler) me(w http.ResponseWriter, r *http.Request) {
	user, err := store.GetUser(r.Context(), h.DB, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Bio          *string `json:"bio"`
	IsSubscribed *bool   `json:"is_subscribed"`
}

func (h *AccountHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json")
		return
	}

	profile, err := store.UpdateProfile(r.Context(), h.DB, auth.UserID(r.Context()), store.UpdateProfileRequest{
		Bio:          req.Bio,
		IsSubscribed: req.IsSubscribed,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *AccountHandler) listAddresses(w http.ResponseWriter, r *http.Request) {
	addresses, err := store.ListAddresses(r.Context(), h.DB, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, addresses)
}

type createAddressRequest struct {
	FullName      string `json:"full_name"`
	PhoneNumber   string `json:"phone_number"`
	County        string `json:"county"`
	Estate        string `json:"estate"`
	HouseNumber   string `json:"house_number"`
	StreetAddress string `json:"street_address"`
	IsDefault     bool   `json:"is_default"`
	AddressType   string `json:"address_type"`
}

func (h *AccountHandler) createAddress(w http.ResponseWriter, r *http.Request) {
	var req createAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.FullName == "" || req.PhoneNumber == "" || req.Estate == "" || req.HouseNumber == "" {
		writeErrorMsg(w, http.StatusBadRequest, "full_name, phone_number, estate and house_number are required")
		return
	}

	address, err := store.CreateAddress(r.Context(), h.DB, auth.UserID(r.Context()), store.CreateAddressRequest{
		FullName:      req.FullName,
		PhoneNumber:   req.PhoneNumber,
		County:        req.County,
		Estate:        req.Estate,
		HouseNumber:   req.HouseNumber,
		StreetAddress: req.StreetAddress,
		IsDefault:     req.IsDefault,
		AddressType:   req.AddressType,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusCreated, address)
}

func (h *AccountHandler) setDefaultAddress(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid address id")
		return
	}

	address, err := store.SetDefaultAddress(r.Context(), h.DB, auth.UserID(r.Context()), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, address)
}
