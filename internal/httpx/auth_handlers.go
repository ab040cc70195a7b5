package httpx

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/utamuwetu/storefront/internal/auth"
	"github.com/utamuwetu/storefront/internal/config"
	"github.com/utamuwetu/storefront/internal/models"
	"github.com/utamuwetu/storefront/internal/store"
)

type AuthHandler struct {
	DB  *sql.DB
	Cfg *config.AuthConfig
	Log *zap.Logger
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Email == "" || req.Username == "" || len(req.Password) < 8 {
		writeErrorMsg(w, http.StatusBadRequest, "email, username and a password of at least 8 characters are required")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Email, req.Username, req.Password)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	token, err := auth.GenerateToken(h.Cfg, user.ID, user.Username)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	h.Log.Info("user registered", zap.Int64("user_id", user.ID))
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, User: user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json")
		return
	}

	user, err := store.Authenticate(r.Context(), h.DB, req.Email, req.Password)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	token, err := auth.GenerateToken(h.Cfg, user.ID, user.Username)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token, User: user})
}
