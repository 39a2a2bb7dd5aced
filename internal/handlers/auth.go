package handlers

import (
	"encoding/json"
	"net/http"

	"CardKeeper/internal/config"
	"CardKeeper/internal/middleware"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler выдаёт токены клиентам по client_id/client_secret.
type AuthHandler struct {
	Logger *zap.SugaredLogger
	Config *config.Config
}

func NewAuthHandler(logger *zap.SugaredLogger, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Logger: logger, Config: cfg}
}

type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Token проверяет учётные данные клиента и выставляет cookie с JWT.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Token: invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if req.ClientID != h.Config.ClientID || h.Config.ClientSecretHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(h.Config.ClientSecretHash), []byte(req.ClientSecret)) != nil {
		h.Logger.Warnw("Token: invalid credentials", "client_id", req.ClientID)
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := middleware.SetLoginCookie(w, req.ClientID, h.Config.AuthSecret)
	if err != nil {
		h.Logger.Errorw("Token: failed to issue token", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(tokenResponse{Token: token})
}

// Ping — проверка доступности шлюза, без авторизации.
func Ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}
