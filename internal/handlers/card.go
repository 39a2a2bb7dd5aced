package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"CardKeeper/internal/common"
	"CardKeeper/internal/middleware"
	"CardKeeper/internal/model"
	"CardKeeper/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CardHandler принимает карточки, которые синхронизируют клиенты.
type CardHandler struct {
	CardService *service.CardService
	Logger      *zap.SugaredLogger
}

// NewCardHandler создаёт хендлер cards
func NewCardHandler(cardService *service.CardService, logger *zap.SugaredLogger) *CardHandler {
	return &CardHandler{CardService: cardService, Logger: logger}
}

// Upsert сохраняет строку карточки (идемпотентно по id).
func (h *CardHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	clientID, _ := middleware.GetClientIDFromContext(r.Context())

	var card model.Card
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		h.Logger.Warnw("Upsert: invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.CardService.Upsert(r.Context(), clientID, &card); err != nil {
		if errors.Is(err, common.ErrValidationFailed) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(card)
}

func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	card, err := h.CardService.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, common.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Errorw("Get: service error", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(card)
}

// Delete удаляет карточку. Повторное удаление тоже отвечает 204.
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	clientID, _ := middleware.GetClientIDFromContext(r.Context())

	if err := h.CardService.Delete(r.Context(), clientID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, common.ErrValidationFailed) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
