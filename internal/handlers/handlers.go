package handlers

import (
	"CardKeeper/internal/config"
	"CardKeeper/internal/middleware"
	"CardKeeper/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	cardService *service.CardService,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(config.AuthSecret))

	authHandler := NewAuthHandler(logger, config)
	cardHandler := NewCardHandler(cardService, logger)

	r.Get("/api/ping", Ping)
	r.Post("/api/auth/token", authHandler.Token)

	// Card routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/api/cards", cardHandler.Upsert)
		r.Get("/api/cards/{id}", cardHandler.Get)
		r.Delete("/api/cards/{id}", cardHandler.Delete)
	})

	return &Handler{Router: r}
}
