package http

import (
	"context"
	"net/http"
	wsDelivery "wassup/internal/delivery/websocket"

	"github.com/go-chi/chi/v5"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func statusHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			writeFailure(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
		w.Write([]byte("Server is live"))
	}
}

func MapHttpRoutes(r *chi.Mux, messageHandler *MessageHandler, websocketHandler *wsDelivery.WebsocketHandler, authHandler *AuthHandler, authMiddleware *AuthMiddleware, store Pinger) {
	r.Get("/ws", http.HandlerFunc(websocketHandler.HandleWebSocket))

	r.Get("/api/status", statusHandler(store))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", http.HandlerFunc(authHandler.Signup))
		r.Post("/login", http.HandlerFunc(authHandler.Login))
		r.Post("/refresh", http.HandlerFunc(authHandler.RefreshToken))
		r.Post("/logout", http.HandlerFunc(authHandler.Logout))

		// Protected auth routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Get("/check", http.HandlerFunc(authHandler.Check))
			r.Put("/update-profile", http.HandlerFunc(authHandler.UpdateProfile))
			r.Post("/logout-all", http.HandlerFunc(authHandler.LogoutAllDevices))
		})
	})

	r.Route("/api/messages", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Get("/users", http.HandlerFunc(messageHandler.GetUsers))
		r.Get("/{id}", http.HandlerFunc(messageHandler.GetMessages))
		r.Post("/send/{id}", http.HandlerFunc(messageHandler.SendMessage))
		r.Put("/mark/{id}", http.HandlerFunc(messageHandler.MarkMessageSeen))
	})
}
