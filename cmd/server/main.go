package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"wassup/infrastructure/db"
	"wassup/infrastructure/ws"
	"wassup/internal/config"
	httpHandler "wassup/internal/delivery/http"
	"wassup/internal/delivery/websocket"
	"wassup/internal/repository"
	"wassup/internal/usecase"
	"wassup/pkg/jwt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("godotenv: no .env file loaded")
	}

	cfg := config.Load()
	ctx := context.Background()

	mongoStore, err := db.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoStore.Close(ctx)

	log.Println("Connected to MongoDB")

	// Initialize repositories
	userRepo := repository.NewUserRepository(*mongoStore.DB)
	messageRepo := repository.NewMessageRepository(*mongoStore.DB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(*mongoStore.DB)

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-this-in-production" // Default for development
		log.Println("Warning: Using default JWT secret. Set JWT_SECRET in .env for production")
	}

	jwtManager := jwt.NewJWTManager(jwtSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authUc := usecase.NewAuthUsecase(userRepo, refreshTokenRepo, jwtManager)

	// The connection registry is the single source of presence truth,
	// shared by whichever hub flavor is in use.
	registry := ws.NewRegistry()

	var hub ws.IHub
	if cfg.RedisAddr != "" {
		log.Printf("Using Redis hub at %s with server ID: %s", cfg.RedisAddr, cfg.ServerID)
		hub = ws.NewRedisHub(registry, cfg.RedisAddr, cfg.ServerID)
	} else {
		log.Println("Using in-memory hub (single server)")
		hub = ws.NewHub(registry)
	}

	notifier := websocket.NewHubNotifier(hub)
	messageUc := usecase.NewMessageUsecase(messageRepo, userRepo, notifier)

	// Initialize handlers
	websocketH := websocket.NewWebsocketHandler(hub, messageUc)
	messageH := httpHandler.NewMessageHandler(messageUc)
	authH := httpHandler.NewAuthHandler(authUc)
	authMiddleware := httpHandler.NewAuthMiddleware(authUc)

	go hub.Run()
	log.Println("Websocket hub is running")

	// Sweep expired refresh tokens in the background.
	go func() {
		ticker := time.NewTicker(12 * time.Hour)
		defer ticker.Stop()
		for {
			if err := refreshTokenRepo.DeleteExpired(ctx); err != nil {
				log.Printf("Delete expired refresh tokens: %v", err)
			}
			<-ticker.C
		}
	}()

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(httpHandler.CORS(cfg.AllowedOrigin))

	httpHandler.MapHttpRoutes(router, messageH, websocketH, authH, authMiddleware, mongoStore)

	log.Printf("HTTP server is running on :%s", cfg.Port)

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal(err)
	}
}
