package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/TomaTV/taquiz.fr/config"
	"github.com/TomaTV/taquiz.fr/internal/handlers"
	"github.com/TomaTV/taquiz.fr/internal/repository"
	"github.com/TomaTV/taquiz.fr/internal/store"
	ws "github.com/TomaTV/taquiz.fr/internal/websocket"
	"github.com/TomaTV/taquiz.fr/pkg/cache"
)

func main() {
	cfg := config.Load()
	log.Println("Configuration loaded")

	var sessionStore store.Store
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		// Single-process mode: sessions live in memory and are lost on
		// restart, which is fine for local play.
		log.Printf("Warning: Failed to connect to Redis, using in-memory store: %v", err)
		sessionStore = store.NewMemoryStore()
	} else {
		log.Println("Connected to Redis")
		defer redisClient.Close()
		sessionStore = store.NewRedisStore(redisClient)
	}

	sessionRepo := repository.NewSessionRepository(sessionStore)

	hub := ws.NewHub(sessionRepo)
	go hub.Run()
	log.Println("WebSocket hub started")

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "session-service",
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})

	wsHandler := handlers.NewWebSocketHandler(hub)
	router.GET("/ws", wsHandler.HandleWebSocket)

	httpAddr := ":" + cfg.Server.HTTPPort
	log.Printf("Session service starting on port %s...", cfg.Server.HTTPPort)

	go func() {
		if err := router.Run(httpAddr); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Session service stopped")
}
