package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatx/config"
	"chatx/database"
	"chatx/handlers"
	"chatx/live"
	"chatx/routes"
	"chatx/store"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("🚀 Starting chatx server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Configuration error: ", err)
	}

	// ===== CONNECT TO MONGODB WITH RETRY =====
	log.Println("🔌 Connecting to MongoDB...")

	var db *database.Mongo
	var dbErr error
	for i := 1; i <= 3; i++ {
		db, dbErr = database.Connect(cfg.MongoURI)
		if dbErr != nil {
			log.Printf("❌ MongoDB connection attempt %d failed: %v", i, dbErr)
			time.Sleep(2 * time.Second)
			continue
		}
		break
	}
	if dbErr != nil {
		log.Fatal("❌ Failed to connect to MongoDB: ", dbErr)
	}
	defer db.Disconnect()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 15*time.Second)
	if err := db.EnsureIndexes(indexCtx); err != nil {
		cancelIndex()
		log.Fatal("❌ Failed to create indexes: ", err)
	}
	cancelIndex()

	log.Println("✅ MongoDB ready")

	// ===== GIN MODE =====
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// ===== SERVICES =====
	users := store.NewUsers(db)
	messages := store.NewMessages(db, users)
	chats := store.NewChats(db, users, messages)
	pushSubs := store.NewPushSubs(db)

	gateway := live.NewGateway(cfg.JWTSecret, cfg.TypingTTL)
	push := handlers.NewPushService(pushSubs, cfg.VAPIDPublic, cfg.VAPIDPrivate, cfg.VAPIDSubject)

	h := handlers.New(cfg, users, chats, messages, gateway.Rooms, push)

	router := routes.SetupRouter(cfg, h, gateway)

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "chatx backend running 🚀", "service": "healthy"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// ===== SERVER =====
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Server error: ", err)
		}
	}()

	// ===== GRACEFUL SHUTDOWN =====
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("❌ Forced shutdown: ", err)
	}

	log.Println("👋 Server stopped gracefully")
}
