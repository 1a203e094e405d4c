package routes

import (
	"time"

	"chatx/config"
	"chatx/handlers"
	"chatx/live"
	"chatx/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(cfg *config.Config, h *handlers.Handlers, gateway *live.Gateway) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.ClientOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
			"ws":     "WebSocket available at /ws",
		})
	})

	// Public routes
	router.POST("/api/auth/register", h.Register)
	router.POST("/api/auth/login", h.Login)
	router.GET("/api/push/vapid-public-key", h.GetVapidPublicKey)

	// Live channel; authentication happens inside the handshake so an
	// anonymous connection is accepted without privileges.
	router.GET("/ws", gateway.HandleWS)

	// Protected routes
	protected := router.Group("/api")
	protected.Use(middleware.JWTAuth(cfg.JWTSecret))

	protected.GET("/auth/me", h.Me)

	protected.GET("/chats", h.GetChatList)
	protected.POST("/chats", h.CreateChat)
	protected.GET("/chats/:chatId", h.GetChat)

	protected.GET("/messages/:chatId", h.GetMessages)
	protected.POST("/messages", h.SendMessage)
	protected.PATCH("/messages/:chatId/read", h.MarkAsRead)

	protected.POST("/upload", h.UploadAttachment)
	protected.POST("/push/subscribe", h.Subscribe)

	router.NoRoute(func(c *gin.Context) {
		if len(c.Request.URL.Path) >= 4 && c.Request.URL.Path[:4] == "/api" {
			c.JSON(404, gin.H{
				"error": "Endpoint not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.Next()
	})

	return router
}
