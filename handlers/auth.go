package handlers

import (
	"net/http"

	"chatx/middleware"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Avatar   string `json:"avatar"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Users.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.Avatar)
	if err != nil {
		fail(c, err, "Unable to register user")
		return
	}

	token, err := middleware.NewToken(h.Cfg.JWTSecret, user.ID.Hex(), h.Cfg.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user.Summary()})
}

func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err, "Unable to log in")
		return
	}

	token, err := middleware.NewToken(h.Cfg.JWTSecret, user.ID.Hex(), h.Cfg.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user.Summary()})
}

func (h *Handlers) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.Users.ByID(c.Request.Context(), userID)
	if err != nil {
		fail(c, err, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Summary()})
}
