package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roomscan/backend/config"
	"github.com/roomscan/backend/middleware"
	"github.com/roomscan/backend/model"
	"github.com/roomscan/backend/service"
)

type AuthHandler struct {
	config *config.Config
	users  service.UserStore
}

func NewAuthHandler(cfg *config.Config, users service.UserStore) *AuthHandler {
	return &AuthHandler{config: cfg, users: users}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Find user in config
	user := h.config.FindUser(req.Username)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	// Simple password check (in production, use bcrypt)
	if user.Password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	role := user.Role
	if role == "" {
		role = model.RoleUser
	}

	// Generate token
	token, expiresAt, err := middleware.GenerateToken(user.Username, user.Email, role, &h.config.Auth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format("2006-01-02T15:04:05Z07:00"),
		Username:  user.Username,
		Email:     user.Email,
		Role:      role,
	})
}

// GetCurrentUser returns the current user info. The role comes from the side
// table when it has a row; the token claim stands in only when the table has
// no row. A failing lookup is an error, not a silent fallback.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	username := middleware.GetUsername(c)
	email := middleware.GetEmail(c)
	role := middleware.GetRole(c)

	if h.users != nil && email != "" {
		r, err := h.users.RoleByEmail(c.Request.Context(), email)
		switch {
		case err == nil:
			if r != "" {
				role = r
			}
		case errors.Is(err, service.ErrUserNotFound):
			// Keep the claim role
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up role"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"username": username,
		"email":    email,
		"role":     role,
	})
}
