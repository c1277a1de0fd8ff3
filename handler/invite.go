package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/roomscan/backend/middleware"
	"github.com/roomscan/backend/model"
	"github.com/roomscan/backend/service"
)

type InviteHandler struct {
	store      service.InviteStore
	expireDays int
}

func NewInviteHandler(store service.InviteStore, expireDays int) *InviteHandler {
	return &InviteHandler{
		store:      store,
		expireDays: expireDays,
	}
}

type CreateInviteRequest struct {
	Email string `json:"email" binding:"required"`
}

type AcceptInviteRequest struct {
	Code string `json:"code" binding:"required"`
}

// Create issues a new invite for an email address
func (h *InviteHandler) Create(c *gin.Context) {
	var req CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}

	code, err := service.GenerateInviteCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate invite code"})
		return
	}

	now := time.Now()
	invite := &model.Invite{
		ID:        uuid.New().String(),
		Code:      code,
		Email:     req.Email,
		Inviter:   middleware.GetUsername(c),
		Status:    model.InviteStatusPending,
		CreatedAt: now,
		ExpiresAt: now.AddDate(0, 0, h.expireDays),
	}

	if err := h.store.Create(c.Request.Context(), invite); err != nil {
		if errors.Is(err, service.ErrInviteExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "A pending invite already exists for this email"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invite: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, invite)
}

// List returns invites, optionally filtered by status
func (h *InviteHandler) List(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", model.InviteStatusPending, model.InviteStatusAccepted, model.InviteStatusRevoked:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	invites, err := h.store.List(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list invites: " + err.Error()})
		return
	}
	if invites == nil {
		invites = []*model.Invite{}
	}

	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

// Revoke flips a pending invite to revoked
func (h *InviteHandler) Revoke(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.Revoke(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrInviteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invite not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke invite: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invite revoked"})
}

// Accept redeems a one-time invite code
func (h *InviteHandler) Accept(c *gin.Context) {
	var req AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	invite, err := h.store.Accept(c.Request.Context(), req.Code, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrInviteExpired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invite has expired"})
			return
		}
		if errors.Is(err, service.ErrInviteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invite not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept invite: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invite accepted",
		"email":   invite.Email,
	})
}
