package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/subliminalgen/subliminalgen-backend/internal/requestdata"
	"github.com/subliminalgen/subliminalgen-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetProfile(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	user, err := uh.userService.GetProfile(c.Request.Context(), rd.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                user.ID,
		"email":             user.Email,
		"is_vip":            user.ActiveVIP(),
		"subscription_type": user.SubscriptionType,
		"vip_expires_at":    user.VIPExpiresAt,
		"created_at":        user.CreatedAt,
	})
}

func (uh *UserHandler) UpdateVIP(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	var req struct {
		Active           bool       `json:"active"`
		SubscriptionType string     `json:"subscription_type"`
		TransactionID    string     `json:"transaction_id"`
		ExpiresAt        *time.Time `json:"expires_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := uh.userService.UpdateVIPStatus(c.Request.Context(), rd.UserID, services.VIPUpdate{
		Active:           req.Active,
		SubscriptionType: req.SubscriptionType,
		TransactionID:    req.TransactionID,
		ExpiresAt:        req.ExpiresAt,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"is_vip":            user.ActiveVIP(),
		"subscription_type": user.SubscriptionType,
		"vip_expires_at":    user.VIPExpiresAt,
	})
}
