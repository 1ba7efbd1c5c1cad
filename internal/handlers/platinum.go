package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subliminalgen/subliminalgen-backend/internal/requestdata"
	"github.com/subliminalgen/subliminalgen-backend/internal/services"
)

type PlatinumHandler struct {
	platinumService services.PlatinumService
}

func NewPlatinumHandler(platinumService services.PlatinumService) *PlatinumHandler {
	return &PlatinumHandler{platinumService: platinumService}
}

// Extend loops and fades a stored track into a long-play MP3. Paid tier only.
func (ph *PlatinumHandler) Extend(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if !rd.VIP {
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "platinum feature requires an active subscription"})
		return
	}
	var req struct {
		ObjectKey string `json:"object_key"`
		Loops     int    `json:"loops"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.ObjectKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "object_key required"})
		return
	}

	result, err := ph.platinumService.ExtendTrack(c.Request.Context(), rd.UserID, req.ObjectKey, req.Loops)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"object_key":       result.ObjectKey,
		"signed_url":       result.SignedURL,
		"expires_at":       result.ExpiresAt,
		"duration_seconds": result.DurationSecs,
	})
}
