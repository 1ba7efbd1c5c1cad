package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subliminalgen/subliminalgen-backend/internal/requestdata"
	"github.com/subliminalgen/subliminalgen-backend/internal/services"
)

type MusicHandler struct {
	musicService      services.MusicService
	generationService services.GenerationService
}

func NewMusicHandler(musicService services.MusicService, generationService services.GenerationService) *MusicHandler {
	return &MusicHandler{musicService: musicService, generationService: generationService}
}

type musicRequestBody struct {
	Category     string   `json:"category"`
	Seed         string   `json:"seed"`
	Styles       []string `json:"styles"`
	Moods        []string `json:"moods"`
	Instruments  []string `json:"instruments"`
	DurationSecs int      `json:"duration_seconds"`
}

func (b *musicRequestBody) toRequest(vip bool) services.MusicRequest {
	return services.MusicRequest{
		Category:     b.Category,
		Seed:         b.Seed,
		Styles:       b.Styles,
		Moods:        b.Moods,
		Instruments:  b.Instruments,
		DurationSecs: b.DurationSecs,
		VIP:          vip,
	}
}

// Serve is the cache-or-generate endpoint.
func (mh *MusicHandler) Serve(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	var req musicRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category required"})
		return
	}

	result, err := mh.musicService.Serve(c.Request.Context(), rd.UserID, req.toRequest(rd.VIP))
	if err != nil {
		c.JSON(statusForServeError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"track_id":         result.Track.TrackID(),
		"category":         result.Track.Category,
		"audio_url":        result.Track.AudioURL,
		"duration_seconds": result.Track.DurationSecs,
		"cached":           result.Cached,
	})
}

// GenerateDirect bypasses the cache and the cursor entirely.
func (mh *MusicHandler) GenerateDirect(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	var req musicRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category required"})
		return
	}

	url, err := mh.generationService.GenerateDirect(c.Request.Context(), req.toRequest(rd.VIP))
	if err != nil {
		c.JSON(statusForServeError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"audio_url": url})
}

func statusForServeError(err error) int {
	switch {
	case errors.Is(err, services.ErrGenerationFailed):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrStorageFailed),
		errors.Is(err, services.ErrPersistenceFailed),
		errors.Is(err, services.ErrLookupFailed):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
