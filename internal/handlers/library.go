package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/subliminalgen/subliminalgen-backend/internal/requestdata"
	"github.com/subliminalgen/subliminalgen-backend/internal/services"
)

const maxUploadBytes = 100 << 20

type LibraryHandler struct {
	creationService services.CreationService
}

func NewLibraryHandler(creationService services.CreationService) *LibraryHandler {
	return &LibraryHandler{creationService: creationService}
}

// Upload accepts a multipart form with an "audio" file and an optional
// "title" field. Free-tier uploads land in temp storage with a 24h lifetime.
func (lh *LibraryHandler) Upload(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
		return
	}
	defer f.Close()
	audio, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil || int64(len(audio)) > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
		return
	}

	title := c.PostForm("title")
	creation, err := lh.creationService.Upload(c.Request.Context(), rd.UserID, rd.VIP, title, audio)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	resp := gin.H{
		"id":        creation.ID,
		"title":     creation.Title,
		"audio_url": creation.AudioURL,
		"temporary": creation.Temporary,
	}
	if creation.ExpiresAt != nil {
		resp["expires_at"] = creation.ExpiresAt
	}
	c.JSON(http.StatusOK, resp)
}

func (lh *LibraryHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	creations, err := lh.creationService.List(c.Request.Context(), rd.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"creations": creations})
}

func (lh *LibraryHandler) Delete(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	creationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid creation id"})
		return
	}
	if err := lh.creationService.Delete(c.Request.Context(), rd.UserID, creationID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
