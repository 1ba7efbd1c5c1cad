package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/subliminalgen/subliminalgen-backend/internal/services"
)

type PsycheHandler struct {
	psycheService services.PsycheService
}

func NewPsycheHandler(psycheService services.PsycheService) *PsycheHandler {
	return &PsycheHandler{psycheService: psycheService}
}

func (ph *PsycheHandler) List(c *gin.Context) {
	library, err := ph.psycheService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": library.Version, "tracks": library.Tracks})
}

// Add uploads a curated track and bumps the library version. Admin only, the
// router gates it behind the admin middleware.
func (ph *PsycheHandler) Add(c *gin.Context) {
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

	name := c.PostForm("name")
	category := c.PostForm("category")
	sortOrder, _ := strconv.Atoi(c.PostForm("sort_order"))

	track, version, err := ph.psycheService.Add(c.Request.Context(), name, category, sortOrder, audio)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"track": track, "version": version})
}
