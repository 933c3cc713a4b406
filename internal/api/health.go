package api

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/naseer2426/wa-brain/internal/brain"
	"github.com/naseer2426/wa-brain/internal/whatsapp"
)

//go:embed static/index.html
var indexPage []byte

type Health struct {
	Bot         *brain.Bot
	ImageModels []string
	Supervisor  *whatsapp.Supervisor
}

func (h *Health) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexPage)
}

func (h *Health) HealthCheck(c *gin.Context) {
	models := h.ImageModels
	if models == nil {
		models = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"gemini_configured": h.Bot.TextAvailable(),
		"image_configured":  h.Bot.ImageAvailable(),
		"image_models":      models,
		"bot_running":       h.Supervisor.Status().Running,
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Health) APIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"gemini_available": h.Bot.TextAvailable(),
		"image_available":  h.Bot.ImageAvailable(),
	})
}
