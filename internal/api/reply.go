package api

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/naseer2426/wa-brain/internal/brain"
	"github.com/sirupsen/logrus"
)

var apiLog = logrus.WithField("component", "api")

const (
	genericFailure   = "Something went wrong."
	imageUnavailable = "Sorry, I couldn't create that image right now 🎨 Please try again in a bit!"
)

// ReplyRequest is what the WhatsApp client posts for every incoming message.
type ReplyRequest struct {
	Text      string `json:"text"`
	User      string `json:"user"`
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
	IsGroup   bool   `json:"is_group"`
	Timestamp int64  `json:"timestamp"`
}

type Reply struct {
	Bot *brain.Bot
}

func (r *Reply) Reply(c *gin.Context) {
	requestID := requestid.Get(c)

	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiLog.WithField("request_id", requestID).Warnf("invalid reply payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"reply": genericFailure,
			"error": "invalid JSON body",
		})
		return
	}

	result, err := r.Bot.HandleMessage(c.Request.Context(), requestID, &brain.Message{
		Text:      req.Text,
		User:      req.User,
		ChatID:    req.ChatID,
		MessageID: req.MessageID,
		IsGroup:   req.IsGroup,
	})
	if errors.Is(err, brain.ErrImageUnavailable) {
		apiLog.WithField("request_id", requestID).Warnf("image reply failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"reply": imageUnavailable,
			"error": err.Error(),
		})
		return
	}
	if err != nil {
		apiLog.WithField("request_id", requestID).Errorf("handle message failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"reply": genericFailure})
		return
	}

	if result.Kind == brain.KindImage {
		writeImage(c, result.Image.ContentType, result.Image.Data, result.Source)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": result.Text})
}

// TestImage runs the image ladder with a fixed prompt so operators can check
// the image credentials without going through WhatsApp.
func (r *Reply) TestImage(c *gin.Context) {
	requestID := requestid.Get(c)

	img, err := r.Bot.TestImage(c.Request.Context(), requestID)
	if err != nil {
		apiLog.WithField("request_id", requestID).Warnf("test image failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
			"suggestions": []string{
				"Check that HF_TOKEN (or HUGGINGFACE_TOKEN) is set and valid",
				"Models may still be loading on the inference API; retry in a minute",
				"Point IMAGE_PROVIDERS_FILE at a ladder with other models",
			},
		})
		return
	}
	writeImage(c, img.ContentType, img.Data, img.Provider)
}

func writeImage(c *gin.Context, contentType string, data []byte, provider string) {
	if contentType == "" {
		contentType = "image/png"
	}
	c.Header("Content-Disposition", `inline; filename="generated_image.png"`)
	c.Header("X-Image-Provider", provider)
	c.Data(http.StatusOK, contentType, data)
}
