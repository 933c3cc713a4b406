package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/naseer2426/wa-brain/internal/whatsapp"
	"github.com/sirupsen/logrus"
)

const (
	stopTimeout  = 15 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

var statusUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Same policy as the CORS middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type QRUpdateRequest struct {
	QRCode string `json:"qr_code"`
}

// BotControl exposes the WhatsApp bot supervisor over HTTP.
type BotControl struct {
	Supervisor *whatsapp.Supervisor
}

func (b *BotControl) Start(c *gin.Context) {
	session, err := b.Supervisor.Start(c.Request.Context())
	if errors.Is(err, whatsapp.ErrAlreadyRunning) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Bot is already running"})
		return
	}
	if err != nil {
		apiLog.WithField("request_id", requestid.Get(c)).Errorf("start bot failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Bot started", "session": session})
}

func (b *BotControl) Stop(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), stopTimeout)
	defer cancel()

	wasRunning, err := b.Supervisor.Stop(ctx)
	if err != nil {
		apiLog.WithField("request_id", requestid.Get(c)).Errorf("stop bot failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	message := "Bot stopped"
	if !wasRunning {
		message = "Bot was not running"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func (b *BotControl) Status(c *gin.Context) {
	c.JSON(http.StatusOK, b.Supervisor.Status())
}

func (b *BotControl) QRUpdate(c *gin.Context) {
	var req QRUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.QRCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "qr_code is required"})
		return
	}
	if err := b.Supervisor.UpdateQR(req.QRCode); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": err.Error()})
		return
	}
	apiLog.WithField("request_id", requestid.Get(c)).Info("qr code updated")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (b *BotControl) BotReady(c *gin.Context) {
	if err := b.Supervisor.MarkReady(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": err.Error()})
		return
	}
	apiLog.WithField("request_id", requestid.Get(c)).Info("bot reported ready")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// StatusStream pushes the bot status over a websocket on every change.
func (b *BotControl) StatusStream(c *gin.Context) {
	log := apiLog.WithField("request_id", requestid.Get(c))
	conn, err := statusUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("status stream upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := b.Supervisor.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case st, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(st); err != nil {
				log.WithFields(logrus.Fields{"state": st.State()}).Debugf("status stream write failed: %v", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
