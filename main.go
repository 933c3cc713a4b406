package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/naseer2426/wa-brain/internal/api"
	"github.com/naseer2426/wa-brain/internal/brain"
	"github.com/naseer2426/wa-brain/internal/config"
	"github.com/naseer2426/wa-brain/internal/db"
	"github.com/naseer2426/wa-brain/internal/gemini"
	"github.com/naseer2426/wa-brain/internal/imagegen"
	"github.com/naseer2426/wa-brain/internal/logger"
	"github.com/naseer2426/wa-brain/internal/whatsapp"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   true,
	}); err != nil {
		logrus.Fatalf("failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, models := initBot(ctx, cfg)
	supervisor := initSupervisor(cfg)

	router := initRouter()
	reply := &api.Reply{Bot: bot}
	health := &api.Health{Bot: bot, ImageModels: models, Supervisor: supervisor}
	control := &api.BotControl{Supervisor: supervisor}

	router.GET("/", health.Index)
	router.GET("/health", health.HealthCheck)
	router.GET("/api-status", health.APIStatus)
	router.POST("/reply", reply.Reply)
	router.POST("/test-image", reply.TestImage)
	router.POST("/start", control.Start)
	router.POST("/stop", control.Stop)
	router.GET("/status", control.Status)
	router.GET("/status/stream", control.StatusStream)
	router.POST("/qr-update", control.QRUpdate)
	router.POST("/bot-ready", control.BotReady)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logrus.Infof("listening on %s", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logrus.Info("shutdown signal received")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("server stopped: %v", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := supervisor.Shutdown(shutdownCtx); err != nil {
		logrus.Warnf("bot shutdown: %v", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Warnf("http shutdown: %v", err)
	}
	logrus.Info("bye")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func initRouter() *gin.Engine {
	router := gin.New()

	router.Use(gin.Logger(), api.Recovery(), requestid.New())
	// Allow CORS for all origins
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:   []string{"Content-Length", "X-Image-Provider"},
	}))

	return router
}

// initBot wires whichever providers have credentials. Unconfigured ones stay
// nil so the bot short-circuits to its fallbacks.
func initBot(ctx context.Context, cfg *config.Config) (*brain.Bot, []string) {
	bot := brain.NewBot()
	bot.MaxMessageLength = cfg.MaxMessageLength

	if key := cfg.TextAPIKey(); key != "" {
		client, err := gemini.NewClient(ctx, key, cfg.GeminiModel, cfg.GeminiTimeout)
		if err != nil {
			logrus.Warnf("gemini disabled: %v", err)
		} else {
			bot.Text = client
			logrus.Infof("gemini configured with model %s", client.Model())
		}
	} else {
		logrus.Warn("no GOOGLE_API_KEY set, text replies use canned responses")
	}

	plan := imagegen.DefaultPlan()
	if cfg.ImageProvidersFile != "" {
		loaded, err := imagegen.LoadPlan(cfg.ImageProvidersFile)
		if err != nil {
			logrus.Warnf("using default image providers: %v", err)
		} else {
			plan = loaded
		}
	}
	plan, err := plan.Normalize(cfg.ImageInferenceURL)
	if err != nil {
		logrus.Fatalf("invalid image provider plan: %v", err)
	}

	hf := imagegen.NewHuggingFace(cfg.ImageToken())
	if hf.Configured() {
		bot.Images = imagegen.NewGenerator(hf, plan)
		logrus.Infof("image generation configured with %d tiers", len(plan.Tiers))
	} else {
		logrus.Warn("no HF_TOKEN set, image requests will be declined")
	}

	if cfg.DatabaseURL != "" {
		database, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			logrus.Warnf("interaction journal disabled: %v", err)
		} else {
			bot.Recorder = db.NewJournal(database)
		}
	}

	return bot, plan.Models()
}

func initSupervisor(cfg *config.Config) *whatsapp.Supervisor {
	return whatsapp.NewSupervisor(&whatsapp.ExecLauncher{
		Args: cfg.BotArgs(),
		Dir:  cfg.BotWorkdir,
	}, cfg.BotStopGrace)
}
