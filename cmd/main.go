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
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/scl-academy-backend/catalog"
	"github.com/vnkhanh/scl-academy-backend/config"
	"github.com/vnkhanh/scl-academy-backend/controllers"
	"github.com/vnkhanh/scl-academy-backend/editor"
	"github.com/vnkhanh/scl-academy-backend/logger"
	"github.com/vnkhanh/scl-academy-backend/middleware"
	"github.com/vnkhanh/scl-academy-backend/models"
	"github.com/vnkhanh/scl-academy-backend/routes"
	"github.com/vnkhanh/scl-academy-backend/services"
	"github.com/vnkhanh/scl-academy-backend/store"
	"github.com/vnkhanh/scl-academy-backend/utils"
	"github.com/vnkhanh/scl-academy-backend/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger chưa có cấu hình, dùng mặc định
		boot, _ := logger.New("development")
		boot.Fatal("failed to load config", "error", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ===== Kho nội dung =====
	var content store.Store
	if cfg.DB.Enabled() {
		db, err := config.OpenDB(cfg.DB, cfg.LogMode != "production")
		if err != nil {
			log.Fatal("failed to connect database", "error", err)
		}
		gs := store.NewGormStore(db, log)
		if err := gs.AutoMigrate(); err != nil {
			log.Fatal("failed to migrate database", "error", err)
		}
		content = gs
		log.Info("using postgres store", "host", cfg.DB.Host, "db", cfg.DB.Name)
	} else {
		content = store.NewMemoryStore()
		log.Warn("DB_HOST not set, content is kept in memory only")
	}

	var statuses store.RenderStatuses = store.NewMemoryRenderStatuses()
	if cfg.Redis.Addr != "" {
		rs, err := store.NewRedisRenderStatuses(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, 0)
		if err != nil {
			log.Fatal("failed to connect redis", "error", err)
		}
		defer rs.Close()
		statuses = rs
	}

	// ===== AI gateway và media =====
	media := utils.NewMediaStorage(cfg.Media.SupabaseURL, cfg.Media.SupabaseKey, cfg.Media.Bucket)

	prompts, err := services.LoadPrompts(cfg.AI.PromptsFile)
	if err != nil {
		log.Fatal("failed to load prompts", "error", err)
	}

	deps := controllers.Deps{
		Store:          content,
		Areas:          catalog.NewRegistry(content, log),
		Tokens:         utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Player:         editor.NewPlayer(),
		GoogleClientID: cfg.GoogleClientID,
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
		Log:            log,
	}

	// interface chỉ được gán khi service thật sự tồn tại
	var (
		gen    editor.Generator
		speech editor.Synthesizer
		video  editor.VideoRenderer
	)
	if cfg.AI.GeminiAPIKey != "" {
		gemini, err := services.NewGeminiService(ctx, cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel, prompts, log)
		if err != nil {
			log.Fatal("failed to init gemini", "error", err)
		}
		defer gemini.Close()
		gen = gemini
		deps.Scripts = gemini
		deps.Tutor = gemini
		deps.Outliner = gemini
		if cfg.AI.CleanSources {
			deps.Cleaner = gemini
		}

		var uploader services.MediaUploader
		if media != nil {
			uploader = media
		}
		renderer, err := services.NewVideoService(ctx, cfg.AI.GeminiAPIKey, cfg.AI.VideoModel, prompts, uploader, log)
		if err != nil {
			log.Fatal("failed to init video service", "error", err)
		}
		video = renderer
	} else {
		log.Warn("GEMINI_API_KEY not set, AI generation is disabled")
	}

	if cfg.TTS.CredentialsFile != "" {
		tts, err := services.NewSpeechService(ctx, services.SpeechConfig{
			CredentialsFile: cfg.TTS.CredentialsFile,
			LanguageCode:    cfg.TTS.LanguageCode,
			ExpertVoice:     cfg.TTS.ExpertVoice,
			HostVoice:       cfg.TTS.HostVoice,
		}, log)
		if err != nil {
			log.Fatal("failed to init text to speech", "error", err)
		}
		defer tts.Close()
		speech = tts
		deps.Speech = tts
	} else {
		log.Warn("GOOGLE_CREDENTIALS_JSON not set, speech synthesis is disabled")
	}

	if media != nil {
		deps.Images = media
		deps.Media = media
	} else {
		log.Warn("SUPABASE_URL not set, media uploads are disabled")
	}

	// ===== Trình soạn =====
	hub := ws.NewHub(log)
	renders := editor.NewRenderTracker(video, statuses, cfg.Editor.VideoPollInterval, cfg.Editor.VideoRenderTimeout, log)
	sessions := editor.NewSessions(cfg.Editor.SessionIdleTTL, renders, hub)
	deps.Hub = hub
	deps.Renders = renders
	deps.Sessions = sessions
	deps.Engine = editor.NewEngine(gen, speech, video, renders, services.MP3Duration, log)

	utils.StartCleanupJob(ctx, sessions, cfg.Editor.CleanupInterval, log)

	if err := bootstrapAdmin(ctx, content, cfg.BootstrapAdmin, log); err != nil {
		log.Fatal("failed to bootstrap admin", "error", err)
	}

	// ===== HTTP =====
	if cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	//Bật CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Auth-Token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	ctl := controllers.New(deps)
	auth := middleware.NewAuth(deps.Tokens, content)
	wsHandler := ws.NewHandler(hub, deps.Tokens, content, sessions, cfg.CORSOrigins, log)
	r = routes.SetupRouter(r, ctl, auth, wsHandler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server running", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped unexpectedly", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	renders.CancelAll()
	renders.Wait()
}

// bootstrapAdmin tạo tài khoản admin đầu tiên nếu được cấu hình và chưa tồn tại
func bootstrapAdmin(ctx context.Context, s store.Store, cfg config.AdminConfig, log *logger.Logger) error {
	if cfg.Email == "" {
		return nil
	}
	if _, err := s.GetUserByEmail(ctx, cfg.Email); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	user, err := controllers.CreateUserWithPassword(ctx, s, models.User{
		FullName: "Administrator",
		Email:    cfg.Email,
		Role:     models.RoleAdmin,
		JobRole:  models.JobManager,
	}, cfg.Password)
	if err != nil {
		return err
	}
	log.Info("bootstrap admin created", "user_id", user.ID)
	return nil
}
