package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/andrewpaige1/memocards-api/assist"
	"github.com/andrewpaige1/memocards-api/config"
	"github.com/andrewpaige1/memocards-api/handlers"
	"github.com/andrewpaige1/memocards-api/images"
	"github.com/andrewpaige1/memocards-api/logging"
	"github.com/andrewpaige1/memocards-api/middleware"
	"github.com/andrewpaige1/memocards-api/store"
)

func init() {
	// Load .env file if not in production environment
	if os.Getenv("RAILWAY_ENVIRONMENT_NAME") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Printf("Warning: .env file not found, environment variables might not be loaded: %v", err)
		}
	}
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database connection
	db, err := config.Connect(cfg.Database, logger)
	if err != nil {
		logger.Fatal("database setup failed", zap.Error(err))
	}

	authMiddleware, err := middleware.EnsureValidToken(cfg, logger)
	if err != nil {
		logger.Fatal("auth setup failed", zap.Error(err))
	}

	ctx := context.Background()
	var remote assist.Remote
	if cfg.GeminiAPIKey != "" {
		gemini, err := assist.NewGeminiRemote(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("gemini disabled, falling back to local formatting", zap.Error(err))
		} else {
			remote = gemini
		}
	}

	DBHandler := &handlers.DBHandler{
		DB:     db,
		Cards:  store.NewDBStore(db, cfg.MaxImportCards),
		Assist: assist.NewService(remote, cfg.AssistTimeout, logger),
		Config: cfg,
		Log:    logger,
	}
	if cfg.S3.Enabled() {
		presigner, err := images.NewPresigner(ctx, cfg.S3)
		if err != nil {
			logger.Fatal("image storage setup failed", zap.Error(err))
		}
		DBHandler.Images = presigner
	}
	mux := DBHandler.Routes(authMiddleware)

	// Configure CORS with specific options
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(mux)

	serverAddr := "0.0.0.0:" + cfg.Port
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("server listening",
		zap.String("addr", serverAddr),
		zap.String("authMode", cfg.AuthMode),
		zap.Bool("gemini", remote != nil),
		zap.Bool("imageUploads", cfg.S3.Enabled()))
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
