package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/omkarjadhav/lokvarta/internal/config"
	"github.com/omkarjadhav/lokvarta/internal/database"
	"github.com/omkarjadhav/lokvarta/internal/handler"
	"github.com/omkarjadhav/lokvarta/internal/media"
	"github.com/omkarjadhav/lokvarta/internal/middleware"
	"github.com/omkarjadhav/lokvarta/internal/queue"
	"github.com/omkarjadhav/lokvarta/internal/repository"
	"github.com/omkarjadhav/lokvarta/internal/router"
	"github.com/omkarjadhav/lokvarta/internal/service"
	"github.com/omkarjadhav/lokvarta/internal/sms"
	"github.com/omkarjadhav/lokvarta/internal/token"
)

func main() {
	// .env is optional; containers inject real environment variables.
	_ = godotenv.Load()
	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Env == "dev" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.RunMigrations(db, cfg.MigrationsPath); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	// nil when Redis is unreachable; limiters fall back to in-process
	// windows and the response cache disables itself.
	rdb := config.NewRedisClient()

	tokens := token.NewService(token.Config{
		UserAccessSecret:   cfg.AccessSecret,
		UserRefreshSecret:  cfg.RefreshSecret,
		AdminAccessSecret:  cfg.AdminAccessSecret,
		AdminRefreshSecret: cfg.AdminRefreshSecret,
		AccessTTL:          cfg.AccessTTL,
		RefreshTTL:         cfg.RefreshTTL,
	})

	userRepo := repository.NewUserRepo(db)
	adminRepo := repository.NewAdminRepo(db)

	// Store selection: embedded keeps one live refresh token per
	// principal (single session), table allows one per device.
	var userStore service.TokenStore = repository.NewUserTokenStore(userRepo)
	if cfg.TokenStore == config.TokenStoreTable {
		userStore = repository.NewRefreshTokenRepo(db)
	}
	adminStore := repository.NewAdminTokenStore(adminRepo)

	otpEngine := service.NewOtpEngine(userRepo)
	otpSender := queue.NewPublisher(cfg.AMQPURL)
	authSvc := service.NewAuthService(userRepo, tokens, userStore, otpEngine, otpSender, cfg.BcryptCost)
	adminSvc := service.NewAdminAuthService(adminRepo, tokens, adminStore, cfg.BcryptCost)

	if cfg.AuthMode == config.AuthModeOTP {
		gateway := sms.NewClient(cfg.SMSGatewayURL, cfg.SMSGatewayKey)
		go queue.StartOtpConsumer(cfg.AMQPURL, gateway)
	}

	mediaHost, err := media.NewS3Host(context.Background(), media.S3Config{
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Endpoint:  cfg.S3Endpoint,
		PublicURL: cfg.S3BaseURL,
	})
	if err != nil {
		log.Fatalf("media host: %v", err)
	}

	e := router.New(router.Deps{
		Cfg: cfg,

		Auth:       handler.NewAuthHandler(authSvc, cfg),
		AdminAuth:  handler.NewAdminAuthHandler(adminSvc, adminRepo, cfg),
		Users:      handler.NewUserHandler(userRepo),
		Districts:  handler.NewDistrictHandler(repository.NewDistrictRepo(db)),
		Talukas:    handler.NewTalukaHandler(repository.NewTalukaRepo(db)),
		Categories: handler.NewCategoryHandler(repository.NewCategoryRepo(db)),
		Posts:      handler.NewPostHandler(repository.NewPostRepo(db)),
		News:       handler.NewNewsHandler(repository.NewNewsRepo(db)),
		Upload:     handler.NewUploadHandler(mediaHost, cfg.UploadMaxBytes),
		Health:     handler.NewHealthHandler(db, rdb),

		Authenticator: middleware.NewAuthenticator(tokens, userRepo, adminRepo),

		GeneralLimit:  middleware.NewRateGuard(config.LoadGeneralRateLimit(), rdb),
		AuthLimit:     middleware.NewRateGuard(config.LoadAuthRateLimit(), rdb),
		RegisterLimit: middleware.NewRateGuard(config.LoadRegisterRateLimit(), rdb),
		Cache:         middleware.NewResponseCache(config.LoadCacheConfig(), rdb),
	})

	addr := ":" + cfg.Port
	slog.Info("listening", slog.String("addr", addr), slog.String("env", cfg.Env), slog.String("auth_mode", cfg.AuthMode))
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
