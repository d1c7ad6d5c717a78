package config

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"real-time-messenger/config/common"
	"real-time-messenger/config/logger"
	"real-time-messenger/gateway"
	"real-time-messenger/handler"
	"real-time-messenger/hub"
	"real-time-messenger/middleware"
	"real-time-messenger/presence"
	"real-time-messenger/ratelimit"
	"real-time-messenger/repository"
	"real-time-messenger/routes"
	"real-time-messenger/security"
	"real-time-messenger/session"
	"real-time-messenger/storage"
	"real-time-messenger/usecase"
)

type AppConfig struct {
	*fiber.App
	*validator.Validate
	*logger.AppLogger
	*DBConfig
	*security.JWT
	*middleware.Middleware
	Config  *common.Config
	Hub     *hub.Hub
	Redis   *redis.Client
	Limiter *ratelimit.Limiter
	Store   *storage.LocalStore
}

func RunServer() {
	newConfig := common.NewViper()
	log := logger.NewLogger(newConfig.GetLogDir())

	newDB, err := NewDB(newConfig, log)
	if err != nil {
		log.Http.Error.Fatal().Err(err).Msg("Failed to open database")
	}
	redisClient, err := NewRedis(newConfig, log)
	if err != nil {
		log.Http.Error.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	broker, err := NewBroker(newConfig, log)
	if err != nil {
		log.Http.Error.Fatal().Err(err).Msg("Failed to connect to broker")
	}
	newHub, err := hub.New(broker, log)
	if err != nil {
		log.Http.Error.Fatal().Err(err).Msg("Failed to start hub")
	}
	uploadDir, publicBaseURL := newConfig.GetUploadConfig()
	store, err := storage.NewLocalStore(uploadDir, publicBaseURL)
	if err != nil {
		log.Http.Error.Fatal().Err(err).Msg("Failed to prepare upload dir")
	}

	app := NewFiber(newConfig, log)
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: newConfig.GetCorsOrigins(),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	newJWT := security.NewJWT(newConfig)
	limiter := ratelimit.NewLimiter(redisClient, log)
	_, _, loginLimit := newConfig.GetRateLimitConfig()

	App(&AppConfig{
		App:        app,
		Validate:   NewValidator(),
		AppLogger:  log,
		DBConfig:   newDB,
		JWT:        newJWT,
		Middleware: middleware.NewMiddleware(newJWT, log, limiter, ratelimit.LoginRule(loginLimit)),
		Config:     newConfig,
		Hub:        newHub,
		Redis:      redisClient,
		Limiter:    limiter,
		Store:      store,
	})

	go func() {
		if err := app.Listen(newConfig.GetListenAddr()); err != nil {
			log.Http.Error.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Http.Info.Info().Str("signal", sig.String()).Msg("Shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Http.Error.Error().Err(err).Msg("Server shutdown error")
	}
	if err := newHub.Close(); err != nil {
		log.Http.Error.Error().Err(err).Msg("Broker close error")
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := newDB.Close(); err != nil {
		log.Http.Error.Error().Err(err).Msg("Database close error")
	}
}

func App(aC *AppConfig) {
	newAuthRepository := repository.NewAuthRepository()
	newUserRepository := repository.NewUserRepository()
	newChatRepository := repository.NewChatRepository()
	newMessageRepository := repository.NewMessageRepository()

	registry := session.NewRegistry()
	var mirror presence.Mirror
	if aC.Redis != nil {
		mirror = presence.NewRedisMirror(aC.Redis, instanceName(aC.Config))
	}
	broadcaster := presence.NewBroadcaster(registry, aC.Hub, newUserRepository, aC.GetDB(), mirror, aC.AppLogger)

	newAuthUsecase := usecase.NewAuthUsecase(newAuthRepository, newUserRepository, aC.Validate, aC.GetDB(), aC.AppLogger, aC.JWT)
	newUserUsecase := usecase.NewUserUsecase(newUserRepository, aC.Validate, aC.GetDB(), aC.AppLogger)
	newChatUsecase := usecase.NewChatUsecase(newChatRepository, newUserRepository, newMessageRepository, aC.GetDB(), aC.AppLogger)
	newMessageUsecase := usecase.NewMessageUsecase(newMessageRepository, newChatUsecase, aC.Validate, aC.GetDB(), aC.Hub, aC.AppLogger)

	messageLimit, messageWindow, _ := aC.Config.GetRateLimitConfig()
	gw := gateway.New(gateway.Options{
		Hub:         aC.Hub,
		Registry:    registry,
		Presence:    broadcaster,
		Chats:       newChatUsecase,
		Messages:    newMessageUsecase,
		Users:       newUserRepository,
		DB:          aC.GetDB(),
		JWT:         aC.JWT,
		Limiter:     aC.Limiter,
		MessageRule: ratelimit.MessageRule(messageLimit, messageWindow),
		Log:         aC.AppLogger,
	})
	pingInterval, pongWait := aC.Config.GetWebSocketConfig()

	route := routes.ConfigRoute{
		App:              aC.App,
		Middleware:       aC.Middleware,
		AuthHandler:      handler.NewAuthHandler(newAuthUsecase, aC.AppLogger),
		UserHandler:      handler.NewUserHandler(newUserUsecase, broadcaster, aC.AppLogger),
		ChatHandler:      handler.NewChatHandler(newChatUsecase, newMessageUsecase, aC.AppLogger),
		UploadHandler:    handler.NewUploadHandler(aC.Store, aC.AppLogger),
		OpsHandler:       handler.NewOpsHandler(aC.GetDB(), registry, aC.AppLogger),
		WebSocketHandler: handler.NewWebSocketHandler(gw, aC.AppLogger, pingInterval, pongWait),
		UploadDir:        aC.Store.Dir(),
	}
	route.GetRoute()
}

func instanceName(cfg *common.Config) string {
	if name := cfg.GetInstanceName(); name != "" {
		return name
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return cfg.GetAppConfig()
}
